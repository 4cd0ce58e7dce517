package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/internal/repository"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Like target types.
const (
	TargetPost    = "post"
	TargetComment = "comment"
)

// SocialService handles business logic for posts, the feed, comments and
// likes.
type SocialService struct {
	postRepo            *repository.PostRepository
	commentRepo         *repository.CommentRepository
	likeRepo            *repository.LikeRepository
	accountRepo         *repository.AccountRepository
	connectionService   *ConnectionService
	milestoneService    *MilestoneService
	notificationService *NotificationService
}

// NewSocialService creates a new SocialService.
func NewSocialService(postRepo *repository.PostRepository, commentRepo *repository.CommentRepository, likeRepo *repository.LikeRepository, accountRepo *repository.AccountRepository, connectionService *ConnectionService, milestoneService *MilestoneService, notificationService *NotificationService) *SocialService {
	return &SocialService{
		postRepo:            postRepo,
		commentRepo:         commentRepo,
		likeRepo:            likeRepo,
		accountRepo:         accountRepo,
		connectionService:   connectionService,
		milestoneService:    milestoneService,
		notificationService: notificationService,
	}
}

// CreatePost publishes a new post with the author's name and photo
// snapshotted at write time. Gym-scoped posts are stamped with the author's
// gym.
func (s *SocialService) CreatePost(ctx context.Context, accountID primitive.ObjectID, post *models.Post) (*models.Post, error) {
	if post.Content == "" && len(post.Media) == 0 {
		return nil, fmt.Errorf("post needs content or media")
	}

	switch post.Privacy {
	case "":
		post.Privacy = models.PrivacyPublic
	case models.PrivacyPublic, models.PrivacyFriends, models.PrivacyGym, models.PrivacyPrivate:
	default:
		return nil, fmt.Errorf("unknown privacy %q", post.Privacy)
	}

	author, err := s.accountRepo.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("author not found: %v", err)
	}

	post.AccountID = accountID
	post.AccountName = author.DisplayName
	post.AccountPhoto = author.PhotoURL
	post.LikeCount = 0
	post.CommentCount = 0
	if post.Privacy == models.PrivacyGym {
		if author.GymID == nil {
			return nil, fmt.Errorf("gym posts require a gym membership")
		}
		post.GymID = author.GymID
	}

	created, err := s.postRepo.CreatePost(ctx, post)
	if err != nil {
		return nil, err
	}

	if err := s.milestoneService.RecordAction(ctx, accountID, "post_created", map[string]interface{}{
		"post_id": created.ID.Hex(),
	}); err != nil {
		logger.Log.WithError(err).Warn("Failed to record post action")
	}

	return created, nil
}

// GetFeed assembles the viewer's feed from four branches: public posts,
// friends-only posts from their connections, gym posts from their own gym
// and their own posts. Branches overlap, so the merge dedupes before sorting
// newest first.
func (s *SocialService) GetFeed(ctx context.Context, viewerID primitive.ObjectID, limit, offset int) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	viewer, err := s.accountRepo.GetAccountByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	connectedIDs, err := s.connectionService.GetConnectedIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	// Each branch is over-fetched so the merged page stays full after
	// dedup and offset.
	fetch := int64(limit + offset + 20)

	publicPosts, err := s.postRepo.FindPosts(ctx, bson.M{"privacy": models.PrivacyPublic}, fetch)
	if err != nil {
		return nil, err
	}

	var friendPosts []models.Post
	if len(connectedIDs) > 0 {
		friendPosts, err = s.postRepo.FindPosts(ctx, bson.M{
			"privacy":    models.PrivacyFriends,
			"account_id": bson.M{"$in": connectedIDs},
		}, fetch)
		if err != nil {
			return nil, err
		}
	}

	var gymPosts []models.Post
	if viewer.GymID != nil {
		gymPosts, err = s.postRepo.FindPosts(ctx, bson.M{
			"privacy": models.PrivacyGym,
			"gym_id":  *viewer.GymID,
		}, fetch)
		if err != nil {
			return nil, err
		}
	}

	ownPosts, err := s.postRepo.FindPosts(ctx, bson.M{"account_id": viewerID}, fetch)
	if err != nil {
		return nil, err
	}

	feed := MergeFeed(publicPosts, friendPosts, gymPosts, ownPosts)
	feed = PageSlice(feed, offset, limit)

	if err := s.annotateLikes(ctx, feed, viewerID); err != nil {
		logger.Log.WithError(err).Warn("Failed to annotate feed likes")
	}

	return feed, nil
}

// MergeFeed combines feed branches, drops duplicates and orders newest
// first.
func MergeFeed(branches ...[]models.Post) []models.Post {
	seen := map[primitive.ObjectID]bool{}
	var merged []models.Post
	for _, branch := range branches {
		for _, post := range branch {
			if seen[post.ID] {
				continue
			}
			seen[post.ID] = true
			merged = append(merged, post)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	return merged
}

// PageSlice cuts an in-memory page out of a merged result.
func PageSlice(posts []models.Post, offset, limit int) []models.Post {
	if offset >= len(posts) {
		return []models.Post{}
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end]
}

// annotateLikes sets the viewer-relative liked flag on a page of posts using
// the deterministic like ids.
func (s *SocialService) annotateLikes(ctx context.Context, posts []models.Post, viewerID primitive.ObjectID) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(posts))
	for i := range posts {
		ids = append(ids, models.LikeID(TargetPost, posts[i].ID.Hex(), viewerID))
	}

	likes, err := s.likeRepo.GetLikesByIDs(ctx, ids)
	if err != nil {
		return err
	}

	liked := make(map[string]bool, len(likes))
	for _, like := range likes {
		liked[like.TargetID] = true
	}

	for i := range posts {
		posts[i].Liked = liked[posts[i].ID.Hex()]
	}
	return nil
}

// canViewPost decides whether the viewer may see a post given their
// relationship to the author.
func (s *SocialService) canViewPost(ctx context.Context, post *models.Post, viewerID primitive.ObjectID) (bool, error) {
	if post.AccountID == viewerID {
		return true, nil
	}

	switch post.Privacy {
	case models.PrivacyPublic:
		return true, nil
	case models.PrivacyPrivate:
		return false, nil
	case models.PrivacyFriends:
		status, err := s.connectionService.CheckStatus(ctx, viewerID, post.AccountID)
		if err != nil {
			return false, err
		}
		return status == models.ConnectionAccepted, nil
	case models.PrivacyGym:
		viewer, err := s.accountRepo.GetAccountByID(ctx, viewerID)
		if err != nil {
			return false, err
		}
		return viewer.GymID != nil && post.GymID != nil && *viewer.GymID == *post.GymID, nil
	}

	return false, nil
}

// GetPost fetches one post, enforcing privacy against the viewer.
func (s *SocialService) GetPost(ctx context.Context, postID, viewerID primitive.ObjectID) (*models.Post, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	visible, err := s.canViewPost(ctx, post, viewerID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, fmt.Errorf("post is not visible to this account")
	}

	likeID := models.LikeID(TargetPost, post.ID.Hex(), viewerID)
	if _, err := s.likeRepo.GetLike(ctx, likeID); err == nil {
		post.Liked = true
	}

	return post, nil
}

// GetAccountPosts lists an author's posts at the privacy levels the viewer
// may see.
func (s *SocialService) GetAccountPosts(ctx context.Context, authorID, viewerID primitive.ObjectID, limit int64) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	privacies, err := s.visiblePrivacies(ctx, authorID, viewerID)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.GetPostsByAccount(ctx, authorID, privacies, limit)
	if err != nil {
		return nil, err
	}

	if err := s.annotateLikes(ctx, posts, viewerID); err != nil {
		logger.Log.WithError(err).Warn("Failed to annotate post likes")
	}
	return posts, nil
}

// visiblePrivacies maps the viewer/author relationship to the privacy levels
// the viewer may read. An empty slice means no restriction (own posts).
func (s *SocialService) visiblePrivacies(ctx context.Context, authorID, viewerID primitive.ObjectID) ([]string, error) {
	if authorID == viewerID {
		return nil, nil
	}

	privacies := []string{models.PrivacyPublic}

	status, err := s.connectionService.CheckStatus(ctx, viewerID, authorID)
	if err != nil {
		return nil, err
	}
	if status == models.ConnectionAccepted {
		privacies = append(privacies, models.PrivacyFriends)
	}

	viewer, err := s.accountRepo.GetAccountByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	author, err := s.accountRepo.GetAccountByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if viewer.GymID != nil && author.GymID != nil && *viewer.GymID == *author.GymID {
		privacies = append(privacies, models.PrivacyGym)
	}

	return privacies, nil
}

// GetGymPosts lists gym-scoped posts of a single gym. Only members of that
// gym may read them.
func (s *SocialService) GetGymPosts(ctx context.Context, gymID, viewerID primitive.ObjectID, limit int64) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	viewer, err := s.accountRepo.GetAccountByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer.GymID == nil || *viewer.GymID != gymID {
		return nil, fmt.Errorf("only gym members can read gym posts")
	}

	posts, err := s.postRepo.FindPosts(ctx, bson.M{
		"privacy": models.PrivacyGym,
		"gym_id":  gymID,
	}, limit)
	if err != nil {
		return nil, err
	}

	if err := s.annotateLikes(ctx, posts, viewerID); err != nil {
		logger.Log.WithError(err).Warn("Failed to annotate post likes")
	}
	return posts, nil
}

// UpdatePost applies the author's edits. Only the author may update a post.
func (s *SocialService) UpdatePost(ctx context.Context, postID, callerID primitive.ObjectID, updates map[string]interface{}) (*models.Post, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AccountID != callerID {
		return nil, fmt.Errorf("only the author can update a post")
	}

	allowed := map[string]bool{
		"content":  true,
		"privacy":  true,
		"tags":     true,
		"location": true,
	}
	update := bson.M{}
	for key, value := range updates {
		if allowed[key] {
			update[key] = value
		}
	}
	if len(update) == 0 {
		return nil, fmt.Errorf("no updatable fields provided")
	}

	if err := s.postRepo.UpdatePost(ctx, postID, update); err != nil {
		return nil, err
	}
	return s.postRepo.GetPostByID(ctx, postID)
}

// DeletePost removes a post and its comments. Only the author may delete.
func (s *SocialService) DeletePost(ctx context.Context, postID, callerID primitive.ObjectID) error {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AccountID != callerID {
		return fmt.Errorf("only the author can delete a post")
	}

	if err := s.commentRepo.DeleteCommentsByPost(ctx, postID); err != nil {
		return err
	}
	return s.postRepo.DeletePost(ctx, postID)
}

// LikePost likes a post for the caller. Liking twice is a no-op.
func (s *SocialService) LikePost(ctx context.Context, postID, callerID primitive.ObjectID) error {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}

	likeID := models.LikeID(TargetPost, postID.Hex(), callerID)
	if _, err := s.likeRepo.GetLike(ctx, likeID); err == nil {
		return nil
	}

	caller, err := s.accountRepo.GetAccountByID(ctx, callerID)
	if err != nil {
		return err
	}

	like := &models.Like{
		ID:           likeID,
		AccountID:    callerID,
		AccountName:  caller.DisplayName,
		AccountPhoto: caller.PhotoURL,
		TargetID:     postID.Hex(),
		TargetType:   TargetPost,
	}
	if err := s.likeRepo.CreateLike(ctx, like); err != nil {
		return err
	}
	if err := s.postRepo.IncrementLikeCount(ctx, postID); err != nil {
		return err
	}

	if post.AccountID != callerID {
		s.notificationService.Notify(ctx, post.AccountID, &callerID, "post_liked",
			fmt.Sprintf("%s liked your post", caller.DisplayName),
			map[string]interface{}{"post_id": postID.Hex()})
	}

	return nil
}

// UnlikePost removes the caller's like. Unliking something never liked is a
// no-op.
func (s *SocialService) UnlikePost(ctx context.Context, postID, callerID primitive.ObjectID) error {
	likeID := models.LikeID(TargetPost, postID.Hex(), callerID)
	deleted, err := s.likeRepo.DeleteLike(ctx, likeID)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}
	return s.postRepo.DecrementLikeCount(ctx, postID)
}

// AddComment appends a comment to a post and bumps its counter.
func (s *SocialService) AddComment(ctx context.Context, postID, callerID primitive.ObjectID, content string) (*models.Comment, error) {
	if content == "" {
		return nil, fmt.Errorf("comment content is required")
	}

	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	visible, err := s.canViewPost(ctx, post, callerID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, fmt.Errorf("post is not visible to this account")
	}

	caller, err := s.accountRepo.GetAccountByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:       postID,
		AccountID:    callerID,
		AccountName:  caller.DisplayName,
		AccountPhoto: caller.PhotoURL,
		Content:      content,
	}

	created, err := s.commentRepo.CreateComment(ctx, comment)
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.IncrementCommentCount(ctx, postID); err != nil {
		return nil, err
	}

	if post.AccountID != callerID {
		s.notificationService.Notify(ctx, post.AccountID, &callerID, "post_commented",
			fmt.Sprintf("%s commented on your post", caller.DisplayName),
			map[string]interface{}{"post_id": postID.Hex(), "comment_id": created.ID.Hex()})
	}

	return created, nil
}

// GetComments lists a post's comments with the viewer's like annotations.
func (s *SocialService) GetComments(ctx context.Context, postID, viewerID primitive.ObjectID, limit int64) ([]models.Comment, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	visible, err := s.canViewPost(ctx, post, viewerID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, fmt.Errorf("post is not visible to this account")
	}

	comments, err := s.commentRepo.GetCommentsByPost(ctx, postID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(comments))
	for i := range comments {
		ids = append(ids, models.LikeID(TargetComment, comments[i].ID.Hex(), viewerID))
	}
	likes, err := s.likeRepo.GetLikesByIDs(ctx, ids)
	if err == nil {
		liked := make(map[string]bool, len(likes))
		for _, like := range likes {
			liked[like.TargetID] = true
		}
		for i := range comments {
			comments[i].Liked = liked[comments[i].ID.Hex()]
		}
	}

	return comments, nil
}

// DeleteComment removes a comment. The comment author and the post author
// may both delete it.
func (s *SocialService) DeleteComment(ctx context.Context, commentID, callerID primitive.ObjectID) error {
	comment, err := s.commentRepo.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}

	post, err := s.postRepo.GetPostByID(ctx, comment.PostID)
	if err != nil {
		return err
	}
	if comment.AccountID != callerID && post.AccountID != callerID {
		return fmt.Errorf("not allowed to delete this comment")
	}

	if err := s.commentRepo.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	return s.postRepo.DecrementCommentCount(ctx, comment.PostID)
}

// LikeComment likes a comment for the caller. Liking twice is a no-op.
func (s *SocialService) LikeComment(ctx context.Context, commentID, callerID primitive.ObjectID) error {
	comment, err := s.commentRepo.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}

	likeID := models.LikeID(TargetComment, commentID.Hex(), callerID)
	if _, err := s.likeRepo.GetLike(ctx, likeID); err == nil {
		return nil
	}

	caller, err := s.accountRepo.GetAccountByID(ctx, callerID)
	if err != nil {
		return err
	}

	like := &models.Like{
		ID:           likeID,
		AccountID:    callerID,
		AccountName:  caller.DisplayName,
		AccountPhoto: caller.PhotoURL,
		TargetID:     commentID.Hex(),
		TargetType:   TargetComment,
	}
	if err := s.likeRepo.CreateLike(ctx, like); err != nil {
		return err
	}
	if err := s.commentRepo.IncrementLikeCount(ctx, commentID); err != nil {
		return err
	}

	if comment.AccountID != callerID {
		s.notificationService.Notify(ctx, comment.AccountID, &callerID, "comment_liked",
			fmt.Sprintf("%s liked your comment", caller.DisplayName),
			map[string]interface{}{"comment_id": commentID.Hex()})
	}

	return nil
}

// UnlikeComment removes the caller's like from a comment.
func (s *SocialService) UnlikeComment(ctx context.Context, commentID, callerID primitive.ObjectID) error {
	likeID := models.LikeID(TargetComment, commentID.Hex(), callerID)
	deleted, err := s.likeRepo.DeleteLike(ctx, likeID)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}
	return s.commentRepo.DecrementLikeCount(ctx, commentID)
}

// GetPostLikes lists who liked a target. Used for the likes sheet in the
// client.
func (s *SocialService) GetPostLikes(ctx context.Context, postID primitive.ObjectID) ([]models.Like, error) {
	return s.likeRepo.GetLikesByTarget(ctx, TargetPost, postID.Hex())
}
