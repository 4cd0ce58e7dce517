package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gymbuddy/gymbuddy-backend/internal/config"
	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// SocialHandler handles HTTP requests for posts, the feed, comments and
// likes.
type SocialHandler struct {
	Service *services.SocialService
	Config  *config.Config
}

// NewSocialHandler creates a new instance of SocialHandler.
func NewSocialHandler(service *services.SocialService, cfg *config.Config) *SocialHandler {
	return &SocialHandler{Service: service, Config: cfg}
}

// CreatePostHandler publishes a new post.
func (h *SocialHandler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	var post models.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	created, err := h.Service.CreatePost(r.Context(), accountID, &post)
	if err != nil {
		log.WithError(err).Warn("Failed to create post")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetFeedHandler assembles the caller's feed page.
func (h *SocialHandler) GetFeedHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	feed, err := h.Service.GetFeed(r.Context(), accountID, limit, offset)
	if err != nil {
		log.WithError(err).Error("Failed to assemble feed")
		http.Error(w, "Failed to assemble feed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

// GetPostHandler fetches a single post, honoring privacy.
func (h *SocialHandler) GetPostHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	post, err := h.Service.GetPost(r.Context(), postID, accountID)
	if err != nil {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// GetAccountPostsHandler lists another account's visible posts.
func (h *SocialHandler) GetAccountPostsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	authorID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	posts, err := h.Service.GetAccountPosts(r.Context(), authorID, accountID, limit)
	if err != nil {
		log.WithError(err).Error("Failed to fetch account posts")
		http.Error(w, "Failed to fetch posts", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// GetGymPostsHandler lists a gym's scoped posts for its members.
func (h *SocialHandler) GetGymPostsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	gymID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	posts, err := h.Service.GetGymPosts(r.Context(), gymID, accountID, limit)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch gym posts")
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// UpdatePostHandler applies the author's edits.
func (h *SocialHandler) UpdatePostHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	post, err := h.Service.UpdatePost(r.Context(), postID, accountID, updates)
	if err != nil {
		log.WithError(err).Warn("Failed to update post")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// DeletePostHandler removes a post.
func (h *SocialHandler) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.DeletePost(r.Context(), postID, accountID); err != nil {
		log.WithError(err).Warn("Failed to delete post")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// LikePostHandler likes a post for the caller.
func (h *SocialHandler) LikePostHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.LikePost(r.Context(), postID, accountID); err != nil {
		log.WithError(err).Warn("Failed to like post")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "liked"})
}

// UnlikePostHandler removes the caller's like.
func (h *SocialHandler) UnlikePostHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.UnlikePost(r.Context(), postID, accountID); err != nil {
		log.WithError(err).Warn("Failed to unlike post")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "unliked"})
}

// GetPostLikesHandler lists who liked a post.
func (h *SocialHandler) GetPostLikesHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	postID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	likes, err := h.Service.GetPostLikes(r.Context(), postID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch post likes")
		http.Error(w, "Failed to fetch likes", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, likes)
}

// AddCommentHandler appends a comment to a post.
func (h *SocialHandler) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	comment, err := h.Service.AddComment(r.Context(), postID, accountID, req.Content)
	if err != nil {
		log.WithError(err).Warn("Failed to add comment")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// GetCommentsHandler lists a post's comments.
func (h *SocialHandler) GetCommentsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	comments, err := h.Service.GetComments(r.Context(), postID, accountID, limit)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch comments")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

// DeleteCommentHandler removes a comment.
func (h *SocialHandler) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.DeleteComment(r.Context(), commentID, accountID); err != nil {
		log.WithError(err).Warn("Failed to delete comment")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// LikeCommentHandler likes a comment for the caller.
func (h *SocialHandler) LikeCommentHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.LikeComment(r.Context(), commentID, accountID); err != nil {
		log.WithError(err).Warn("Failed to like comment")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "liked"})
}

// UnlikeCommentHandler removes the caller's like from a comment.
func (h *SocialHandler) UnlikeCommentHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := h.Service.UnlikeComment(r.Context(), commentID, accountID); err != nil {
		log.WithError(err).Warn("Failed to unlike comment")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "unliked"})
}

// UploadMediaHandler stores a post image and returns its URL.
func (h *SocialHandler) UploadMediaHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	url, err := saveUpload(r, h.Config.UploadDir)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
