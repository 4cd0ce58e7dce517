package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MilestoneService handles the gamification engine: achievements, challenges,
// experience points and the leaderboard.
type MilestoneService struct {
	milestoneRepo       milestoneStore
	accountRepo         accountStore
	notificationService *NotificationService
}

// NewMilestoneService creates a new MilestoneService.
func NewMilestoneService(milestoneRepo milestoneStore, accountRepo accountStore, notificationService *NotificationService) *MilestoneService {
	return &MilestoneService{
		milestoneRepo:       milestoneRepo,
		accountRepo:         accountRepo,
		notificationService: notificationService,
	}
}

// PointsForNextLevel returns the points needed to move past the given level.
func PointsForNextLevel(level int) int {
	return int(100 * math.Pow(float64(level), 1.5))
}

// LevelFromPoints maps an absolute point total to a level. Levels only ever
// go up; callers must not lower a stored level with this.
func LevelFromPoints(points int) int {
	if points < 0 {
		points = 0
	}
	return int(1 + math.Sqrt(float64(points)/100))
}

// RecordAction feeds one domain action into the achievement engine. Every
// achievement keyed to the action gains one step of progress; reaching the
// target unlocks it and grants its points. Already unlocked achievements are
// untouched, so replays are harmless.
func (s *MilestoneService) RecordAction(ctx context.Context, accountID primitive.ObjectID, actionType string, data map[string]interface{}) error {
	achievements, err := s.milestoneRepo.GetAchievementsByAction(ctx, actionType)
	if err != nil {
		return fmt.Errorf("failed to load achievements: %v", err)
	}

	account, err := s.accountRepo.GetAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to load account: %v", err)
	}

	activity := &models.MilestoneActivity{
		AccountID: accountID,
		Type:      actionType,
		Message:   activityMessage(actionType),
		Data:      data,
	}
	if err := s.milestoneRepo.RecordActivity(ctx, activity); err != nil {
		logger.Log.WithError(err).Warn("Failed to record milestone activity")
	}

	totalPoints := 0
	unlocked := 0

	for i := range achievements {
		achievement := achievements[i]
		progressID := accountID.Hex() + "_" + achievement.ID.Hex()

		row, err := s.milestoneRepo.GetProgress(ctx, progressID)
		if err != nil {
			// First action of this type creates the row.
			row = &models.AchievementProgress{
				ID:            progressID,
				AccountID:     accountID,
				AchievementID: achievement.ID,
				Progress:      0,
				MaxProgress:   achievement.Requirements.TargetValue,
				CreatedAt:     time.Now(),
			}
		}

		if row.IsUnlocked {
			continue
		}

		row.Progress++
		row.UpdatedAt = time.Now()

		if row.Progress >= achievement.Requirements.TargetValue {
			now := time.Now()
			row.IsUnlocked = true
			row.UnlockedAt = &now
			totalPoints += achievement.Points
			unlocked++

			s.notificationService.Notify(ctx, accountID, nil, "achievement_unlocked",
				fmt.Sprintf("You unlocked %q and earned %d points", achievement.Title, achievement.Points),
				map[string]interface{}{"achievement_id": achievement.ID.Hex()})

			unlockActivity := &models.MilestoneActivity{
				AccountID:  accountID,
				Type:       "achievement_unlocked",
				Message:    fmt.Sprintf("Unlocked the %s achievement", achievement.Title),
				TargetID:   achievement.ID.Hex(),
				TargetType: "achievement",
				Data:       map[string]interface{}{"points_earned": achievement.Points},
			}
			if err := s.milestoneRepo.RecordActivity(ctx, unlockActivity); err != nil {
				logger.Log.WithError(err).Warn("Failed to record unlock activity")
			}

			logger.Log.WithFields(map[string]interface{}{
				"account_id":     accountID.Hex(),
				"achievement_id": achievement.ID.Hex(),
			}).Info("Achievement unlocked")
		}

		if err := s.milestoneRepo.UpsertProgress(ctx, row); err != nil {
			return fmt.Errorf("failed to save achievement progress: %v", err)
		}
	}

	if totalPoints > 0 {
		if err := s.grantPoints(ctx, account, totalPoints, unlocked); err != nil {
			return err
		}
	}

	return nil
}

// grantPoints adds points to the account and recomputes its level, notifying
// on a level change.
func (s *MilestoneService) grantPoints(ctx context.Context, account *models.Account, points, achievements int) error {
	if err := s.accountRepo.GrantPoints(ctx, account.ID, points, achievements); err != nil {
		return fmt.Errorf("failed to grant points: %v", err)
	}

	newLevel := LevelFromPoints(account.ExperiencePoints + points)
	if newLevel > account.Level {
		if err := s.accountRepo.SetLevel(ctx, account.ID, newLevel); err != nil {
			return fmt.Errorf("failed to set level: %v", err)
		}

		s.notificationService.Notify(ctx, account.ID, nil, "level_up",
			fmt.Sprintf("You reached level %d", newLevel),
			map[string]interface{}{"level": newLevel})

		levelActivity := &models.MilestoneActivity{
			AccountID: account.ID,
			Type:      "level_up",
			Message:   fmt.Sprintf("Reached level %d", newLevel),
			Data: map[string]interface{}{
				"new_level": newLevel,
				"old_level": account.Level,
			},
		}
		if err := s.milestoneRepo.RecordActivity(ctx, levelActivity); err != nil {
			logger.Log.WithError(err).Warn("Failed to record level up activity")
		}
	}

	return nil
}

// activityMessage renders the feed line for a recorded action.
func activityMessage(actionType string) string {
	switch actionType {
	case "workout":
		return "Logged a workout"
	case "session":
		return "Completed a training session"
	case "post_created":
		return "Shared a post"
	case "connection_made":
		return "Made a new connection"
	case "challenge_joined":
		return "Joined a challenge"
	case "challenge_completed":
		return "Completed a challenge"
	}
	return "Completed a " + strings.ReplaceAll(actionType, "_", " ")
}

// GetAchievements returns the catalog merged with the viewer's progress.
// Unlocked achievements come first, the rest follow by progress.
func (s *MilestoneService) GetAchievements(ctx context.Context, accountID primitive.ObjectID, category string, unlockedOnly bool) ([]models.AchievementView, error) {
	achievements, err := s.milestoneRepo.GetAchievements(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.milestoneRepo.GetProgressByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	byAchievement := make(map[primitive.ObjectID]models.AchievementProgress, len(rows))
	for _, row := range rows {
		byAchievement[row.AchievementID] = row
	}

	views := make([]models.AchievementView, 0, len(achievements))
	for _, a := range achievements {
		if category != "" && a.Category != category {
			continue
		}
		view := models.AchievementView{
			ID:           a.ID,
			Title:        a.Title,
			Description:  a.Description,
			Category:     a.Category,
			Icon:         a.Icon,
			Requirements: a.Requirements,
			Points:       a.Points,
			MaxProgress:  a.Requirements.TargetValue,
		}
		if row, ok := byAchievement[a.ID]; ok {
			view.IsUnlocked = row.IsUnlocked
			view.Progress = row.Progress
			view.UnlockedAt = row.UnlockedAt
		}
		view.ProgressPercentage = progressPercentage(view.Progress, view.MaxProgress)
		if unlockedOnly && !view.IsUnlocked {
			continue
		}
		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].IsUnlocked != views[j].IsUnlocked {
			return views[i].IsUnlocked
		}
		return views[i].ProgressPercentage > views[j].ProgressPercentage
	})

	return views, nil
}

// progressPercentage is clamped to 100 since progress may legally overshoot
// the target before the unlock flag lands.
func progressPercentage(progress, target int) float64 {
	if target <= 0 {
		return 0
	}
	pct := float64(progress) / float64(target) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// GetChallenges returns every challenge merged with the viewer's
// participation state.
func (s *MilestoneService) GetChallenges(ctx context.Context, accountID primitive.ObjectID, category, status string, joinedOnly bool) ([]models.ChallengeView, error) {
	challenges, err := s.milestoneRepo.GetChallenges(ctx)
	if err != nil {
		return nil, err
	}

	participations, err := s.milestoneRepo.GetParticipationsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	byChallenge := make(map[primitive.ObjectID]models.ChallengeParticipation, len(participations))
	for _, p := range participations {
		byChallenge[p.ChallengeID] = p
	}

	now := time.Now()
	views := make([]models.ChallengeView, 0, len(challenges))
	for i := range challenges {
		if category != "" && challenges[i].Category != category {
			continue
		}
		view := s.challengeView(&challenges[i], byChallenge, now)
		if status != "" && view.Status != status {
			continue
		}
		if joinedOnly && !view.IsJoined {
			continue
		}
		views = append(views, view)
	}

	// Active challenges first, then upcoming, then completed; endDate breaks
	// ties within a group.
	order := map[string]int{
		models.ChallengeActive:    0,
		models.ChallengeUpcoming:  1,
		models.ChallengeCompleted: 2,
	}
	sort.SliceStable(views, func(i, j int) bool {
		if order[views[i].Status] != order[views[j].Status] {
			return order[views[i].Status] < order[views[j].Status]
		}
		return views[i].EndDate.Before(views[j].EndDate)
	})

	return views, nil
}

// GetChallenge returns one challenge merged with the viewer's participation.
func (s *MilestoneService) GetChallenge(ctx context.Context, challengeID, accountID primitive.ObjectID) (*models.ChallengeView, error) {
	challenge, err := s.milestoneRepo.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	byChallenge := map[primitive.ObjectID]models.ChallengeParticipation{}
	participationID := challengeID.Hex() + "_" + accountID.Hex()
	if row, err := s.milestoneRepo.GetParticipation(ctx, participationID); err == nil {
		byChallenge[challengeID] = *row
	}

	view := s.challengeView(challenge, byChallenge, time.Now())
	return &view, nil
}

// challengeView renders one challenge for a viewer. The participation status
// overrides the date-derived one once the viewer has joined.
func (s *MilestoneService) challengeView(c *models.Challenge, participations map[primitive.ObjectID]models.ChallengeParticipation, now time.Time) models.ChallengeView {
	view := models.ChallengeView{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		Category:     c.Category,
		Icon:         c.Icon,
		Requirements: c.Requirements,
		Points:       c.Points,
		Status:       c.StatusAt(now),
		MaxProgress:  c.Requirements.TargetValue,
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		Participants: c.ParticipantCount,
		CreatedBy:    c.CreatedBy,
	}

	if row, ok := participations[c.ID]; ok {
		view.IsJoined = true
		view.Progress = row.Progress
		if row.Status != "" {
			view.Status = row.Status
		}
	}
	view.ProgressPercentage = progressPercentage(view.Progress, view.MaxProgress)

	return view
}

// JoinChallenge enrolls the account. Joining twice returns the existing
// participation; ended challenges cannot be joined.
func (s *MilestoneService) JoinChallenge(ctx context.Context, challengeID, accountID primitive.ObjectID) (*models.ChallengeParticipation, error) {
	challenge, err := s.milestoneRepo.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("challenge not found: %v", err)
	}

	if challenge.StatusAt(time.Now()) == models.ChallengeCompleted {
		return nil, fmt.Errorf("challenge has already ended")
	}

	participationID := challengeID.Hex() + "_" + accountID.Hex()
	if existing, err := s.milestoneRepo.GetParticipation(ctx, participationID); err == nil {
		return existing, nil
	}

	account, err := s.accountRepo.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account not found: %v", err)
	}

	participation := &models.ChallengeParticipation{
		ID:          participationID,
		AccountID:   accountID,
		AccountName: account.DisplayName,
		PhotoURL:    account.PhotoURL,
		ChallengeID: challengeID,
		Progress:    0,
		Status:      models.ChallengeActive,
		JoinedAt:    time.Now(),
		LastUpdated: time.Now(),
	}

	if err := s.milestoneRepo.JoinChallenge(ctx, participation); err != nil {
		return nil, err
	}

	if err := s.RecordAction(ctx, accountID, "challenge_joined", map[string]interface{}{
		"challenge_id": challengeID.Hex(),
	}); err != nil {
		logger.Log.WithError(err).Warn("Failed to record challenge join action")
	}

	return participation, nil
}

// UpdateChallengeProgress sets the account's absolute progress. Completion is
// a one-way door: once completed, further updates keep the completed state
// and its reward.
func (s *MilestoneService) UpdateChallengeProgress(ctx context.Context, challengeID, accountID primitive.ObjectID, progress int, notes string) (*models.ChallengeParticipation, error) {
	if progress < 0 {
		return nil, fmt.Errorf("progress cannot be negative")
	}

	challenge, err := s.milestoneRepo.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("challenge not found: %v", err)
	}

	if challenge.StatusAt(time.Now()) != models.ChallengeActive {
		return nil, fmt.Errorf("challenge is not active")
	}

	participationID := challengeID.Hex() + "_" + accountID.Hex()
	row, err := s.milestoneRepo.GetParticipation(ctx, participationID)
	if err != nil {
		return nil, fmt.Errorf("not participating in this challenge")
	}

	// A completed participation keeps its state and reward.
	if row.Status == models.ChallengeCompleted {
		return row, nil
	}

	update := bson.M{"progress": progress}
	if notes != "" {
		update["notes"] = notes
	}

	completedNow := progress >= challenge.Requirements.TargetValue

	if completedNow {
		now := time.Now()
		update["status"] = models.ChallengeCompleted
		update["completed_at"] = now
		row.CompletedAt = &now
		row.Status = models.ChallengeCompleted
	}

	if err := s.milestoneRepo.UpdateParticipation(ctx, participationID, update); err != nil {
		return nil, err
	}
	row.Progress = progress
	if notes != "" {
		row.Notes = notes
	}

	if completedNow {
		account, err := s.accountRepo.GetAccountByID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to load account: %v", err)
		}
		if err := s.grantPoints(ctx, account, challenge.Points, 0); err != nil {
			return nil, err
		}

		s.notificationService.Notify(ctx, accountID, nil, "challenge_completed",
			fmt.Sprintf("You completed %q and earned %d points", challenge.Title, challenge.Points),
			map[string]interface{}{"challenge_id": challengeID.Hex()})

		if err := s.RecordAction(ctx, accountID, "challenge_completed", map[string]interface{}{
			"challenge_id": challengeID.Hex(),
		}); err != nil {
			logger.Log.WithError(err).Warn("Failed to record challenge completion action")
		}
	}

	return row, nil
}

// GetChallengeParticipants lists a challenge's participants ordered by
// progress.
func (s *MilestoneService) GetChallengeParticipants(ctx context.Context, challengeID primitive.ObjectID) ([]models.ChallengeParticipation, error) {
	return s.milestoneRepo.GetParticipantsByChallenge(ctx, challengeID)
}

// GetLeaderboard returns one page of the global ranking. Positions are
// absolute: the first entry of page 2 continues where page 1 stopped. The
// caller's own rank comes from the full scan regardless of the page.
func (s *MilestoneService) GetLeaderboard(ctx context.Context, callerID primitive.ObjectID, page, pageSize int) (*models.Leaderboard, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	accounts, err := s.accountRepo.GetRankedAccounts(ctx)
	if err != nil {
		return nil, err
	}

	myPosition := 0
	for i := range accounts {
		if accounts[i].ID == callerID {
			myPosition = i + 1
			break
		}
	}

	return &models.Leaderboard{
		Entries:    RankAccounts(accounts, page, pageSize),
		MyPosition: myPosition,
		Total:      len(accounts),
	}, nil
}

// RankAccounts assigns 1-based positions to an already sorted slice and cuts
// the requested page.
func RankAccounts(accounts []models.Account, page, pageSize int) []models.LeaderboardEntry {
	offset := (page - 1) * pageSize
	if offset >= len(accounts) {
		return []models.LeaderboardEntry{}
	}

	end := offset + pageSize
	if end > len(accounts) {
		end = len(accounts)
	}

	entries := make([]models.LeaderboardEntry, 0, end-offset)
	for i := offset; i < end; i++ {
		a := accounts[i]
		entries = append(entries, models.LeaderboardEntry{
			AccountID:    a.ID,
			DisplayName:  a.DisplayName,
			PhotoURL:     a.PhotoURL,
			Level:        a.Level,
			Points:       a.ExperiencePoints,
			Achievements: a.AchievementCount,
			Position:     i + 1,
		})
	}

	return entries
}

// GetSummary assembles the gamification dashboard for one account.
func (s *MilestoneService) GetSummary(ctx context.Context, accountID primitive.ObjectID) (*models.MilestoneSummary, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	achievements, err := s.GetAchievements(ctx, accountID, "", true)
	if err != nil {
		return nil, err
	}
	if len(achievements) > 5 {
		achievements = achievements[:5]
	}

	challenges, err := s.GetChallenges(ctx, accountID, "", "", true)
	if err != nil {
		return nil, err
	}

	var active, completed []models.ChallengeView
	for _, c := range challenges {
		if c.Status == models.ChallengeCompleted {
			if len(completed) < 3 {
				completed = append(completed, c)
			}
		} else {
			active = append(active, c)
		}
	}

	activities, err := s.milestoneRepo.GetActivitiesByAccount(ctx, accountID, 10)
	if err != nil {
		return nil, err
	}

	next := PointsForNextLevel(account.Level)
	return &models.MilestoneSummary{
		Level:               account.Level,
		TotalPoints:         account.ExperiencePoints,
		PointsForNextLevel:  next,
		PointsProgress:      progressPercentage(account.ExperiencePoints, next),
		Achievements:        achievements,
		ChallengesActive:    active,
		ChallengesCompleted: completed,
		RecentActivity:      activities,
	}, nil
}
