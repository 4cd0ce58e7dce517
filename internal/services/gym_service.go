package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/internal/repository"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GymService handles business logic for gyms, rosters and check-ins.
type GymService struct {
	gymRepo             *repository.GymRepository
	accountRepo         *repository.AccountRepository
	milestoneService    *MilestoneService
	notificationService *NotificationService
}

// NewGymService creates a new GymService.
func NewGymService(gymRepo *repository.GymRepository, accountRepo *repository.AccountRepository, milestoneService *MilestoneService, notificationService *NotificationService) *GymService {
	return &GymService{
		gymRepo:             gymRepo,
		accountRepo:         accountRepo,
		milestoneService:    milestoneService,
		notificationService: notificationService,
	}
}

// CreateGym registers a new gym under the calling admin. An admin manages at
// most one gym.
func (s *GymService) CreateGym(ctx context.Context, adminID primitive.ObjectID, gym *models.Gym) (*models.Gym, error) {
	if gym.Name == "" {
		return nil, fmt.Errorf("gym name is required")
	}

	if existing, err := s.gymRepo.GetGymByAdmin(ctx, adminID); err == nil {
		return nil, fmt.Errorf("admin already manages gym %s", existing.ID.Hex())
	}

	gym.AdminID = adminID
	created, err := s.gymRepo.CreateGym(ctx, gym)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.UpdateAccount(ctx, adminID, bson.M{"gym_id": created.ID}); err != nil {
		logger.Log.WithError(err).Warn("Failed to attach gym to admin account")
	}

	return created, nil
}

// GetGym fetches a single gym.
func (s *GymService) GetGym(ctx context.Context, id primitive.ObjectID) (*models.Gym, error) {
	return s.gymRepo.GetGymByID(ctx, id)
}

// GetGymByAdmin fetches the gym the calling admin manages.
func (s *GymService) GetGymByAdmin(ctx context.Context, adminID primitive.ObjectID) (*models.Gym, error) {
	gym, err := s.gymRepo.GetGymByAdmin(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("no gym for this admin: %v", err)
	}
	return gym, nil
}

// ListGyms searches the gym directory.
func (s *GymService) ListGyms(ctx context.Context, query string, limit int64) ([]models.Gym, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.gymRepo.GetGyms(ctx, query, limit)
}

// UpdateGym applies the admin's edits to their gym.
func (s *GymService) UpdateGym(ctx context.Context, gymID, adminID primitive.ObjectID, updates map[string]interface{}) (*models.Gym, error) {
	gym, err := s.gymRepo.GetGymByID(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if gym.AdminID != adminID {
		return nil, fmt.Errorf("only the gym admin can update the gym")
	}

	allowed := map[string]bool{
		"name":          true,
		"location":      true,
		"description":   true,
		"facilities":    true,
		"hours":         true,
		"contact_email": true,
		"contact_phone": true,
		"photos":        true,
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

	if err := s.gymRepo.UpdateGym(ctx, gymID, update); err != nil {
		return nil, err
	}
	return s.gymRepo.GetGymByID(ctx, gymID)
}

// AddMember enrolls an account into the gym. Adding an already enrolled
// account is a no-op.
func (s *GymService) AddMember(ctx context.Context, gymID, accountID primitive.ObjectID, membershipType string) (*models.GymMember, error) {
	gym, err := s.gymRepo.GetGymByID(ctx, gymID)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account not found: %v", err)
	}

	memberID := gymID.Hex() + "_" + accountID.Hex()
	if existing, err := s.gymRepo.GetMember(ctx, memberID); err == nil {
		return existing, nil
	}

	if membershipType == "" {
		membershipType = "standard"
	}
	member := &models.GymMember{
		ID:             memberID,
		AccountID:      accountID,
		GymID:          gymID,
		MembershipType: membershipType,
	}
	if err := s.gymRepo.CreateMember(ctx, member); err != nil {
		return nil, err
	}

	if err := s.accountRepo.UpdateAccount(ctx, accountID, bson.M{"gym_id": gymID}); err != nil {
		logger.Log.WithError(err).Warn("Failed to attach gym to account")
	}

	members, trainers := 1, 0
	if account.Role == models.RoleTrainer {
		members, trainers = 0, 1
	}
	if err := s.gymRepo.AdjustCounts(ctx, gymID, members, trainers); err != nil {
		logger.Log.WithError(err).Warn("Failed to adjust gym counters")
	}

	s.notificationService.Notify(ctx, accountID, nil, "gym_joined",
		fmt.Sprintf("You are now a member of %s", gym.Name),
		map[string]interface{}{"gym_id": gymID.Hex()})

	return member, nil
}

// RemoveMember takes an account off the gym roster.
func (s *GymService) RemoveMember(ctx context.Context, gymID, accountID primitive.ObjectID) error {
	account, err := s.accountRepo.GetAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("account not found: %v", err)
	}

	memberID := gymID.Hex() + "_" + accountID.Hex()
	removed, err := s.gymRepo.DeleteMember(ctx, memberID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("account is not a member of this gym")
	}

	if err := s.accountRepo.UpdateAccount(ctx, accountID, bson.M{"gym_id": nil}); err != nil {
		logger.Log.WithError(err).Warn("Failed to detach gym from account")
	}

	members, trainers := -1, 0
	if account.Role == models.RoleTrainer {
		members, trainers = 0, -1
	}
	if err := s.gymRepo.AdjustCounts(ctx, gymID, members, trainers); err != nil {
		logger.Log.WithError(err).Warn("Failed to adjust gym counters")
	}

	return nil
}

// GetMembers lists the gym roster with display names joined in, optionally
// filtered by a name query.
func (s *GymService) GetMembers(ctx context.Context, gymID primitive.ObjectID, query string) ([]models.GymMember, error) {
	members, err := s.gymRepo.GetMembersByGym(ctx, gymID)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(members))
	for i := range members {
		ids = append(ids, members[i].AccountID)
	}
	accounts, err := s.accountRepo.GetAccountsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	result := make([]models.GymMember, 0, len(members))
	for _, member := range members {
		account, ok := byID[member.AccountID]
		if !ok {
			continue
		}
		if query != "" && !containsFold(account.DisplayName, query) {
			continue
		}
		member.DisplayName = account.DisplayName
		member.PhotoURL = account.PhotoURL
		result = append(result, member)
	}

	return result, nil
}

// GetTrainers lists the trainers attached to a gym.
func (s *GymService) GetTrainers(ctx context.Context, gymID primitive.ObjectID) ([]models.PublicAccount, error) {
	trainers, err := s.accountRepo.GetAccountsByGym(ctx, gymID, models.RoleTrainer)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.PublicAccount, 0, len(trainers))
	for _, trainer := range trainers {
		profiles = append(profiles, trainer.PublicProfile())
	}
	return profiles, nil
}

// CheckIn records a gym visit and feeds the workout action into the
// gamification engine.
func (s *GymService) CheckIn(ctx context.Context, gymID, accountID primitive.ObjectID, facilities []string) (*models.Checkin, error) {
	memberID := gymID.Hex() + "_" + accountID.Hex()
	if _, err := s.gymRepo.GetMember(ctx, memberID); err != nil {
		return nil, fmt.Errorf("account is not a member of this gym")
	}

	now := time.Now()
	checkin := &models.Checkin{
		AccountID:  accountID,
		GymID:      gymID,
		Date:       now.Format("2006-01-02"),
		Hour:       now.Hour(),
		Facilities: facilities,
	}
	if err := s.gymRepo.CreateCheckin(ctx, checkin); err != nil {
		return nil, err
	}

	if err := s.milestoneService.RecordAction(ctx, accountID, "workout", map[string]interface{}{
		"gym_id": gymID.Hex(),
	}); err != nil {
		logger.Log.WithError(err).Warn("Failed to record workout action")
	}

	return checkin, nil
}

// GetStats aggregates a gym's activity over the last 30 days.
func (s *GymService) GetStats(ctx context.Context, gymID primitive.ObjectID) (*models.GymStats, error) {
	gym, err := s.gymRepo.GetGymByID(ctx, gymID)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -30)
	checkins, err := s.gymRepo.GetCheckinsByGym(ctx, gymID, since)
	if err != nil {
		return nil, err
	}

	stats := &models.GymStats{
		MemberCount:       gym.MemberCount,
		TrainerCount:      gym.TrainerCount,
		TotalCheckins:     len(checkins),
		PopularHours:      map[int]int{},
		PopularFacilities: map[string]int{},
	}

	today := time.Now().Format("2006-01-02")
	active := map[primitive.ObjectID]bool{}
	activeToday := map[primitive.ObjectID]bool{}
	for _, checkin := range checkins {
		active[checkin.AccountID] = true
		if checkin.Date == today {
			activeToday[checkin.AccountID] = true
		}
		stats.PopularHours[checkin.Hour]++
		for _, facility := range checkin.Facilities {
			stats.PopularFacilities[facility]++
		}
	}
	stats.ActiveMembers = len(active)
	stats.ActiveToday = len(activeToday)

	return stats, nil
}

// containsFold is a case-insensitive substring check for roster filtering.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
