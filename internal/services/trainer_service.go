package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainerService handles business logic for trainer profiles and
// availability.
type TrainerService struct {
	accountRepo    *repository.AccountRepository
	connectionRepo *repository.ConnectionRepository
	milestoneRepo  *repository.MilestoneRepository
}

// NewTrainerService creates a new TrainerService.
func NewTrainerService(accountRepo *repository.AccountRepository, connectionRepo *repository.ConnectionRepository, milestoneRepo *repository.MilestoneRepository) *TrainerService {
	return &TrainerService{
		accountRepo:    accountRepo,
		connectionRepo: connectionRepo,
		milestoneRepo:  milestoneRepo,
	}
}

// getTrainer loads an account and checks it is a trainer.
func (s *TrainerService) getTrainer(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Role != models.RoleTrainer {
		return nil, fmt.Errorf("account is not a trainer")
	}
	return account, nil
}

// GetTrainer fetches a trainer profile.
func (s *TrainerService) GetTrainer(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return s.getTrainer(ctx, id)
}

// ListTrainers returns every trainer, best rated first.
func (s *TrainerService) ListTrainers(ctx context.Context) ([]models.Account, error) {
	trainers, err := s.accountRepo.GetAccountsByRole(ctx, models.RoleTrainer)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(trainers, func(i, j int) bool {
		return trainers[i].Rating > trainers[j].Rating
	})
	return trainers, nil
}

// UpdateTrainerProfile applies the trainer's profile edits.
func (s *TrainerService) UpdateTrainerProfile(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Account, error) {
	if _, err := s.getTrainer(ctx, id); err != nil {
		return nil, err
	}

	allowed := map[string]bool{
		"display_name": true,
		"photo_url":    true,
		"bio":          true,
		"specialities": true,
		"status":       true,
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

	if err := s.accountRepo.UpdateAccount(ctx, id, update); err != nil {
		return nil, err
	}
	return s.accountRepo.GetAccountByID(ctx, id)
}

// AddAvailability appends a weekly session slot to the trainer's calendar.
func (s *TrainerService) AddAvailability(ctx context.Context, id primitive.ObjectID, dayOfWeek, startTime, endTime string) (*models.SessionSlot, error) {
	trainer, err := s.getTrainer(ctx, id)
	if err != nil {
		return nil, err
	}
	if dayOfWeek == "" || startTime == "" || endTime == "" {
		return nil, fmt.Errorf("day, start and end are required")
	}

	slot := models.SessionSlot{
		ID:        uuid.NewString(),
		DayOfWeek: dayOfWeek,
		StartTime: startTime,
		EndTime:   endTime,
		CreatedAt: time.Now(),
	}

	availability := append(trainer.Availability, slot)
	if err := s.accountRepo.UpdateAccount(ctx, id, bson.M{"availability": availability}); err != nil {
		return nil, err
	}

	return &slot, nil
}

// RemoveAvailability deletes one session slot by its id.
func (s *TrainerService) RemoveAvailability(ctx context.Context, id primitive.ObjectID, slotID string) error {
	trainer, err := s.getTrainer(ctx, id)
	if err != nil {
		return err
	}

	availability := make([]models.SessionSlot, 0, len(trainer.Availability))
	found := false
	for _, slot := range trainer.Availability {
		if slot.ID == slotID {
			found = true
			continue
		}
		availability = append(availability, slot)
	}
	if !found {
		return fmt.Errorf("slot not found")
	}

	return s.accountRepo.UpdateAccount(ctx, id, bson.M{"availability": availability})
}

// GetTrainerStats aggregates a trainer's activity: connected clients, logged
// sessions and the current rating.
func (s *TrainerService) GetTrainerStats(ctx context.Context, id primitive.ObjectID) (*models.TrainerStats, error) {
	trainer, err := s.getTrainer(ctx, id)
	if err != nil {
		return nil, err
	}

	clients, err := s.connectionRepo.GetConnectionsByAccount(ctx, id, models.ConnectionAccepted)
	if err != nil {
		return nil, err
	}

	sessions, err := s.milestoneRepo.CountActivities(ctx, id, "session")
	if err != nil {
		return nil, err
	}

	return &models.TrainerStats{
		Clients:  len(clients),
		Sessions: int(sessions),
		Rating:   trainer.Rating,
	}, nil
}
