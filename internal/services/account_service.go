package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gymbuddy/gymbuddy-backend/internal/config"
	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/internal/repository"
	"github.com/gymbuddy/gymbuddy-backend/pkg/email"
	jwtutil "github.com/gymbuddy/gymbuddy-backend/pkg/jwt"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// AccountService handles business logic for accounts and authentication.
type AccountService struct {
	accountRepo    *repository.AccountRepository
	postRepo       *repository.PostRepository
	connectionRepo *repository.ConnectionRepository
	milestoneRepo  *repository.MilestoneRepository
	cfg            *config.Config
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo *repository.AccountRepository, postRepo *repository.PostRepository, connectionRepo *repository.ConnectionRepository, milestoneRepo *repository.MilestoneRepository, cfg *config.Config) *AccountService {
	return &AccountService{
		accountRepo:    accountRepo,
		postRepo:       postRepo,
		connectionRepo: connectionRepo,
		milestoneRepo:  milestoneRepo,
		cfg:            cfg,
	}
}

// RegisterAccount creates a new account with a hashed password.
func (s *AccountService) RegisterAccount(ctx context.Context, acc *models.Account, password string) (*models.Account, error) {
	if acc.Email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	switch acc.Role {
	case "":
		acc.Role = models.RoleUser
	case models.RoleUser, models.RoleTrainer, models.RoleGymAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q", acc.Role)
	}

	if existing, _ := s.accountRepo.GetAccountByEmail(ctx, acc.Email); existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}
	acc.HashedPassword = string(hashed)
	acc.Level = 1
	acc.ExperiencePoints = 0
	acc.AchievementCount = 0

	created, err := s.accountRepo.CreateAccount(ctx, acc)
	if err != nil {
		return nil, err
	}

	go func() {
		body := fmt.Sprintf("Hi %s,\n\nWelcome to GymBuddy! Find a partner, join a challenge and start moving.", created.DisplayName)
		if err := email.SendEmail(created.Email, "Welcome to GymBuddy", body); err != nil {
			logger.Log.WithError(err).Warn("Failed to send welcome email")
		}
	}()

	return created, nil
}

// Authenticate verifies credentials and issues a signed token.
func (s *AccountService) Authenticate(ctx context.Context, emailAddr, password string) (*models.Account, string, error) {
	account, err := s.accountRepo.GetAccountByEmail(ctx, emailAddr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.HashedPassword), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	token, err := jwtutil.GenerateToken(account.ID.Hex(), account.Email, account.Role, s.cfg.JWTSecret, s.cfg.TokenExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}

	if err := s.accountRepo.SetOnlineStatus(ctx, account.ID, true); err != nil {
		logger.Log.WithError(err).Warn("Failed to set online status on login")
	}

	return account, token, nil
}

// GetAccount fetches a single account.
func (s *AccountService) GetAccount(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return s.accountRepo.GetAccountByID(ctx, id)
}

// GetPublicProfile fetches the externally visible profile of an account.
func (s *AccountService) GetPublicProfile(ctx context.Context, id primitive.ObjectID) (*models.PublicAccount, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := account.PublicProfile()
	return &profile, nil
}

// UpdateAccount applies the caller's profile changes. Only profile fields may
// change here; role, points and level are managed elsewhere.
func (s *AccountService) UpdateAccount(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Account, error) {
	allowed := map[string]bool{
		"display_name": true,
		"photo_url":    true,
		"status":       true,
		"interests":    true,
		"bio":          true,
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

// SetOnlineStatus flips the account's online flag and refreshes last_active.
func (s *AccountService) SetOnlineStatus(ctx context.Context, id primitive.ObjectID, online bool) error {
	return s.accountRepo.SetOnlineStatus(ctx, id, online)
}

// GetActiveAccounts lists accounts active within the last window, mapped to
// public profiles.
func (s *AccountService) GetActiveAccounts(ctx context.Context, window time.Duration, limit int64) ([]models.PublicAccount, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	accounts, err := s.accountRepo.GetActiveAccounts(ctx, time.Now().Add(-window), limit)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.PublicAccount, 0, len(accounts))
	for _, account := range accounts {
		profiles = append(profiles, account.PublicProfile())
	}

	return profiles, nil
}

// SearchAccounts finds accounts by display name or email.
func (s *AccountService) SearchAccounts(ctx context.Context, query, role string, limit int64) ([]models.PublicAccount, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	accounts, err := s.accountRepo.SearchAccounts(ctx, query, role, limit)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.PublicAccount, 0, len(accounts))
	for _, account := range accounts {
		profiles = append(profiles, account.PublicProfile())
	}

	return profiles, nil
}

// GetAccountStats assembles the derived counters block for a profile page.
func (s *AccountService) GetAccountStats(ctx context.Context, id primitive.ObjectID) (*models.AccountStats, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.CountPostsByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %v", err)
	}

	connections, err := s.connectionRepo.GetConnectionsByAccount(ctx, id, models.ConnectionAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connections: %v", err)
	}

	workouts, err := s.milestoneRepo.CountActivities(ctx, id, "workout")
	if err != nil {
		return nil, fmt.Errorf("failed to count workouts: %v", err)
	}

	return &models.AccountStats{
		Posts:        int(posts),
		Connections:  len(connections),
		Workouts:     int(workouts),
		Level:        account.Level,
		Achievements: account.AchievementCount,
	}, nil
}
