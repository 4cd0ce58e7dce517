package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/internal/repository"
	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// ChallengeNotifier reminds participants about challenges ending soon.
type ChallengeNotifier struct {
	MilestoneRepo       *repository.MilestoneRepository
	NotificationService *services.NotificationService
}

// NewChallengeNotifier creates a new instance of ChallengeNotifier
func NewChallengeNotifier(milestoneRepo *repository.MilestoneRepository, notificationService *services.NotificationService) *ChallengeNotifier {
	return &ChallengeNotifier{
		MilestoneRepo:       milestoneRepo,
		NotificationService: notificationService,
	}
}

// RunDailyScan notifies every active participant of a challenge that ends
// within the next 24 hours.
func (n *ChallengeNotifier) RunDailyScan(ctx context.Context) error {
	deadline := time.Now().Add(24 * time.Hour)
	challenges, err := n.MilestoneRepo.GetChallengesEndingBefore(ctx, deadline)
	if err != nil {
		return fmt.Errorf("failed to fetch ending challenges: %v", err)
	}

	notified := 0
	for i := range challenges {
		challenge := &challenges[i]
		participants, err := n.MilestoneRepo.GetParticipantsByChallenge(ctx, challenge.ID)
		if err != nil {
			logrus.WithError(err).WithField("challenge_id", challenge.ID.Hex()).Error("Failed to fetch participants")
			continue
		}

		for _, p := range participants {
			if p.Status == models.ChallengeCompleted {
				continue
			}

			n.NotificationService.Notify(ctx, p.AccountID, nil, "challenge_ending",
				fmt.Sprintf("%q ends %s, you are at %d of %d",
					challenge.Title,
					challenge.EndDate.Format("Jan 2 15:04"),
					p.Progress,
					challenge.Requirements.TargetValue),
				map[string]interface{}{"challenge_id": challenge.ID.Hex()})
			notified++
		}
	}

	logrus.WithFields(logrus.Fields{
		"challenges": len(challenges),
		"notified":   notified,
	}).Info("Challenge deadline scan completed")
	return nil
}
