package services

import (
	"context"
	"fmt"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Connection status checks relative to a caller.
const (
	StatusNone            = "none"
	StatusPendingSent     = "pending_sent"
	StatusPendingReceived = "pending_received"
)

// ConnectionService handles business logic for the social graph.
type ConnectionService struct {
	connectionRepo      connectionStore
	accountRepo         accountStore
	notificationService *NotificationService
	milestoneService    *MilestoneService
}

// NewConnectionService creates a new ConnectionService.
func NewConnectionService(connectionRepo connectionStore, accountRepo accountStore, notificationService *NotificationService, milestoneService *MilestoneService) *ConnectionService {
	return &ConnectionService{
		connectionRepo:      connectionRepo,
		accountRepo:         accountRepo,
		notificationService: notificationService,
		milestoneService:    milestoneService,
	}
}

// SendRequest creates a pending connection between the caller and the other
// account. If a connection already exists it is returned unchanged, unless
// one side blocked the other, which refuses the request.
func (s *ConnectionService) SendRequest(ctx context.Context, requesterID, recipientID primitive.ObjectID, message string) (*models.Connection, error) {
	if requesterID == recipientID {
		return nil, fmt.Errorf("cannot connect with yourself")
	}

	requester, err := s.accountRepo.GetAccountByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("requester not found: %v", err)
	}
	if _, err := s.accountRepo.GetAccountByID(ctx, recipientID); err != nil {
		return nil, fmt.Errorf("account not found: %v", err)
	}

	if existing, err := s.connectionRepo.FindConnectionBetween(ctx, requesterID, recipientID); err == nil {
		if existing.Status == models.ConnectionBlocked {
			return nil, fmt.Errorf("connection is blocked")
		}
		return existing, nil
	}

	conn := &models.Connection{
		ParticipantIDs: []primitive.ObjectID{requesterID, recipientID},
		RequesterID:    requesterID,
		RecipientID:    recipientID,
		Status:         models.ConnectionPending,
		Message:        message,
	}

	created, err := s.connectionRepo.CreateConnection(ctx, conn)
	if err != nil {
		return nil, err
	}

	s.notificationService.Notify(ctx, recipientID, &requesterID, "connection_request",
		fmt.Sprintf("%s wants to connect with you", requester.DisplayName),
		map[string]interface{}{"connection_id": created.ID.Hex()})

	return created, nil
}

// ValidTransition reports whether a pending connection may move to the given
// status. Accepted, rejected and blocked are terminal.
func ValidTransition(from, to string) bool {
	if from != models.ConnectionPending {
		return false
	}
	switch to {
	case models.ConnectionAccepted, models.ConnectionRejected, models.ConnectionBlocked:
		return true
	}
	return false
}

// RespondToRequest moves a pending request to accepted, rejected or blocked.
// Only the recipient of the request may respond.
func (s *ConnectionService) RespondToRequest(ctx context.Context, connectionID, callerID primitive.ObjectID, status string) (*models.Connection, error) {
	conn, err := s.connectionRepo.GetConnectionByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("connection not found: %v", err)
	}

	if conn.RecipientID != callerID {
		return nil, fmt.Errorf("only the recipient can respond to a request")
	}
	if !ValidTransition(conn.Status, status) {
		return nil, fmt.Errorf("cannot move connection from %s to %s", conn.Status, status)
	}

	if err := s.connectionRepo.UpdateConnectionStatus(ctx, connectionID, status); err != nil {
		return nil, err
	}
	conn.Status = status

	if status == models.ConnectionAccepted {
		if caller, err := s.accountRepo.GetAccountByID(ctx, callerID); err == nil {
			s.notificationService.Notify(ctx, conn.RequesterID, &callerID, "connection_accepted",
				fmt.Sprintf("%s accepted your connection request", caller.DisplayName),
				map[string]interface{}{"connection_id": connectionID.Hex()})
		}

		for _, id := range conn.ParticipantIDs {
			if err := s.milestoneService.RecordAction(ctx, id, "connection_made", map[string]interface{}{
				"connection_id": connectionID.Hex(),
			}); err != nil {
				logger.Log.WithError(err).Warn("Failed to record connection action")
			}
		}
	}

	return conn, nil
}

// GetConnections lists the caller's connections rendered for display,
// optionally restricted to a status.
func (s *ConnectionService) GetConnections(ctx context.Context, callerID primitive.ObjectID, status string) ([]models.ConnectionView, error) {
	connections, err := s.connectionRepo.GetConnectionsByAccount(ctx, callerID, status)
	if err != nil {
		return nil, err
	}
	return s.renderViews(ctx, connections, callerID)
}

// GetPendingRequests lists requests waiting on the caller's answer.
func (s *ConnectionService) GetPendingRequests(ctx context.Context, callerID primitive.ObjectID) ([]models.ConnectionView, error) {
	connections, err := s.connectionRepo.GetPendingRequests(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.renderViews(ctx, connections, callerID)
}

// renderViews joins connection rows with the counterpart profiles.
func (s *ConnectionService) renderViews(ctx context.Context, connections []models.Connection, callerID primitive.ObjectID) ([]models.ConnectionView, error) {
	otherIDs := make([]primitive.ObjectID, 0, len(connections))
	for i := range connections {
		otherIDs = append(otherIDs, connections[i].OtherParticipant(callerID))
	}

	accounts, err := s.accountRepo.GetAccountsByIDs(ctx, otherIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	views := make([]models.ConnectionView, 0, len(connections))
	for i := range connections {
		conn := &connections[i]
		other := conn.OtherParticipant(callerID)
		view := models.ConnectionView{
			ID:          conn.ID,
			AccountID:   other,
			Status:      conn.Status,
			IsRequester: conn.RequesterID == callerID,
			Message:     conn.Message,
			CreatedAt:   conn.CreatedAt,
		}
		if account, ok := byID[other]; ok {
			view.DisplayName = account.DisplayName
			view.PhotoURL = account.PhotoURL
		}
		views = append(views, view)
	}

	return views, nil
}

// CheckStatus reports the relationship between the caller and another
// account from the caller's side.
func (s *ConnectionService) CheckStatus(ctx context.Context, callerID, otherID primitive.ObjectID) (string, error) {
	conn, err := s.connectionRepo.FindConnectionBetween(ctx, callerID, otherID)
	if err != nil {
		return StatusNone, nil
	}

	if conn.Status == models.ConnectionPending {
		if conn.RequesterID == callerID {
			return StatusPendingSent, nil
		}
		return StatusPendingReceived, nil
	}

	return conn.Status, nil
}

// RemoveConnection deletes the connection between the caller and the other
// account.
func (s *ConnectionService) RemoveConnection(ctx context.Context, callerID, otherID primitive.ObjectID) error {
	conn, err := s.connectionRepo.FindConnectionBetween(ctx, callerID, otherID)
	if err != nil {
		return fmt.Errorf("connection not found: %v", err)
	}
	return s.connectionRepo.DeleteConnection(ctx, conn.ID)
}

// GetConnectedIDs returns the ids of every account the caller is connected
// with. The feed uses this for its friends branch.
func (s *ConnectionService) GetConnectedIDs(ctx context.Context, callerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	connections, err := s.connectionRepo.GetConnectionsByAccount(ctx, callerID, models.ConnectionAccepted)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(connections))
	for i := range connections {
		ids = append(ids, connections[i].OtherParticipant(callerID))
	}
	return ids, nil
}

// GetSuggestions proposes accounts the caller is not yet connected with,
// favoring the same gym and shared interests.
func (s *ConnectionService) GetSuggestions(ctx context.Context, callerID primitive.ObjectID, limit int64) ([]models.PublicAccount, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	caller, err := s.accountRepo.GetAccountByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	connections, err := s.connectionRepo.GetConnectionsByAccount(ctx, callerID, "")
	if err != nil {
		return nil, err
	}
	known := map[primitive.ObjectID]bool{callerID: true}
	for i := range connections {
		known[connections[i].OtherParticipant(callerID)] = true
	}

	candidates, err := s.accountRepo.SearchAccounts(ctx, "", models.RoleUser, 200)
	if err != nil {
		return nil, err
	}

	interests := map[string]bool{}
	for _, interest := range caller.Interests {
		interests[interest] = true
	}

	var suggestions []models.PublicAccount
	for _, candidate := range candidates {
		if known[candidate.ID] {
			continue
		}

		sameGym := caller.GymID != nil && candidate.GymID != nil && *caller.GymID == *candidate.GymID
		shared := false
		for _, interest := range candidate.Interests {
			if interests[interest] {
				shared = true
				break
			}
		}
		if !sameGym && !shared {
			continue
		}

		suggestions = append(suggestions, candidate.PublicProfile())
		if int64(len(suggestions)) >= limit {
			break
		}
	}

	return suggestions, nil
}
