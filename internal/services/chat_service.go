package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gymbuddy/gymbuddy-backend/internal/models"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatService handles business logic for conversations and messages.
type ChatService struct {
	conversationRepo    conversationStore
	messageRepo         messageStore
	accountRepo         accountStore
	notificationService *NotificationService
}

// NewChatService creates a new ChatService.
func NewChatService(conversationRepo conversationStore, messageRepo messageStore, accountRepo accountStore, notificationService *NotificationService) *ChatService {
	return &ChatService{
		conversationRepo:    conversationRepo,
		messageRepo:         messageRepo,
		accountRepo:         accountRepo,
		notificationService: notificationService,
	}
}

// GetOrCreateConversation returns the direct conversation between the caller
// and the other account, creating it on first contact.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, callerID, otherID primitive.ObjectID) (*models.Conversation, error) {
	if callerID == otherID {
		return nil, fmt.Errorf("cannot start a conversation with yourself")
	}

	if _, err := s.accountRepo.GetAccountByID(ctx, otherID); err != nil {
		return nil, fmt.Errorf("account not found: %v", err)
	}

	if existing, err := s.conversationRepo.FindDirectConversation(ctx, callerID, otherID); err == nil {
		return existing, nil
	}

	now := time.Now()
	conv := &models.Conversation{
		ParticipantIDs: []primitive.ObjectID{callerID, otherID},
		UnreadCount: map[string]int{
			callerID.Hex(): 0,
			otherID.Hex():  0,
		},
		IsArchived: map[string]bool{
			callerID.Hex(): false,
			otherID.Hex():  false,
		},
		IsPinned: map[string]bool{
			callerID.Hex(): false,
			otherID.Hex():  false,
		},
		LastRead: map[string]*time.Time{
			callerID.Hex(): &now,
			otherID.Hex():  nil,
		},
	}

	return s.conversationRepo.CreateConversation(ctx, conv)
}

// GetConversations lists the caller's conversations rendered for display,
// pinned threads first and most recent activity next.
func (s *ChatService) GetConversations(ctx context.Context, callerID primitive.ObjectID, includeArchived bool, skip, limit int) ([]models.ConversationView, error) {
	conversations, err := s.conversationRepo.GetConversationsByParticipant(ctx, callerID)
	if err != nil {
		return nil, err
	}

	peerIDs := make([]primitive.ObjectID, 0, len(conversations))
	for i := range conversations {
		if peer := conversations[i].OtherParticipant(callerID); peer != primitive.NilObjectID {
			peerIDs = append(peerIDs, peer)
		}
	}

	peers, err := s.accountRepo.GetAccountsByIDs(ctx, peerIDs)
	if err != nil {
		return nil, err
	}
	peersByID := make(map[primitive.ObjectID]models.Account, len(peers))
	for _, p := range peers {
		peersByID[p.ID] = p
	}

	views := make([]models.ConversationView, 0, len(conversations))
	for i := range conversations {
		conv := &conversations[i]
		if !includeArchived && conv.IsArchived[callerID.Hex()] {
			continue
		}
		views = append(views, s.conversationView(conv, callerID, peersByID))
	}

	sortConversationViews(views)

	if skip > 0 {
		if skip >= len(views) {
			return []models.ConversationView{}, nil
		}
		views = views[skip:]
	}
	if limit > 0 && limit < len(views) {
		views = views[:limit]
	}

	return views, nil
}

// conversationView renders one conversation from the caller's side.
func (s *ChatService) conversationView(conv *models.Conversation, callerID primitive.ObjectID, peers map[primitive.ObjectID]models.Account) models.ConversationView {
	view := models.ConversationView{
		ID:               conv.ID,
		LastMessage:      conv.LastMessage,
		LastMessageTime:  conv.LastMessageTime,
		IsOwnLastMessage: conv.LastMessageSenderID == callerID.Hex(),
		UnreadCount:      conv.UnreadCount[callerID.Hex()],
		IsArchived:       conv.IsArchived[callerID.Hex()],
		IsPinned:         conv.IsPinned[callerID.Hex()],
	}

	if peerID := conv.OtherParticipant(callerID); peerID != primitive.NilObjectID {
		view.AccountID = peerID
		if peer, ok := peers[peerID]; ok {
			view.AccountName = peer.DisplayName
			view.AccountPhoto = peer.PhotoURL
			view.IsOnline = peer.IsOnline
		}
	}

	return view
}

// sortConversationViews orders pinned threads first, then by most recent
// message.
func sortConversationViews(views []models.ConversationView) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].IsPinned != views[j].IsPinned {
			return views[i].IsPinned
		}
		ti, tj := views[i].LastMessageTime, views[j].LastMessageTime
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})
}

// getOwnConversation loads a conversation and enforces membership.
func (s *ChatService) getOwnConversation(ctx context.Context, convID, callerID primitive.ObjectID) (*models.Conversation, error) {
	conv, err := s.conversationRepo.GetConversationByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, fmt.Errorf("not a participant of this conversation")
	}
	return conv, nil
}

// GetConversation loads a conversation for one of its participants.
func (s *ChatService) GetConversation(ctx context.Context, convID, callerID primitive.ObjectID) (*models.Conversation, error) {
	return s.getOwnConversation(ctx, convID, callerID)
}

// UpdateConversation flips the caller's pinned or archived flag, or marks
// the thread read. Only the caller's side of the thread is touched.
func (s *ChatService) UpdateConversation(ctx context.Context, convID, callerID primitive.ObjectID, pinned, archived, markRead *bool) error {
	if _, err := s.getOwnConversation(ctx, convID, callerID); err != nil {
		return err
	}

	if markRead != nil && *markRead {
		if err := s.conversationRepo.ResetUnread(ctx, convID, callerID); err != nil {
			return err
		}
	}

	update := bson.M{}
	if pinned != nil {
		update["is_pinned."+callerID.Hex()] = *pinned
	}
	if archived != nil {
		update["is_archived."+callerID.Hex()] = *archived
	}
	if len(update) == 0 {
		if markRead != nil {
			return nil
		}
		return fmt.Errorf("nothing to update")
	}

	return s.conversationRepo.UpdateConversation(ctx, convID, update)
}

// DeleteConversation archives the thread for the caller. Once both parties
// have archived it, the conversation and its messages are removed for good.
func (s *ChatService) DeleteConversation(ctx context.Context, convID, callerID primitive.ObjectID) error {
	conv, err := s.getOwnConversation(ctx, convID, callerID)
	if err != nil {
		return err
	}

	other := conv.OtherParticipant(callerID)
	if other != primitive.NilObjectID && conv.IsArchived[other.Hex()] {
		if err := s.messageRepo.DeleteMessagesByConversation(ctx, convID); err != nil {
			return err
		}
		return s.conversationRepo.DeleteConversation(ctx, convID)
	}

	return s.conversationRepo.UpdateConversation(ctx, convID, bson.M{
		"is_archived." + callerID.Hex(): true,
	})
}

// SendMessage appends a message and refreshes the conversation preview. A
// send always unarchives the thread for both parties.
func (s *ChatService) SendMessage(ctx context.Context, convID, senderID primitive.ObjectID, content, contentType string) (*models.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}
	if contentType == "" {
		contentType = "text"
	}

	conv, err := s.getOwnConversation(ctx, convID, senderID)
	if err != nil {
		return nil, err
	}

	sender, err := s.accountRepo.GetAccountByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("sender not found: %v", err)
	}

	msg := &models.Message{
		ConversationID: convID,
		SenderID:       senderID,
		SenderName:     sender.DisplayName,
		SenderPhoto:    sender.PhotoURL,
		Content:        content,
		ContentType:    contentType,
	}

	created, err := s.messageRepo.CreateMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	recipient := conv.OtherParticipant(senderID)
	if err := s.conversationRepo.RecordMessage(ctx, convID, content, senderID, recipient, created.CreatedAt); err != nil {
		logger.Log.WithError(err).Error("Failed to refresh conversation after send")
	}

	s.notificationService.Notify(ctx, recipient, &senderID, "new_message",
		fmt.Sprintf("%s sent you a message", sender.DisplayName),
		map[string]interface{}{"conversation_id": convID.Hex()})

	return created, nil
}

// GetMessages returns a page of the conversation in ascending order. Reading
// a page marks the other party's messages in it as read and zeroes the
// caller's unread counter.
func (s *ChatService) GetMessages(ctx context.Context, convID, callerID primitive.ObjectID, limit int64, before time.Time) ([]models.Message, error) {
	if _, err := s.getOwnConversation(ctx, convID, callerID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	messages, err := s.messageRepo.GetMessages(ctx, convID, limit, before)
	if err != nil {
		return nil, err
	}

	var unreadIDs []primitive.ObjectID
	for i := range messages {
		if !messages[i].IsRead && messages[i].SenderID != callerID {
			unreadIDs = append(unreadIDs, messages[i].ID)
			messages[i].IsRead = true
		}
	}

	if len(unreadIDs) > 0 {
		// The message flags and the conversation counter live in separate
		// collections and are written separately, so a crash between the
		// two can leave the counter ahead of the flags until the next read.
		if err := s.messageRepo.MarkMessagesRead(ctx, unreadIDs); err != nil {
			logger.Log.WithError(err).Error("Failed to mark messages read")
		}
		if err := s.conversationRepo.ResetUnread(ctx, convID, callerID); err != nil {
			logger.Log.WithError(err).Error("Failed to reset unread counter")
		}
	}

	reverseMessages(messages)
	return messages, nil
}

// reverseMessages flips a newest-first page into chronological order.
func reverseMessages(messages []models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

// UpdateMessage lets the sender edit content and the other party mark the
// message read. Read is one way: a read message never reverts to unread.
func (s *ChatService) UpdateMessage(ctx context.Context, messageID, callerID primitive.ObjectID, content *string, read *bool) (*models.Message, error) {
	msg, err := s.messageRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if _, err := s.getOwnConversation(ctx, msg.ConversationID, callerID); err != nil {
		return nil, err
	}

	update := bson.M{}
	markedRead := false
	if content != nil {
		if msg.SenderID != callerID {
			return nil, fmt.Errorf("only the sender can edit a message")
		}
		update["content"] = *content
	}
	if read != nil {
		if msg.SenderID == callerID {
			return nil, fmt.Errorf("senders cannot change their own read flag")
		}
		if !*read {
			return nil, fmt.Errorf("messages cannot be marked unread")
		}
		if !msg.IsRead {
			update["is_read"] = true
			markedRead = true
		}
	}
	if len(update) == 0 && !markedRead {
		if read != nil {
			// Already read, nothing to change.
			return msg, nil
		}
		return nil, fmt.Errorf("nothing to update")
	}

	if err := s.messageRepo.UpdateMessage(ctx, messageID, update); err != nil {
		return nil, err
	}

	if markedRead {
		if err := s.conversationRepo.DecrementUnread(ctx, msg.ConversationID, callerID); err != nil {
			logger.Log.WithError(err).Warn("Failed to decrement unread counter")
		}
	}

	return s.messageRepo.GetMessageByID(ctx, messageID)
}
