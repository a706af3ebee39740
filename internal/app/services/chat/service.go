// Package chat implements conversations, messaging and call signalling
// events.
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	svcerr "github.com/Integral-ind/integral-backend/internal/errors"

	chatdom "github.com/Integral-ind/integral-backend/internal/app/domain/chat"
	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

// previewLen caps the message excerpt shown in notifications.
const previewLen = 80

// Notifier receives domain events for fan-out.
type Notifier interface {
	Notify(ctx context.Context, ev notification.Event) (notification.Receipt, error)
}

// Service manages conversations and messages.
type Service struct {
	store    storage.ChatStore
	notifier Notifier
	log      *logger.Logger
}

// New creates a chat Service.
func New(store storage.ChatStore, notifier Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("chat")
	}
	return &Service{store: store, notifier: notifier, log: log}
}

// CreateConversation starts a thread. The creator must be a participant
// and at least two distinct participants are required.
func (s *Service) CreateConversation(ctx context.Context, creatorID string, c chatdom.Conversation) (chatdom.Conversation, error) {
	distinct := map[string]bool{}
	for _, p := range c.Participants {
		if p != "" {
			distinct[p] = true
		}
	}
	distinct[creatorID] = true
	if len(distinct) < 2 {
		return chatdom.Conversation{}, svcerr.BadRequest("a conversation needs at least two participants")
	}

	c.Participants = c.Participants[:0]
	for p := range distinct {
		c.Participants = append(c.Participants, p)
	}
	c.IsGroup = len(c.Participants) > 2
	if c.IsGroup && strings.TrimSpace(c.Name) == "" {
		return chatdom.Conversation{}, svcerr.BadRequest("group conversations need a name")
	}
	return s.store.CreateConversation(ctx, c)
}

// Get returns one conversation.
func (s *Service) Get(ctx context.Context, id string) (chatdom.Conversation, error) {
	return s.store.GetConversation(ctx, id)
}

// List returns the user's conversations.
func (s *Service) List(ctx context.Context, userID string) ([]chatdom.Conversation, error) {
	return s.store.ListConversations(ctx, userID)
}

// SendMessage stores the message and notifies the other participants with
// a preview.
func (s *Service) SendMessage(ctx context.Context, senderID, conversationID, content string) (chatdom.Message, error) {
	if strings.TrimSpace(content) == "" {
		return chatdom.Message{}, svcerr.BadRequest("message content is required")
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return chatdom.Message{}, err
	}
	if !participant(conv, senderID) {
		return chatdom.Message{}, svcerr.Forbidden("sender is not in this conversation")
	}

	msg, err := s.store.CreateMessage(ctx, chatdom.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	})
	if err != nil {
		return chatdom.Message{}, err
	}

	s.emit(ctx, notification.TypeChatMessage, senderID, conv.Participants, map[string]any{
		"conversation_id": conversationID,
		"message_id":      msg.ID,
		"preview":         preview(content),
	})
	return msg, nil
}

// Messages returns a page of a conversation's messages, newest first. The
// caller must be a participant.
func (s *Service) Messages(ctx context.Context, userID, conversationID string, limit, offset int) ([]chatdom.Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !participant(conv, userID) {
		return nil, svcerr.Forbidden("not in this conversation")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListMessages(ctx, conversationID, limit, offset)
}

// RingCall signals an incoming call to the other participants.
func (s *Service) RingCall(ctx context.Context, callerID, conversationID, callID string) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !participant(conv, callerID) {
		return svcerr.Forbidden("caller is not in this conversation")
	}
	s.emit(ctx, notification.TypeCallIncoming, callerID, conv.Participants, map[string]any{
		"conversation_id": conversationID,
		"call_id":         callID,
	})
	return nil
}

// MissCall records that calleeID did not pick up. Both ends of the call
// must belong to the conversation.
func (s *Service) MissCall(ctx context.Context, callerID, conversationID, callID, calleeID string) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !participant(conv, callerID) {
		return svcerr.Forbidden("caller is not in this conversation")
	}
	if !participant(conv, calleeID) {
		return svcerr.Forbidden("callee is not in this conversation")
	}
	s.emit(ctx, notification.TypeCallMissed, callerID, []string{calleeID}, map[string]any{
		"conversation_id": conversationID,
		"call_id":         callID,
	})
	return nil
}

func participant(c chatdom.Conversation, userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

func preview(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= previewLen {
		return content
	}
	return string(runes[:previewLen]) + "…"
}

func (s *Service) emit(ctx context.Context, typ notification.Type, actorID string, recipients []string, data map[string]any) {
	if s.notifier == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.WithError(err).Error("marshal event data")
		return
	}
	_, err = s.notifier.Notify(ctx, notification.Event{
		Type:       typ,
		ActorID:    actorID,
		Recipients: recipients,
		Data:       raw,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.WithError(err).WithField("type", string(typ)).Warn("notify failed")
	}
}
