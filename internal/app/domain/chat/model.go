// Package chat defines conversation and message row shapes.
package chat

import "time"

// Conversation is a direct or group message thread.
type Conversation struct {
	ID           string
	Name         string
	IsGroup      bool
	Participants []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message is one message in a conversation.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	CreatedAt      time.Time
}
