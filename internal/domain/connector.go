package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// SendResult is the platform's acknowledgement of a delivered activity.
type SendResult struct {
	ID string `json:"id,omitempty"`
}

// ConversationParams addresses a brand-new proactive conversation.
type ConversationParams struct {
	IsGroup     bool            `json:"isGroup,omitempty"`
	Bot         ChannelAccount  `json:"bot,omitempty"`
	Members     []ChannelAccount `json:"members,omitempty"`
	TenantID    string          `json:"tenantId,omitempty"`
	ChannelData json.RawMessage `json:"channelData,omitempty"`
	Activity    *Activity       `json:"activity,omitempty"`
}

// Connector is the platform client boundary. Implementations own transport,
// authentication and serialization; callers own routing and classification.
type Connector interface {
	// CreateConversation starts a proactive conversation and returns a
	// reference addressing it.
	CreateConversation(ctx context.Context, serviceURL string, params ConversationParams) (ConversationReference, error)

	// SendToConversation pushes an activity into an existing conversation.
	SendToConversation(ctx context.Context, ref ConversationReference, activity *Activity) (SendResult, error)

	// ReplyToActivity sends an activity as a reply to a specific activity
	// within a conversation.
	ReplyToActivity(ctx context.Context, ref ConversationReference, replyToID string, activity *Activity) (SendResult, error)
}

// StatusError is a platform rejection carrying the HTTP status code, so
// callers can distinguish credential failures from transient ones.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("platform returned status %d", e.Status)
	}
	return fmt.Sprintf("platform returned status %d: %s", e.Status, e.Body)
}

// TokenProvider supplies a bearer token for platform calls. Token lifecycle
// is owned by the caller's environment, not this layer.
type TokenProvider func(ctx context.Context) (string, error)
