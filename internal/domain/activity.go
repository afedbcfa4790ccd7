package domain

import (
	"encoding/json"
	"time"
)

// Activity types used by the platform.
const (
	ActivityMessage            = "message"
	ActivityConversationUpdate = "conversationUpdate"
	ActivityTrace              = "trace"
)

// Text formats for outbound message activities.
const (
	TextFormatMarkdown = "markdown"
	TextFormatXML      = "xml"
)

// ConversationPersonal marks a one-to-one conversation.
const ConversationPersonal = "personal"

// CardContentType is the attachment content type for adaptive card payloads.
const CardContentType = "application/vnd.microsoft.card.adaptive"

// ChannelAccount identifies a user or bot account on the platform.
type ChannelAccount struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// ConversationAccount identifies a conversation on the platform.
type ConversationAccount struct {
	ID               string `json:"id,omitempty"`
	Name             string `json:"name,omitempty"`
	ConversationType string `json:"conversationType,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
	IsGroup          bool   `json:"isGroup,omitempty"`
}

// Entity is an activity entity. Mention entities carry the mentioned account
// and the literal markup text that appeared in the message body.
type Entity struct {
	Type      string          `json:"type,omitempty"`
	Mentioned *ChannelAccount `json:"mentioned,omitempty"`
	Text      string          `json:"text,omitempty"`
}

// Attachment is a structured payload attached to an activity.
type Attachment struct {
	ContentType string          `json:"contentType,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
}

// Activity is the platform's unit of communication, inbound and outbound.
type Activity struct {
	Type         string              `json:"type,omitempty"`
	ID           string              `json:"id,omitempty"`
	Timestamp    time.Time           `json:"timestamp,omitempty"`
	ServiceURL   string              `json:"serviceUrl,omitempty"`
	ChannelID    string              `json:"channelId,omitempty"`
	From         ChannelAccount      `json:"from,omitempty"`
	Recipient    ChannelAccount      `json:"recipient,omitempty"`
	Conversation ConversationAccount `json:"conversation,omitempty"`
	Text         string              `json:"text,omitempty"`
	TextFormat   string              `json:"textFormat,omitempty"`
	Attachments  []Attachment        `json:"attachments,omitempty"`
	Entities     []Entity            `json:"entities,omitempty"`
	ChannelData  json.RawMessage     `json:"channelData,omitempty"`
	ReplyToID    string              `json:"replyToId,omitempty"`
	Value        json.RawMessage     `json:"value,omitempty"`
	Label        string              `json:"label,omitempty"`
	MembersAdded []ChannelAccount    `json:"membersAdded,omitempty"`
}

// MentionsAccount reports whether the activity carries an explicit mention
// entity addressed to the given account id.
func (a *Activity) MentionsAccount(accountID string) bool {
	if accountID == "" {
		return false
	}
	for _, e := range a.Entities {
		if e.Type == "mention" && e.Mentioned != nil && e.Mentioned.ID == accountID {
			return true
		}
	}
	return false
}
