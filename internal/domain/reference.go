package domain

// ConversationReference is a resumable handle for a previously observed
// conversation. It carries enough addressing to push a new activity into the
// conversation without a live inbound turn.
type ConversationReference struct {
	ActivityID   string              `json:"activityId,omitempty"`
	Bot          ChannelAccount      `json:"bot,omitempty"`
	User         ChannelAccount      `json:"user,omitempty"`
	Conversation ConversationAccount `json:"conversation,omitempty"`
	ChannelID    string              `json:"channelId,omitempty"`
	ServiceURL   string              `json:"serviceUrl,omitempty"`
}

// ReferenceFromActivity captures a conversation reference from an inbound
// activity. From/Recipient are swapped so the reference addresses the sender.
func ReferenceFromActivity(a *Activity) ConversationReference {
	return ConversationReference{
		ActivityID:   a.ID,
		Bot:          a.Recipient,
		User:         a.From,
		Conversation: a.Conversation,
		ChannelID:    a.ChannelID,
		ServiceURL:   a.ServiceURL,
	}
}

// ConversationStore maps conversation ids to resumable references. Writes
// always overwrite: the latest observed reference wins.
type ConversationStore interface {
	Get(conversationID string) (ConversationReference, bool)
	Put(conversationID string, ref ConversationReference)
}
