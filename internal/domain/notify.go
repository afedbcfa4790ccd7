package domain

import "time"

// NotificationKind labels a delivery completion notification.
type NotificationKind string

const (
	SendCompleted  NotificationKind = "send"
	ReplyCompleted NotificationKind = "reply"
)

// Notification reports a completed send or reply batch. Results holds only
// the messages the platform accepted; failed deliveries are absent.
type Notification struct {
	Kind      NotificationKind
	Envelope  *Envelope
	Room      *Room
	Results   []SendResult
	Timestamp time.Time
}

// ConversationID returns the conversation the notification refers to, when
// one can be resolved from the envelope or room.
func (n Notification) ConversationID() string {
	if n.Room != nil {
		return n.Room.ID
	}
	if n.Envelope != nil {
		if n.Envelope.User != nil && n.Envelope.User.Message != nil {
			return n.Envelope.User.Message.Conversation.ID
		}
		if n.Envelope.Room != nil {
			return n.Envelope.Room.ID
		}
	}
	return ""
}

// Notifier receives delivery completion notifications.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Notifiers fans one notification out to every member in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(n Notification) {
	for _, m := range ns {
		if m != nil {
			m.Notify(n)
		}
	}
}
