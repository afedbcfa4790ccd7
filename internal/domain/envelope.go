package domain

import "errors"

// ErrNoDestination is returned when an envelope carries neither a room nor a
// live-turn user message.
var ErrNoDestination = errors.New("envelope has no room and no live user message")

// Room describes a channel/conversation destination on the platform.
type Room struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	TenantID   string `json:"tenantId,omitempty"`
	ChannelID  string `json:"channelId,omitempty"`
	ServiceURL string `json:"serviceUrl,omitempty"`
}

// User is the sender side of an envelope. Message is the live inbound
// activity when the robot is replying within an active exchange.
type User struct {
	ID      string    `json:"id,omitempty"`
	Name    string    `json:"name,omitempty"`
	Message *Activity `json:"message,omitempty"`
}

// Envelope is the destination descriptor for a send or reply operation.
type Envelope struct {
	Room *Room `json:"room,omitempty"`
	User *User `json:"user,omitempty"`
}

// Destination is the resolved routing variant of an envelope.
type Destination int

const (
	// DestRoom routes through the conversation store (push into a room).
	DestRoom Destination = iota
	// DestTurn delivers on the live inbound turn carried by User.Message.
	DestTurn
)

// Destination resolves which routing path the envelope selects. A room
// without a live user message takes the room path; otherwise the envelope
// must carry a live turn.
func (e *Envelope) Destination() (Destination, error) {
	if e == nil {
		return 0, ErrNoDestination
	}
	hasTurn := e.User != nil && e.User.Message != nil
	if e.Room != nil && !hasTurn {
		return DestRoom, nil
	}
	if hasTurn {
		return DestTurn, nil
	}
	return 0, ErrNoDestination
}
