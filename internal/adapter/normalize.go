package adapter

import (
	"strings"

	"teamsbot/internal/domain"
	"teamsbot/internal/mention"
)

// Normalizer rewrites inbound activity text into the canonical
// mention-normalized form before the robot's command matcher sees it.
type Normalizer struct {
	// Name is the robot's primary configured name.
	Name string
	// Alias overrides Name when set, unless AliasDisabled.
	Alias         string
	AliasDisabled bool
}

// RobotName resolves the robot's effective display name.
func (n Normalizer) RobotName() string {
	if n.Alias != "" && !n.AliasDisabled {
		return n.Alias
	}
	return n.Name
}

// NormalizeInbound rewrites the activity's text in place and returns the
// same activity. The transform is idempotent: re-normalizing an already
// canonical activity changes nothing. Nil activities pass through.
func (n Normalizer) NormalizeInbound(a *domain.Activity) *domain.Activity {
	if a == nil {
		return nil
	}

	text := mention.StripRecipientMention(a, a.Recipient.ID)
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "\n")
	text = strings.TrimSuffix(text, `\n`)

	text, mentioned := mention.CollapseTags(text)

	personal := a.Conversation.ConversationType == domain.ConversationPersonal
	if a.MentionsAccount(a.Recipient.ID) {
		mentioned = true
	}

	name := n.RobotName()
	if (personal || mentioned) && name != "" && text != "" {
		text = mention.EnsureMentionPrefix(text, name)
	}

	a.Text = text
	return a
}
