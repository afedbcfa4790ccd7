// Package mention rewrites platform mention markup into the canonical
// @botname text form the robot's command matcher expects.
package mention

import (
	"regexp"
	"strings"

	"teamsbot/internal/domain"
)

// atTagPattern matches <at>...</at> mention markup, case-insensitively.
var atTagPattern = regexp.MustCompile(`(?is)<at>(.*?)</at>`)

// EnsureMentionPrefix rewrites text so it starts with exactly "@robotName".
// An existing @-prefix has its casing canonicalized; a bare name prefix gains
// the @; anything else is prefixed wholesale. The name must be terminated by
// a word boundary to count as a prefix, so "Botty" never matches robot "Bot".
func EnsureMentionPrefix(text, robotName string) string {
	t := strings.TrimSpace(text)
	if robotName == "" {
		return t
	}
	if t == "" {
		return "@" + robotName
	}

	quoted := regexp.QuoteMeta(robotName)
	withAt := regexp.MustCompile(`(?is)^@` + quoted + `($|[^0-9A-Za-z_].*)`)
	if m := withAt.FindStringSubmatch(t); m != nil {
		return "@" + robotName + m[1]
	}
	bare := regexp.MustCompile(`(?is)^` + quoted + `($|[^0-9A-Za-z_].*)`)
	if m := bare.FindStringSubmatch(t); m != nil {
		return "@" + robotName + m[1]
	}
	return "@" + robotName + " " + t
}

// StripRecipientMention removes mention markup addressed to the given account
// from the text. When the account id is unknown, all mention markup is
// removed instead.
func StripRecipientMention(a *domain.Activity, accountID string) string {
	text := a.Text
	if accountID == "" {
		return atTagPattern.ReplaceAllString(text, "")
	}
	for _, e := range a.Entities {
		if e.Type != "mention" || e.Mentioned == nil || e.Mentioned.ID != accountID {
			continue
		}
		if e.Text != "" {
			text = strings.ReplaceAll(text, e.Text, "")
		}
	}
	return text
}

// CollapseTags rewrites each residual <at>...</at> occurrence to its inner
// text and reports whether any markup was present.
func CollapseTags(text string) (string, bool) {
	if !atTagPattern.MatchString(text) {
		return text, false
	}
	return atTagPattern.ReplaceAllString(text, "$1"), true
}
