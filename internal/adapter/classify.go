package adapter

import (
	"encoding/json"
	"regexp"

	"teamsbot/internal/domain"
)

// Classification is the content type of one outgoing message string.
type Classification int

const (
	// ClassMarkdown is the default: plain or markdown-formatted text.
	ClassMarkdown Classification = iota
	// ClassXML is text containing closing-tag markup.
	ClassXML
	// ClassCard is a structured adaptive-card payload.
	ClassCard
)

func (c Classification) String() string {
	switch c {
	case ClassXML:
		return "xml"
	case ClassCard:
		return "card"
	default:
		return "markdown"
	}
}

// closingTagPattern recognizes a </name>-shaped substring.
var closingTagPattern = regexp.MustCompile(`</[A-Za-z][^>]*>`)

// Classify decides how one message string is delivered. A string that parses
// as JSON is always a card, even when the author meant plain text that
// happens to be valid JSON; this mirrors the platform convention and is a
// documented sharp edge. Otherwise closing-tag markup upgrades the text to
// XML formatting, and everything else is markdown.
func Classify(s string) Classification {
	if json.Unmarshal([]byte(s), new(any)) == nil {
		return ClassCard
	}
	if closingTagPattern.MatchString(s) {
		return ClassXML
	}
	return ClassMarkdown
}

// BuildActivity converts one outgoing string into a platform activity
// according to its classification. Classification is re-derived on every
// call, never cached on the envelope.
func BuildActivity(s string) *domain.Activity {
	switch Classify(s) {
	case ClassCard:
		return &domain.Activity{
			Type: domain.ActivityMessage,
			Attachments: []domain.Attachment{{
				ContentType: domain.CardContentType,
				Content:     json.RawMessage(s),
			}},
		}
	case ClassXML:
		return &domain.Activity{
			Type:       domain.ActivityMessage,
			Text:       s,
			TextFormat: domain.TextFormatXML,
		}
	default:
		return &domain.Activity{
			Type:       domain.ActivityMessage,
			Text:       s,
			TextFormat: domain.TextFormatMarkdown,
		}
	}
}
