package adapter

import (
	"testing"

	"teamsbot/internal/domain"
)

func TestClassify_PlainMarkdown(t *testing.T) {
	if got := Classify("hello"); got != ClassMarkdown {
		t.Errorf("expected markdown, got %v", got)
	}
}

func TestClassify_XML(t *testing.T) {
	if got := Classify("<b>hi</b>"); got != ClassXML {
		t.Errorf("expected xml, got %v", got)
	}
}

func TestClassify_Card(t *testing.T) {
	if got := Classify(`{"type":"AdaptiveCard"}`); got != ClassCard {
		t.Errorf("expected card, got %v", got)
	}
}

func TestClassify_JSONWinsOverMarkup(t *testing.T) {
	// Valid JSON always wins, even when the string also looks like markup.
	if got := Classify(`{"html":"<b>hi</b>"}`); got != ClassCard {
		t.Errorf("expected card, got %v", got)
	}
}

func TestClassify_BareJSONScalar(t *testing.T) {
	// The sharp edge: a bare number parses as JSON and becomes a card.
	if got := Classify("123"); got != ClassCard {
		t.Errorf("expected card for bare JSON scalar, got %v", got)
	}
}

func TestClassify_OpenTagOnlyIsMarkdown(t *testing.T) {
	if got := Classify("a < b and b > c"); got != ClassMarkdown {
		t.Errorf("expected markdown without a closing tag, got %v", got)
	}
}

func TestBuildActivity_Markdown(t *testing.T) {
	a := BuildActivity("hello")
	if a.Type != domain.ActivityMessage || a.Text != "hello" || a.TextFormat != domain.TextFormatMarkdown {
		t.Errorf("unexpected activity: %+v", a)
	}
	if len(a.Attachments) != 0 {
		t.Errorf("text send must not carry attachments")
	}
}

func TestBuildActivity_XML(t *testing.T) {
	a := BuildActivity("<b>hi</b>")
	if a.TextFormat != domain.TextFormatXML {
		t.Errorf("expected xml text format, got %q", a.TextFormat)
	}
}

func TestBuildActivity_Card(t *testing.T) {
	a := BuildActivity(`{"type":"AdaptiveCard"}`)
	if a.Text != "" {
		t.Errorf("card send must not carry text, got %q", a.Text)
	}
	if len(a.Attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(a.Attachments))
	}
	att := a.Attachments[0]
	if att.ContentType != domain.CardContentType {
		t.Errorf("unexpected content type %q", att.ContentType)
	}
	if string(att.Content) != `{"type":"AdaptiveCard"}` {
		t.Errorf("payload altered: %s", att.Content)
	}
}
