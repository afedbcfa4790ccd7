package notify

import (
	"log/slog"
	"os"
	"testing"

	"teamsbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHub_DispatchByKind(t *testing.T) {
	h := NewHub(testLogger())
	var sends, replies int
	h.Subscribe(string(domain.SendCompleted), func(domain.Notification) { sends++ })
	h.Subscribe(string(domain.ReplyCompleted), func(domain.Notification) { replies++ })

	h.Notify(domain.Notification{Kind: domain.SendCompleted})
	h.Notify(domain.Notification{Kind: domain.SendCompleted})
	h.Notify(domain.Notification{Kind: domain.ReplyCompleted})

	if sends != 2 || replies != 1 {
		t.Errorf("expected 2 sends and 1 reply, got %d/%d", sends, replies)
	}
}

func TestHub_Wildcard(t *testing.T) {
	h := NewHub(testLogger())
	var all int
	h.Subscribe("*", func(domain.Notification) { all++ })

	h.Notify(domain.Notification{Kind: domain.SendCompleted})
	h.Notify(domain.Notification{Kind: domain.ReplyCompleted})

	if all != 2 {
		t.Errorf("wildcard subscriber expected 2 notifications, got %d", all)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub(testLogger())
	var calls int
	id := h.Subscribe(string(domain.SendCompleted), func(domain.Notification) { calls++ })
	h.Unsubscribe(string(domain.SendCompleted), id)

	h.Notify(domain.Notification{Kind: domain.SendCompleted})
	if calls != 0 {
		t.Errorf("unsubscribed handler must not run, got %d calls", calls)
	}
}

func TestHub_PanicDoesNotStopOthers(t *testing.T) {
	h := NewHub(testLogger())
	var reached bool
	h.Subscribe(string(domain.SendCompleted), func(domain.Notification) { panic("boom") })
	h.Subscribe(string(domain.SendCompleted), func(domain.Notification) { reached = true })

	h.Notify(domain.Notification{Kind: domain.SendCompleted})
	if !reached {
		t.Error("panicking handler must not stop later handlers")
	}
}
