package journal

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"teamsbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndQuery(t *testing.T) {
	j := openTestJournal(t)

	j.Notify(domain.Notification{
		Kind: domain.SendCompleted,
		Room: &domain.Room{ID: "conv-1"},
		Results: []domain.SendResult{
			{ID: "a1"}, {ID: "a2"},
		},
	})
	j.Notify(domain.Notification{
		Kind: domain.ReplyCompleted,
		Envelope: &domain.Envelope{
			User: &domain.User{Message: &domain.Activity{
				Conversation: domain.ConversationAccount{ID: "conv-2"},
			}},
		},
		Results: []domain.SendResult{{ID: "b1"}},
	})

	entries, err := j.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].Kind != "reply" || entries[0].ConversationID != "conv-2" {
		t.Errorf("unexpected newest entry: %+v", entries[0])
	}
	if entries[1].ResultCount != 2 || entries[1].ResultIDs != "a1,a2" {
		t.Errorf("unexpected send entry: %+v", entries[1])
	}
}

func TestJournal_EmptyResults(t *testing.T) {
	j := openTestJournal(t)
	j.Notify(domain.Notification{Kind: domain.SendCompleted, Room: &domain.Room{ID: "conv-1"}})

	entries, err := j.Recent(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ResultCount != 0 {
		t.Errorf("expected one empty-batch entry, got %+v", entries)
	}
}

func TestJournal_RecentLimit(t *testing.T) {
	j := openTestJournal(t)
	for i := 0; i < 5; i++ {
		j.Notify(domain.Notification{Kind: domain.SendCompleted, Room: &domain.Room{ID: "conv-1"}})
	}
	entries, err := j.Recent(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
}
