package ingress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"teamsbot/internal/adapter"
	"teamsbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// nopConnector satisfies domain.Connector for ingress tests.
type nopConnector struct {
	sent []*domain.Activity
}

func (n *nopConnector) CreateConversation(ctx context.Context, serviceURL string, params domain.ConversationParams) (domain.ConversationReference, error) {
	return domain.ConversationReference{Conversation: domain.ConversationAccount{ID: "new"}}, nil
}

func (n *nopConnector) SendToConversation(ctx context.Context, ref domain.ConversationReference, activity *domain.Activity) (domain.SendResult, error) {
	n.sent = append(n.sent, activity)
	return domain.SendResult{ID: "ok"}, nil
}

func (n *nopConnector) ReplyToActivity(ctx context.Context, ref domain.ConversationReference, replyToID string, activity *domain.Activity) (domain.SendResult, error) {
	n.sent = append(n.sent, activity)
	return domain.SendResult{ID: "ok"}, nil
}

func newTestServer(handler Handler) (*Server, *nopConnector, *adapter.Dispatcher) {
	nc := &nopConnector{}
	d := adapter.NewDispatcher(adapter.DispatcherConfig{
		Connector: nc,
		Logger:    testLogger(),
	})
	s := NewServer(ServerConfig{
		Normalizer: adapter.Normalizer{Name: "Bot"},
		Dispatcher: d,
		Connector:  nc,
		Handler:    handler,
		Logger:     testLogger(),
	})
	return s, nc, d
}

func postActivity(t *testing.T, s *Server, path string, activity domain.Activity) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(activity)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	s.handleActivities(rr, req)
	return rr
}

func inboundActivity() domain.Activity {
	return domain.Activity{
		Type:         domain.ActivityMessage,
		ID:           "act-1",
		Text:         "<at>Bot</at> do the thing",
		ServiceURL:   "https://svc",
		Recipient:    domain.ChannelAccount{ID: "bot-1", Name: "Bot"},
		From:         domain.ChannelAccount{ID: "user-1", Name: "Alice"},
		Conversation: domain.ConversationAccount{ID: "conv-1"},
		Entities: []domain.Entity{
			{Type: "mention", Mentioned: &domain.ChannelAccount{ID: "bot-1"}, Text: "<at>Bot</at>"},
		},
	}
}

func TestHandleActivities_OK(t *testing.T) {
	var seen *domain.Activity
	s, _, _ := newTestServer(func(ctx context.Context, turn *Turn) error {
		seen = turn.Activity
		return nil
	})

	rr := postActivity(t, s, "/api/messages", inboundActivity())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("expected body ok, got %q", rr.Body.String())
	}
	if seen == nil {
		t.Fatal("handler not invoked")
	}
	if seen.Text != "@Bot do the thing" {
		t.Errorf("activity not normalized before the handler, got %q", seen.Text)
	}
}

func TestHandleActivities_RootPath(t *testing.T) {
	called := false
	s, _, _ := newTestServer(func(ctx context.Context, turn *Turn) error {
		called = true
		return nil
	})
	rr := postActivity(t, s, "/", inboundActivity())
	if rr.Code != http.StatusOK || !called {
		t.Errorf("root path must accept activities, code=%d called=%v", rr.Code, called)
	}
}

func TestHandleActivities_ReferenceRecordedBeforeHandler(t *testing.T) {
	var cachedDuringTurn bool
	var disp *adapter.Dispatcher
	s, _, d := newTestServer(func(ctx context.Context, turn *Turn) error {
		_, cachedDuringTurn = disp.Store().Get("conv-1")
		return nil
	})
	disp = d

	postActivity(t, s, "/api/messages", inboundActivity())
	if !cachedDuringTurn {
		t.Error("conversation reference must be cached before the handler runs")
	}
}

func TestHandleActivities_HandlerErrorIs500(t *testing.T) {
	s, nc, _ := newTestServer(func(ctx context.Context, turn *Turn) error {
		return errors.New("handler blew up")
	})

	rr := postActivity(t, s, "/api/messages", inboundActivity())
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	// Turn errors are reported back into the conversation: one trace plus one
	// generic user-visible message.
	if len(nc.sent) != 2 {
		t.Fatalf("expected trace + notice, got %d activities", len(nc.sent))
	}
	if nc.sent[0].Type != domain.ActivityTrace {
		t.Errorf("first report must be a trace activity, got %q", nc.sent[0].Type)
	}
	if nc.sent[1].Type != domain.ActivityMessage || nc.sent[1].Text == "" {
		t.Errorf("second report must be a user-visible message, got %+v", nc.sent[1])
	}
}

func TestHandleActivities_HandlerPanicIs500(t *testing.T) {
	s, _, _ := newTestServer(func(ctx context.Context, turn *Turn) error {
		panic("boom")
	})
	rr := postActivity(t, s, "/api/messages", inboundActivity())
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on panic, got %d", rr.Code)
	}
}

func TestHandleActivities_MethodNotAllowed(t *testing.T) {
	s, _, _ := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rr := httptest.NewRecorder()
	s.handleActivities(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestHandleActivities_BadJSONIs500(t *testing.T) {
	s, _, _ := newTestServer(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()
	s.handleActivities(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestHandleActivities_ConversationUpdateSkipsNormalization(t *testing.T) {
	var seen *domain.Activity
	s, _, _ := newTestServer(func(ctx context.Context, turn *Turn) error {
		seen = turn.Activity
		return nil
	})

	rr := postActivity(t, s, "/api/messages", domain.Activity{
		Type:         domain.ActivityConversationUpdate,
		Conversation: domain.ConversationAccount{ID: "conv-2"},
		MembersAdded: []domain.ChannelAccount{{ID: "user-9"}},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if seen == nil || seen.Text != "" {
		t.Errorf("conversation update must pass through untouched, got %+v", seen)
	}
}

func TestTurnReply_FlowsThroughDispatcher(t *testing.T) {
	s, nc, _ := newTestServer(func(ctx context.Context, turn *Turn) error {
		results, err := turn.Reply(ctx, "done")
		if err != nil {
			return err
		}
		if len(results) != 1 {
			t.Errorf("expected 1 reply result, got %d", len(results))
		}
		return nil
	})

	rr := postActivity(t, s, "/api/messages", inboundActivity())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(nc.sent) != 1 {
		t.Fatalf("expected 1 outbound activity, got %d", len(nc.sent))
	}
	if nc.sent[0].Text != "done" {
		t.Errorf("unexpected reply text %q", nc.sent[0].Text)
	}
}
