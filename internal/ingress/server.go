// Package ingress receives platform activities over HTTP, normalizes them
// and hands them to the registered turn handler.
package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"teamsbot/internal/adapter"
	"teamsbot/internal/domain"
	"teamsbot/internal/metrics"
)

const maxBodyBytes = 1 << 20

// ServerConfig configures the ingress server.
type ServerConfig struct {
	Host            string
	Port            int
	MessagesPath    string // defaults to /api/messages; the root path always accepts activities too
	EnableWebSocket bool
	Normalizer      adapter.Normalizer
	Dispatcher      *adapter.Dispatcher
	Connector       domain.Connector
	Handler         Handler
	Logger          *slog.Logger
}

// Server is the activity ingress endpoint.
type Server struct {
	host         string
	port         int
	messagesPath string
	wsEnabled    bool
	normalizer   adapter.Normalizer
	dispatcher   *adapter.Dispatcher
	connector    domain.Connector
	handler      Handler
	logger       *slog.Logger
	server       *http.Server
	upgrader     websocket.Upgrader
}

// NewServer creates an ingress server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.MessagesPath == "" {
		cfg.MessagesPath = "/api/messages"
	}
	if cfg.Port == 0 {
		cfg.Port = 3978
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		host:         cfg.Host,
		port:         cfg.Port,
		messagesPath: cfg.MessagesPath,
		wsEnabled:    cfg.EnableWebSocket,
		normalizer:   cfg.Normalizer,
		dispatcher:   cfg.Dispatcher,
		connector:    cfg.Connector,
		handler:      cfg.Handler,
		logger:       cfg.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Start runs the ingress HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleActivities)
	mux.HandleFunc("/metrics", metrics.Collector.Handler())
	if s.messagesPath != "/" {
		mux.HandleFunc(s.messagesPath, s.handleActivities)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("ingress server starting", "addr", s.server.Addr, "path", s.messagesPath, "websocket", s.wsEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("ingress server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("ingress server: %w", err)
	}
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	if s.wsEnabled && websocket.IsWebSocketUpgrade(r) {
		s.handleUpgrade(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Error("cannot read activity body", "err", err)
		http.Error(w, "service error", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	var activity domain.Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		s.logger.Error("cannot decode activity", "err", err)
		http.Error(w, "service error", http.StatusInternalServerError)
		return
	}

	if err := s.processActivity(r.Context(), &activity); err != nil {
		s.logger.Error("turn processing failed", "activity", activity.ID, "err", err)
		http.Error(w, "service error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}

// processActivity runs the turn pipeline: normalize, record the conversation
// reference, then invoke the handler. The reference is recorded before the
// handler runs so a handler-triggered send can resume the conversation.
func (s *Server) processActivity(ctx context.Context, activity *domain.Activity) (err error) {
	if activity.Type == domain.ActivityMessage {
		s.normalizer.NormalizeInbound(activity)
	}

	metrics.ActivitiesReceived.Inc()

	if activity.Conversation.ID != "" {
		s.dispatcher.Store().Put(activity.Conversation.ID, domain.ReferenceFromActivity(activity))
	}

	s.logger.Info("activity received",
		"type", activity.Type,
		"conversation", activity.Conversation.ID,
		"from", activity.From.ID,
	)

	if s.handler == nil {
		return nil
	}

	turn := &Turn{Activity: activity, dispatcher: s.dispatcher}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn handler panic: %v", r)
			metrics.TurnErrors.Inc()
			s.reportTurnError(ctx, activity, err)
		}
	}()
	if err := s.handler(ctx, turn); err != nil {
		metrics.TurnErrors.Inc()
		s.reportTurnError(ctx, activity, err)
		return err
	}
	return nil
}

// reportTurnError sends the error back into the conversation as a trace
// activity plus a generic user-visible message. Failures here are only
// logged; the process keeps running.
func (s *Server) reportTurnError(ctx context.Context, activity *domain.Activity, turnErr error) {
	if s.connector == nil || activity.Conversation.ID == "" {
		return
	}
	ref := domain.ReferenceFromActivity(activity)

	value, _ := json.Marshal(turnErr.Error())
	trace := &domain.Activity{
		Type:  domain.ActivityTrace,
		Label: "TurnError",
		Value: value,
	}
	if _, err := s.connector.SendToConversation(ctx, ref, trace); err != nil {
		s.logger.Error("cannot send turn error trace", "err", err)
	}

	notice := &domain.Activity{
		Type:       domain.ActivityMessage,
		Text:       "The bot encountered an error.",
		TextFormat: domain.TextFormatMarkdown,
	}
	if _, err := s.connector.SendToConversation(ctx, ref, notice); err != nil {
		s.logger.Error("cannot send turn error notice", "err", err)
	}
}

// handleUpgrade accepts a raw connection upgrade for streaming delivery.
// Each text frame carries one activity and runs through the same turn
// pipeline as the HTTP endpoint.
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	metrics.WSConnections.Inc()
	defer metrics.WSConnections.Dec()

	s.logger.Info("streaming connection established", "remote", r.RemoteAddr)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("streaming read error", "err", err)
			}
			return
		}

		var activity domain.Activity
		if err := json.Unmarshal(frame, &activity); err != nil {
			s.logger.Warn("invalid streaming frame", "err", err)
			s.writeFrame(conn, map[string]string{"status": "error"})
			continue
		}

		if err := s.processActivity(r.Context(), &activity); err != nil {
			s.logger.Error("streaming turn failed", "err", err)
			s.writeFrame(conn, map[string]string{"status": "error"})
			continue
		}
		s.writeFrame(conn, map[string]string{"status": "ok"})
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("streaming write failed", "err", err)
	}
}
