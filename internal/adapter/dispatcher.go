package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"teamsbot/internal/domain"
	"teamsbot/internal/metrics"
)

// Dispatcher routes outbound replies to the correct live conversation,
// falling back to proactive conversation creation when no cached session
// exists. All per-message delivery failures are swallowed here: callers see
// them only as absence from the returned results.
type Dispatcher struct {
	connector  domain.Connector
	store      domain.ConversationStore
	notifier   domain.Notifier
	logger     *slog.Logger
	bot        domain.ChannelAccount
	serviceURL string
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Connector  domain.Connector
	Store      domain.ConversationStore // defaults to an in-memory store
	Notifier   domain.Notifier          // optional
	Logger     *slog.Logger
	Bot        domain.ChannelAccount // bot identity for proactive conversations
	ServiceURL string                // fallback when a room carries no service URL
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Dispatcher{
		connector:  cfg.Connector,
		store:      cfg.Store,
		notifier:   cfg.Notifier,
		logger:     cfg.Logger,
		bot:        cfg.Bot,
		serviceURL: cfg.ServiceURL,
	}
}

// Store exposes the conversation store so ingress can record references.
func (d *Dispatcher) Store() domain.ConversationStore { return d.store }

// Send delivers messages to the envelope's destination: a room-only envelope
// takes the room-push path, an envelope with a live turn replies on it.
func (d *Dispatcher) Send(ctx context.Context, env *domain.Envelope, messages ...string) ([]domain.SendResult, error) {
	dest, err := env.Destination()
	if err != nil {
		return nil, err
	}
	if dest == domain.DestRoom {
		return d.SendToRoom(ctx, env.Room, messages...)
	}
	results := d.deliverOnTurn(ctx, env.User.Message, messages)
	d.notify(domain.SendCompleted, env, nil, results)
	return results, nil
}

// Reply delivers messages on the envelope's live turn.
func (d *Dispatcher) Reply(ctx context.Context, env *domain.Envelope, messages ...string) ([]domain.SendResult, error) {
	if env == nil || env.User == nil || env.User.Message == nil {
		return nil, domain.ErrNoDestination
	}
	results := d.deliverOnTurn(ctx, env.User.Message, messages)
	d.notify(domain.ReplyCompleted, env, nil, results)
	return results, nil
}

// SendToRoom pushes messages into a room. A cached conversation reference is
// resumed and each message delivered in order; without one, a brand-new
// proactive conversation is created, seeded with the joined text, and an
// empty result list is returned regardless of its outcome.
func (d *Dispatcher) SendToRoom(ctx context.Context, room *domain.Room, messages ...string) ([]domain.SendResult, error) {
	if room == nil || room.ID == "" {
		return nil, domain.ErrNoDestination
	}

	if ref, ok := d.store.Get(room.ID); ok {
		results := d.deliverToConversation(ctx, ref, messages)
		d.notify(domain.SendCompleted, nil, room, results)
		return results, nil
	}

	d.logger.Info("no live conversation for room, creating one",
		"room_id", room.ID,
		"room", room.Name,
	)

	joined := strings.Join(messages, "\n")
	serviceURL := room.ServiceURL
	if serviceURL == "" {
		serviceURL = d.serviceURL
	}
	params := domain.ConversationParams{
		IsGroup:     true,
		Bot:         d.bot,
		TenantID:    room.TenantID,
		ChannelData: channelData(room.ChannelID),
		Activity:    BuildActivity(joined),
	}

	ref, err := d.connector.CreateConversation(ctx, serviceURL, params)
	if err != nil {
		d.logSendFailure(err)
		return []domain.SendResult{}, nil
	}
	metrics.ProactiveCreates.Inc()
	d.store.Put(ref.Conversation.ID, ref)
	if _, err := d.connector.SendToConversation(ctx, ref, BuildActivity(joined)); err != nil {
		d.logSendFailure(err)
	}
	d.notify(domain.SendCompleted, nil, room, nil)
	return []domain.SendResult{}, nil
}

func (d *Dispatcher) deliverOnTurn(ctx context.Context, turn *domain.Activity, messages []string) []domain.SendResult {
	ref := domain.ReferenceFromActivity(turn)
	var results []domain.SendResult
	for _, m := range messages {
		start := time.Now()
		res, err := d.connector.ReplyToActivity(ctx, ref, turn.ID, BuildActivity(m))
		if err != nil {
			d.logSendFailure(err)
			continue
		}
		metrics.MessagesSent.Inc()
		metrics.SendLatency.Observe(time.Since(start).Seconds())
		results = append(results, res)
	}
	return results
}

func (d *Dispatcher) deliverToConversation(ctx context.Context, ref domain.ConversationReference, messages []string) []domain.SendResult {
	var results []domain.SendResult
	for _, m := range messages {
		start := time.Now()
		res, err := d.connector.SendToConversation(ctx, ref, BuildActivity(m))
		if err != nil {
			d.logSendFailure(err)
			continue
		}
		metrics.MessagesSent.Inc()
		metrics.SendLatency.Observe(time.Since(start).Seconds())
		results = append(results, res)
	}
	return results
}

// logSendFailure logs one failed delivery. An unauthorized status gets an
// explicit hint naming the four identity settings.
func (d *Dispatcher) logSendFailure(err error) {
	metrics.SendFailures.Inc()
	var se *domain.StatusError
	if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
		d.logger.Error("platform rejected send as unauthorized: check bot.appId, bot.appPassword, bot.tenantId and bot.appType",
			"err", err,
		)
		return
	}
	d.logger.Error("message delivery failed", "err", err)
}

func (d *Dispatcher) notify(kind domain.NotificationKind, env *domain.Envelope, room *domain.Room, results []domain.SendResult) {
	if d.notifier == nil {
		return
	}
	d.notifier.Notify(domain.Notification{
		Kind:      kind,
		Envelope:  env,
		Room:      room,
		Results:   results,
		Timestamp: time.Now(),
	})
}

// channelData builds the platform channel metadata addressing a new
// conversation at a specific channel.
func channelData(channelID string) json.RawMessage {
	if channelID == "" {
		return nil
	}
	data, err := json.Marshal(map[string]any{
		"channel": map[string]string{"id": channelID},
	})
	if err != nil {
		return nil
	}
	return data
}
