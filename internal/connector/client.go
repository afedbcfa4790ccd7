// Package connector is the REST client for the platform's conversation API.
// It owns transport and serialization; routing lives in the adapter.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamsbot/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client implements domain.Connector over the platform's REST surface.
type Client struct {
	httpClient *http.Client
	token      domain.TokenProvider
	logger     *slog.Logger
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Token supplies bearer tokens for platform calls. Optional; requests go
	// out unauthenticated without it (local emulator setups).
	Token   domain.TokenProvider
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewClient creates a platform REST client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		token:      cfg.Token,
		logger:     cfg.Logger,
	}
}

// StaticToken wraps a fixed bearer token as a TokenProvider. An empty token
// yields a nil provider, which sends requests unauthenticated.
func StaticToken(token string) domain.TokenProvider {
	if token == "" {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		return token, nil
	}
}

// conversationResponse is the platform's acknowledgement of a conversation
// creation or an activity send.
type conversationResponse struct {
	ID         string `json:"id"`
	ActivityID string `json:"activityId,omitempty"`
	ServiceURL string `json:"serviceUrl,omitempty"`
}

// CreateConversation starts a proactive conversation on the platform.
func (c *Client) CreateConversation(ctx context.Context, serviceURL string, params domain.ConversationParams) (domain.ConversationReference, error) {
	if serviceURL == "" {
		return domain.ConversationReference{}, fmt.Errorf("create conversation: no service URL")
	}
	endpoint := joinURL(serviceURL, "/v3/conversations")

	var resp conversationResponse
	if err := c.postJSON(ctx, endpoint, params, &resp); err != nil {
		return domain.ConversationReference{}, fmt.Errorf("create conversation: %w", err)
	}

	effective := resp.ServiceURL
	if effective == "" {
		effective = serviceURL
	}
	return domain.ConversationReference{
		ActivityID: resp.ActivityID,
		Bot:        params.Bot,
		Conversation: domain.ConversationAccount{
			ID:       resp.ID,
			TenantID: params.TenantID,
			IsGroup:  params.IsGroup,
		},
		ServiceURL: effective,
	}, nil
}

// SendToConversation pushes an activity into an existing conversation.
func (c *Client) SendToConversation(ctx context.Context, ref domain.ConversationReference, activity *domain.Activity) (domain.SendResult, error) {
	if ref.ServiceURL == "" || ref.Conversation.ID == "" {
		return domain.SendResult{}, fmt.Errorf("send to conversation: incomplete reference")
	}
	endpoint := joinURL(ref.ServiceURL, "/v3/conversations/"+url.PathEscape(ref.Conversation.ID)+"/activities")
	return c.postActivity(ctx, endpoint, ref, activity)
}

// ReplyToActivity sends an activity as a reply within a conversation.
func (c *Client) ReplyToActivity(ctx context.Context, ref domain.ConversationReference, replyToID string, activity *domain.Activity) (domain.SendResult, error) {
	if ref.ServiceURL == "" || ref.Conversation.ID == "" {
		return domain.SendResult{}, fmt.Errorf("reply to activity: incomplete reference")
	}
	if replyToID == "" {
		return c.SendToConversation(ctx, ref, activity)
	}
	endpoint := joinURL(ref.ServiceURL,
		"/v3/conversations/"+url.PathEscape(ref.Conversation.ID)+"/activities/"+url.PathEscape(replyToID))
	out := *activity
	out.ReplyToID = replyToID
	return c.postActivity(ctx, endpoint, ref, &out)
}

func (c *Client) postActivity(ctx context.Context, endpoint string, ref domain.ConversationReference, activity *domain.Activity) (domain.SendResult, error) {
	out := *activity
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.From.ID == "" {
		out.From = ref.Bot
	}
	out.Conversation = ref.Conversation
	out.ServiceURL = ref.ServiceURL
	if out.ChannelID == "" {
		out.ChannelID = ref.ChannelID
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}

	var resp conversationResponse
	if err := c.postJSON(ctx, endpoint, &out, &resp); err != nil {
		return domain.SendResult{}, err
	}
	id := resp.ID
	if id == "" {
		id = out.ID
	}
	return domain.SendResult{ID: id}, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		tok, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("acquire token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			c.logger.Debug("unparseable platform response", "endpoint", endpoint, "err", err)
		}
	}
	return nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
