// Package lark sends bot messages through the Lark/Feishu open platform.
package lark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	larksdk "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/rs/zerolog"
	"github.com/yolodolo42/safebot/internal/observability"
)

// Open platform hosts. The SDK appends the /open-apis prefix itself.
const (
	DefaultHost = "https://open.larksuite.com"
	FeishuHost  = "https://open.feishu.cn"
)

// Message types accepted by SendMessage.
const (
	MsgTypeText        = "text"
	MsgTypeInteractive = "interactive"
)

const receiveIDTypeChat = "chat_id"

// APIError is a non-zero code in a Lark response.
type APIError struct {
	Code      int
	Msg       string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("lark api error %d: %s (request %s)", e.Code, e.Msg, e.RequestID)
	}
	return fmt.Sprintf("lark api error %d: %s", e.Code, e.Msg)
}

// Client sends messages as a custom app. Safe for concurrent use.
type Client struct {
	sdk     *larksdk.Client
	tokens  *tokenCache
	http    *http.Client
	metrics *observability.Metrics
	log     zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClock sets the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.tokens.now = now
		}
	}
}

// WithMetrics counts sent messages.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the given app credentials. host may carry the
// legacy /open-apis suffix.
func New(appID, appSecret, host string, opts ...Option) *Client {
	c := &Client{
		tokens: newTokenCache(time.Now),
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.sdk = larksdk.NewClient(appID, appSecret,
		larksdk.WithOpenBaseUrl(normalizeHost(host)),
		larksdk.WithHttpClient(c.http),
		larksdk.WithTokenCache(c.tokens),
		larksdk.WithLogger(sdkLogger{log: c.log}),
		larksdk.WithLogLevel(larkcore.LogLevelInfo),
	)
	return c
}

func normalizeHost(host string) string {
	host = strings.TrimRight(host, "/")
	host = strings.TrimSuffix(host, "/open-apis")
	if host == "" {
		return DefaultHost
	}
	return host
}

// SendText posts a plain text message to chatID.
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	return c.SendMessage(ctx, chatID, MsgTypeText, content)
}

// SendCard posts an interactive card to chatID.
func (c *Client) SendCard(ctx context.Context, chatID string, card json.RawMessage) error {
	return c.SendMessage(ctx, chatID, MsgTypeInteractive, card)
}

// SendMessage posts content of msgType to a chat. A non-2xx status is an
// error even when the body carries no code.
func (c *Client) SendMessage(ctx context.Context, chatID, msgType string, content json.RawMessage) (err error) {
	defer func() { c.metrics.ObserveMessage(msgType, err) }()

	if chatID == "" {
		return errors.New("missing chat id")
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDTypeChat).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgType).
			Content(string(content)).
			Build()).
		Build()

	resp, err := c.sdk.Im.Message.Create(ctx, req)
	if err != nil {
		var ce *larkcore.CodeError
		if errors.As(err, &ce) {
			return fmt.Errorf("send %s message: %w", msgType, &APIError{Code: ce.Code, Msg: ce.Msg})
		}
		return fmt.Errorf("send %s message: %w", msgType, err)
	}
	if !resp.Success() {
		if isTokenInvalid(resp.Code) {
			c.tokens.clear()
		}
		return fmt.Errorf("send %s message: %w", msgType,
			&APIError{Code: resp.Code, Msg: resp.Msg, RequestID: resp.RequestId()})
	}
	if resp.ApiResp != nil && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return fmt.Errorf("send %s message: http %d", msgType, resp.StatusCode)
	}

	c.log.Debug().Str("chat_id", chatID).Str("msg_type", msgType).Str("request_id", resp.RequestId()).Msg("message sent")
	return nil
}

// Lark codes for an expired or invalid tenant token.
func isTokenInvalid(code int) bool {
	return code == 99991663 || code == 99991661
}
