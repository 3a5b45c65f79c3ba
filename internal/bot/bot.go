// Package bot turns chat messages into token security checks and replies
// with report cards.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yolodolo42/safebot/internal/chain"
	"github.com/yolodolo42/safebot/internal/gateway"
	"github.com/yolodolo42/safebot/internal/observability"
	"github.com/yolodolo42/safebot/internal/report"
	"github.com/yolodolo42/safebot/internal/security"
)

// EventMessageReceive is the only event type the bot acts on.
const EventMessageReceive = "im.message.receive_v1"

// Reply texts.
const (
	ExampleCommand = "Ethereum 0x408e41876cccdc0f92210600ef50372656052a38"

	EmptyHint          = "Please enter the token to query.\nFormat: <chain name or ID> <contract address>\nExample: " + ExampleCommand
	UsageHint          = "Invalid format. Send: <chain name or ID> <contract address>\nExample: " + ExampleCommand + "\nSend \"chains\" to list supported chains."
	InvalidAddressHint = "Invalid contract address. Use a 0x-prefixed 40 hex digit EVM address or a 32-44 character base58 Solana address."
	ProcessingNotice   = "Analyzing token security, please wait..."
	ErrorPrefix        = "Error processing message: "
)

// Command results, also used as metric labels.
const (
	ResultReport         = "report"
	ResultEmpty          = "empty"
	ResultUsage          = "usage"
	ResultHelp           = "help"
	ResultChains         = "chains"
	ResultInvalidAddress = "invalid_address"
	ResultChainNotFound  = "chain_not_found"
	ResultError          = "error"
	ResultIgnored        = "ignored"
)

var mentionTag = regexp.MustCompile(`@_user_\d+`)

// Messenger delivers replies to a chat.
type Messenger interface {
	SendText(ctx context.Context, chatID, text string) error
	SendCard(ctx context.Context, chatID string, card json.RawMessage) error
}

// SecurityChecker runs a token security query.
type SecurityChecker interface {
	Check(ctx context.Context, chainID, address string, timeout time.Duration) (*security.Report, error)
}

// ChainResolver maps user input to a chain.
type ChainResolver interface {
	Resolve(token string) (chain.Chain, bool)
	Snapshot() []chain.Chain
}

// Response is the acknowledgement returned to the webhook caller.
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
}

// Bot handles chat commands.
type Bot struct {
	messenger Messenger
	checker   SecurityChecker
	chains    ChainResolver
	timeout   time.Duration
	metrics   *observability.Metrics
	log       zerolog.Logger
}

// Option configures Bot.
type Option func(*Bot)

// WithQueryTimeout bounds each security query. Zero means no bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(b *Bot) { b.timeout = d }
}

// WithMetrics counts handled commands.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bot) { b.metrics = m }
}

// WithLogger sets the bot logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bot) { b.log = l }
}

// New creates a bot.
func New(m Messenger, checker SecurityChecker, chains ChainResolver, opts ...Option) *Bot {
	b := &Bot{
		messenger: m,
		checker:   checker,
		chains:    chains,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dispatch implements gateway.Dispatcher.
func (b *Bot) Dispatch(ctx context.Context, ev *gateway.Event) (any, error) {
	if ev.Type() != EventMessageReceive {
		b.log.Debug().Str("event_type", ev.Type()).Msg("event ignored")
		b.metrics.ObserveCommand(ResultIgnored)
		return struct{}{}, nil
	}
	if ev.Message == nil {
		b.metrics.ObserveCommand(ResultError)
		return Response{Code: 1, Msg: "invalid event structure"}, nil
	}
	return b.Handle(ctx, ev.Message.ChatID, ev.Message.Text()), nil
}

// Handle runs one command from chatID and replies in that chat.
func (b *Bot) Handle(ctx context.Context, chatID, text string) Response {
	log := b.log.With().Str("chat_id", chatID).Logger()

	result, err := b.handle(ctx, chatID, text, log)
	b.metrics.ObserveCommand(result)
	if err == nil {
		return Response{Code: 0}
	}

	log.Error().Err(err).Msg("handle message")
	if sendErr := b.messenger.SendText(ctx, chatID, ErrorPrefix+err.Error()); sendErr != nil {
		log.Error().Err(sendErr).Msg("send error notice")
	}
	return Response{Code: 1, Msg: err.Error()}
}

func (b *Bot) handle(ctx context.Context, chatID, text string, log zerolog.Logger) (string, error) {
	fields := strings.Fields(mentionTag.ReplaceAllString(text, " "))

	if len(fields) == 0 {
		return b.reply(ctx, chatID, ResultEmpty, EmptyHint)
	}
	if len(fields) == 1 {
		switch strings.ToLower(fields[0]) {
		case "help", "/help":
			return b.reply(ctx, chatID, ResultHelp, UsageHint)
		case "chains", "/chains", "list", "链列表":
			return b.reply(ctx, chatID, ResultChains, ChainList(b.chains.Snapshot()))
		}
	}
	if len(fields) != 2 {
		log.Debug().Int("tokens", len(fields)).Msg("unexpected command format")
		return b.reply(ctx, chatID, ResultUsage, UsageHint)
	}

	chainToken, address := fields[0], fields[1]
	if !chain.IsValidAddress(address) {
		return b.reply(ctx, chatID, ResultInvalidAddress, InvalidAddressHint)
	}
	c, ok := b.chains.Resolve(chainToken)
	if !ok {
		log.Debug().Str("chain", chainToken).Err(chain.ErrChainNotFound).Msg("resolve chain")
		return b.reply(ctx, chatID, ResultChainNotFound, ChainNotFoundHint(chainToken))
	}
	log = log.With().Str("chain", c.ID).Str("address", address).Logger()
	log.Info().Msg("checking token")

	if err := b.messenger.SendText(ctx, chatID, ProcessingNotice); err != nil {
		return ResultError, fmt.Errorf("send processing notice: %w", err)
	}

	r, err := b.checker.Check(ctx, c.ID, address, b.timeout)
	if err != nil {
		return ResultError, err
	}

	card, err := report.Format(r).CardJSON()
	if err != nil {
		return ResultError, fmt.Errorf("encode report card: %w", err)
	}
	if err := b.messenger.SendCard(ctx, chatID, card); err != nil {
		return ResultError, fmt.Errorf("send report: %w", err)
	}
	return ResultReport, nil
}

func (b *Bot) reply(ctx context.Context, chatID, result, text string) (string, error) {
	if err := b.messenger.SendText(ctx, chatID, text); err != nil {
		return ResultError, fmt.Errorf("send reply: %w", err)
	}
	return result, nil
}

// ChainNotFoundHint is the reply for an unrecognized chain name.
func ChainNotFoundHint(token string) string {
	return fmt.Sprintf("Chain %q is not recognized. Send \"chains\" to list supported chains, or use a numeric chain ID.", token)
}

// ChainList renders the supported chains, one per line.
func ChainList(chains []chain.Chain) string {
	if len(chains) == 0 {
		return "No supported chains available."
	}
	var sb strings.Builder
	sb.WriteString("Supported chains:")
	for _, c := range chains {
		sb.WriteString("\n" + c.Label())
	}
	return sb.String()
}
