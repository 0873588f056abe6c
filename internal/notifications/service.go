package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"strmsync/internal/config"
	"strmsync/internal/engine"
)

const (
	userAgent      = "strmsync/0.1.0"
	defaultAPIBase = "https://api.telegram.org"
)

// Service defines the notification surface exposed to sync components.
type Service interface {
	NotifyCycleCompleted(ctx context.Context, summary *engine.Summary) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by Telegram when a bot
// token and chat are configured. Otherwise a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	token := strings.TrimSpace(cfg.Notifications.TelegramBotToken)
	chatID := strings.TrimSpace(cfg.Notifications.TelegramChatID)
	if token == "" || chatID == "" {
		return noopService{}
	}
	return NewTelegram(cfg.Notifications)
}

// Telegram pushes messages to one chat through the Bot API.
type Telegram struct {
	apiBase string
	token   string
	chatID  string
	cycles  bool
	errors  bool
	client  *http.Client
	caser   cases.Caser
}

// NewTelegram builds the Telegram notifier from its config section.
func NewTelegram(cfg config.Notifications) *Telegram {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Telegram{
		apiBase: defaultAPIBase,
		token:   strings.TrimSpace(cfg.TelegramBotToken),
		chatID:  strings.TrimSpace(cfg.TelegramChatID),
		cycles:  cfg.Cycles,
		errors:  cfg.Errors,
		client:  &http.Client{Timeout: timeout},
		caser:   cases.Title(language.Und, cases.NoLower),
	}
}

// WithAPIBase overrides the Bot API endpoint. Used by tests.
func (t *Telegram) WithAPIBase(base string) *Telegram {
	t.apiBase = strings.TrimRight(base, "/")
	return t
}

// NotifyCycleCompleted reports the outcome of one sync cycle.
func (t *Telegram) NotifyCycleCompleted(ctx context.Context, summary *engine.Summary) error {
	if !t.cycles || summary == nil {
		return nil
	}

	var header string
	switch summary.Status {
	case engine.StatusCompleted:
		header = "✅ Sync completed"
	case engine.StatusCompletedWithFailures:
		header = "⚠️ Sync completed with failures"
	case engine.StatusCancelled:
		header = "🛑 Sync cancelled"
	default:
		header = "🛑 Sync failed"
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "*%s: %s*\n",
		escapeMarkdownV2(header), escapeMarkdownV2(t.caser.String(summary.Source)))
	fmt.Fprintf(&builder, "Created: %s\n",
		escapeMarkdownV2(fmt.Sprintf("%d dirs, %d files", summary.DirsCreated, summary.FilesCreated)))
	fmt.Fprintf(&builder, "Updated: %s\n", escapeMarkdownV2(fmt.Sprintf("%d", summary.FilesUpdated)))
	fmt.Fprintf(&builder, "Deleted: %s\n",
		escapeMarkdownV2(fmt.Sprintf("%d files, %d dirs", summary.FilesDeleted, summary.DirsDeleted)))
	if failed := summary.Failed(); failed > 0 {
		fmt.Fprintf(&builder, "Failed: %s\n", escapeMarkdownV2(fmt.Sprintf("%d", failed)))
	}
	if len(summary.Unreachable) > 0 {
		fmt.Fprintf(&builder, "Unreachable: %s\n",
			escapeMarkdownV2(fmt.Sprintf("%d (%s)", len(summary.Unreachable), strings.Join(summary.Unreachable, ", "))))
	}
	fmt.Fprintf(&builder, "Duration: %s",
		escapeMarkdownV2(summary.Duration().Round(time.Second).String()))

	return t.send(ctx, builder.String())
}

// NotifyError reports a failure outside the normal cycle summary flow.
func (t *Telegram) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !t.errors {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("❌ *Error*")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(escapeMarkdownV2(contextLabel))
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(escapeMarkdownV2(strings.TrimSpace(err.Error())))
	} else {
		builder.WriteString("unknown")
	}
	return t.send(ctx, builder.String())
}

// TestNotification sends a throwaway message to verify credentials.
func (t *Telegram) TestNotification(ctx context.Context) error {
	return t.send(ctx, escapeMarkdownV2("🧪 Notification system test"))
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) send(ctx context.Context, text string) error {
	if t == nil || t.client == nil {
		return nil
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("encode telegram request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram notification: %w", err)
	}
	defer resp.Body.Close()

	var decoded sendMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&decoded); err != nil {
		if resp.StatusCode >= 300 {
			return fmt.Errorf("telegram returned %d", resp.StatusCode)
		}
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !decoded.OK {
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, strings.TrimSpace(decoded.Description))
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyCycleCompleted(context.Context, *engine.Summary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
