package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kraken-exc/internal/config"
)

// Telegram caps sendMessage responses well below this; the limit only
// bounds what an error message can quote back.
const telegramResponseLimit = 4096

// TelegramNotifier delivers alert messages through the Telegram bot API.
// A disabled notifier accepts and discards messages, so the Manager wiring
// is identical whether or not telegram is configured.
type TelegramNotifier struct {
	enabled bool
	sendURL string
	chatID  string
	client  *http.Client
}

// NewTelegramNotifier builds a notifier from the observability config
// section. The timeout falls back to 10s when the config carries none.
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimRight(cfg.APIBaseURL, "/")
	return &TelegramNotifier{
		enabled: cfg.Enabled,
		sendURL: base + "/bot" + cfg.BotToken + "/sendMessage",
		chatID:  cfg.ChatID,
		client:  &http.Client{Timeout: timeout},
	}
}

type telegramSendRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramSendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *TelegramNotifier) Notify(ctx context.Context, msg string) error {
	if t == nil || !t.enabled {
		return nil
	}
	payload, err := json.Marshal(telegramSendRequest{ChatID: t.chatID, Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.sendURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, telegramResponseLimit))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram sendMessage status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	// The API reports delivery failures inside a 200 body too.
	var parsed telegramSendResponse
	if len(body) == 0 || json.Unmarshal(body, &parsed) != nil {
		return nil
	}
	if !parsed.OK {
		return fmt.Errorf("telegram sendMessage rejected: %s", strings.TrimSpace(parsed.Description))
	}
	return nil
}
