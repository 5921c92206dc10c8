package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// LinePushURL is the LINE Messaging API push endpoint.
const LinePushURL = "https://api.line.me/v2/bot/message/push"

// LineNotifier pushes a text message to a LINE user or group.
type LineNotifier struct {
	Endpoint string
	token    string
	to       string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewLineNotifier allows perMinute pushes per minute with a burst of one.
func NewLineNotifier(token, to string, perMinute int) *LineNotifier {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &LineNotifier{
		Endpoint: LinePushURL,
		token:    token,
		to:       to,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type linePush struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

func (n *LineNotifier) Notify(ctx context.Context, e Event) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(linePush{
		To:       n.to,
		Messages: []lineMessage{{Type: "text", Text: e.Text()}},
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.token)
	// Retries of the same event must not be delivered twice.
	req.Header.Set("X-Line-Retry-Key", e.ID)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("line returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
