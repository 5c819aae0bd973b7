package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

const (
	defaultBaseURL = "https://api.telegram.org"

	// Telegram permite ~1 mensaje/s por chat; dejamos margen.
	sendRatePerSec = 0.5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// ErrAPI indica que Telegram respondió {"ok": false}.
var ErrAPI = errors.New("telegram API error")

// apiResponse es el sobre común de todas las respuestas del Bot API.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Client es el cliente HTTP del Bot API con rate limiting y retries.
// Implementa ports.Deliverer.
type Client struct {
	http     *http.Client
	baseURL  string
	token    string
	chatID   string
	limiter  *rate.Limiter
	location *time.Location
}

// NewClient crea un Client para el bot y chat dados.
// Si baseURL está vacío usa la API de producción.
func NewClient(baseURL, token, chatID string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:     &http.Client{Timeout: 15 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		chatID:   chatID,
		limiter:  rate.NewLimiter(sendRatePerSec, 1),
		location: domain.TehranLocation(),
	}
}

// Deliver envía la señal formateada al chat configurado.
func (c *Client) Deliver(ctx context.Context, sig domain.Signal) error {
	if err := c.SendText(ctx, FormatSignal(sig, c.location)); err != nil {
		return fmt.Errorf("telegram.Deliver %s: %w", sig.Instrument, err)
	}
	return nil
}

// SendText envía un mensaje de texto plano.
func (c *Client) SendText(ctx context.Context, text string) error {
	if c.token == "" || c.chatID == "" {
		return fmt.Errorf("telegram.SendText: token and chat id are required")
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	if err := c.post(ctx, url, sendMessageRequest{ChatID: c.chatID, Text: text}); err != nil {
		return fmt.Errorf("telegram.SendText: %w", err)
	}
	return nil
}

// FormatSignal arma el texto del mensaje de una señal.
func FormatSignal(sig domain.Signal, loc *time.Location) string {
	t := sig.Time
	if loc != nil {
		t = t.In(loc)
	}
	var b strings.Builder
	b.WriteString("Strong ICT signal\n")
	fmt.Fprintf(&b, "Pair: %s\n", sig.Instrument)
	fmt.Fprintf(&b, "Direction: %s\n", sig.Direction)
	fmt.Fprintf(&b, "Expiry: %d min\n", sig.ExpiryMinutes)
	fmt.Fprintf(&b, "Score: %d%%\n", sig.Score)
	fmt.Fprintf(&b, "Reason: %s\n", sig.ReasonText())
	fmt.Fprintf(&b, "Time: %s\n", t.Format("2006-01-02 15:04:05"))
	b.WriteString("Enter now!")
	return b.String()
}

// post hace un POST JSON con rate limiting y retries.
func (c *Client) post(ctx context.Context, url string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	})
}

// doWithRetry ejecuta la función con backoff exponencial. Reintenta errores de
// red, 429 y 5xx; un 4xx o {"ok": false} termina inmediatamente con ErrAPI.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error)) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt, 0)
			continue
		}

		var out apiResponse
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		_ = json.Unmarshal(body, &out)

		if resp.StatusCode == http.StatusTooManyRequests {
			slog.Warn("rate limited by telegram", "attempt", attempt+1, "retry_after", out.Parameters.RetryAfter)
			if attempt == maxRetries {
				break
			}
			c.sleep(ctx, attempt, time.Duration(out.Parameters.RetryAfter)*time.Second)
			continue
		}

		if resp.StatusCode >= 500 {
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt, 0)
			continue
		}

		if resp.StatusCode >= 400 || !out.OK {
			desc := out.Description
			if desc == "" {
				desc = strings.TrimSpace(string(body))
			}
			return fmt.Errorf("%w: status %d: %s", ErrAPI, resp.StatusCode, desc)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial (o el retry_after de Telegram si es mayor),
// respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int, atLeast time.Duration) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	wait = max(wait, atLeast)
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
