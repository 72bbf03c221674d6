// Package telegram provides a client for the Telegram Bot API sendMessage method.
package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Telegram Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Client is a Telegram Bot API client.
type Client struct {
	token      string
	chatID     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Config represents Telegram client configuration.
type Config struct {
	Token         string        // bot token, with or without the "bot" prefix
	ChatID        string        // target chat
	RatePerSecond float64       // outbound message rate, 0 means 1/s
	Burst         int           // messages allowed at once, 0 means 1
	Timeout       time.Duration // per request, 0 means 10s
}

// apiResponse is the envelope of every Bot API response.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// New creates a new Telegram client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram bot token is required")
	}
	if cfg.ChatID == "" {
		return nil, errors.New("telegram chat id is required")
	}

	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		token:      strings.TrimPrefix(cfg.Token, "bot"),
		chatID:     cfg.ChatID,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
	}, nil
}

// SendMessage posts text to the configured chat.
// Reference: https://core.telegram.org/bots/api#sendmessage
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return errors.New("message text is required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	params := url.Values{}
	params.Set("chat_id", c.chatID)
	params.Set("text", text)

	reqURL := c.baseURL + "/bot" + c.token + "/sendMessage?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the URL, which carries the bot token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return errors.Wrapf(err, "failed to parse response (status %d)", resp.StatusCode)
	}
	if !apiResp.OK {
		return errors.Errorf("telegram API error %d: %s", apiResp.ErrorCode, apiResp.Description)
	}

	zlog.Debug().Msgf("telegram message sent: chat_id=%s length=%d", c.chatID, len(text))
	return nil
}
