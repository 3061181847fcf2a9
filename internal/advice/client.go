// Package advice asks a hosted chat-completions API for a short aquarium
// care tip based on the current tank snapshot.
package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"aquariumd/pkg/types"
)

const (
	defaultEndpoint = "https://api.groq.com/openai/v1"
	defaultModel    = "llama-3.3-70b-versatile"
	defaultTimeout  = 10 * time.Second
	defaultCooldown = time.Hour
)

const systemPrompt = "You are a concise aquarium care assistant. " +
	"Answer with a single short practical tip, no preamble."

// Config holds advice client settings.
type Config struct {
	// Endpoint is the OpenAI-compatible API base URL.
	Endpoint string
	// APIKey is sent as a bearer token. Required.
	APIKey string
	// Model is the chat model name.
	Model string
	// Timeout bounds each upstream call.
	Timeout time.Duration
	// Cooldown is how long to back off after an upstream 429.
	Cooldown time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Client calls an OpenAI-style chat-completions endpoint. After the
// upstream returns 429 the client refuses further calls for the cooldown
// window instead of burning quota on retries.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	httpc    *http.Client
	cooldown time.Duration
	clock    func() time.Time
	log      zerolog.Logger

	mu         sync.Mutex
	quotaUntil time.Time
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		httpc:    &http.Client{Timeout: cfg.Timeout},
		cooldown: cfg.Cooldown,
		clock:    cfg.Clock,
		log:      log.With().Str("component", "advice").Logger(),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Advise returns one care tip for the snapshot. It returns a quota error
// without calling upstream while inside the cooldown window.
func (c *Client) Advise(ctx context.Context, snap types.Snapshot) (string, error) {
	now := c.clock()
	c.mu.Lock()
	if now.Before(c.quotaUntil) {
		until := c.quotaUntil
		c.mu.Unlock()
		return "", ErrQuotaExhausted(fmt.Sprintf("advice quota exhausted until %s", until.UTC().Format(time.RFC3339)))
	}
	c.mu.Unlock()

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(snap)},
		},
		MaxTokens:   120,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		adviceRequests.WithLabelValues("error").Inc()
		return "", ErrUnavailable("advice backend unreachable: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.mu.Lock()
		c.quotaUntil = c.clock().Add(c.cooldown)
		c.mu.Unlock()
		adviceRequests.WithLabelValues("quota").Inc()
		c.log.Warn().Dur("cooldown", c.cooldown).Msg("upstream rate limited, backing off")
		return "", ErrQuotaExhausted("advice quota exhausted by upstream rate limit")
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		adviceRequests.WithLabelValues("error").Inc()
		return "", ErrUnavailable(fmt.Sprintf("advice backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		adviceRequests.WithLabelValues("error").Inc()
		return "", ErrUnavailable("advice backend returned malformed JSON")
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		adviceRequests.WithLabelValues("error").Inc()
		return "", ErrUnavailable("advice backend returned no choices")
	}
	adviceRequests.WithLabelValues("ok").Inc()
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// buildPrompt renders the snapshot into a compact request for the model.
func buildPrompt(snap types.Snapshot) string {
	hoursSinceFeed := float64(snap.SecondsSinceFeed) / 3600
	daysSinceClean := float64(snap.SecondsSinceClean) / 86400
	return fmt.Sprintf(
		"My aquarium readings: ammonia %.2f ppm, nitrite %.2f ppm, nitrate %.1f ppm, pH %.1f. "+
			"Last fed %.1f hours ago, last water change %.1f days ago. Overall state: %s. "+
			"Give one short practical care tip.",
		snap.Params.AmmoniaPPM, snap.Params.NitritePPM, snap.Params.NitratePPM, snap.Params.PH,
		hoursSinceFeed, daysSinceClean, snap.Mood.Category.String(),
	)
}
