package synthesis

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dubber/internal/logging"
	"dubber/internal/subtitles"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxAttempts    = 3
	defaultBackoffBase    = 4 * time.Second
	defaultBackoffCap     = 10 * time.Second
)

// Client talks to the synthesis provider over HTTP. Each attempt walks an
// ordered list of connection strategies (proxy first when configured, then
// direct) under a shared per-request deadline; attempts are retried with
// exponential backoff.
type Client struct {
	endpoint    string
	strategies  []strategy
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *slog.Logger
}

type strategy struct {
	name   string
	client *http.Client
}

// Option customizes the synthesis client.
type Option func(*Client)

// WithProxy adds a proxy-first connection strategy.
func WithProxy(proxyURL string) Option {
	return func(c *Client) {
		proxyURL = strings.TrimSpace(proxyURL)
		if proxyURL == "" {
			return
		}
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return
		}
		proxied := &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(parsed)}}
		c.strategies = append([]strategy{{name: "proxy", client: proxied}}, c.strategies...)
	}
}

// WithRetry overrides attempt count and backoff bounds.
func WithRetry(maxAttempts int, base, cap time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if base > 0 {
			c.backoffBase = base
		}
		if cap > 0 {
			c.backoffCap = cap
		}
	}
}

// WithTimeout overrides the per-request wall-clock budget.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.WithComponent(logger, "synthesis")
		}
	}
}

// WithHTTPClient overrides the direct-connection HTTP client (tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.strategies = []strategy{{name: "direct", client: client}}
		}
	}
}

// NewClient constructs a provider client for the given endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	client := &Client{
		endpoint:    strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		strategies:  []strategy{{name: "direct", client: &http.Client{}}},
		timeout:     defaultRequestTimeout,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		backoffCap:  defaultBackoffCap,
		sleep:       sleepContext,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Synthesize streams audio and word timings for the request, retrying
// transport failures per the client's policy.
func (c *Client) Synthesize(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, errors.New("synthesize: text required")
	}
	if strings.TrimSpace(req.Voice) == "" {
		return Result{}, errors.New("synthesize: voice required")
	}

	body, err := json.Marshal(map[string]string{
		"text":   req.Text,
		"voice":  req.Voice,
		"rate":   orDefault(req.Rate, "+0%"),
		"volume": orDefault(req.Volume, "+0%"),
		"pitch":  orDefault(req.Pitch, "+0Hz"),
	})
	if err != nil {
		return Result{}, fmt.Errorf("synthesize: encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		for _, strat := range c.strategies {
			result, err := c.once(ctx, strat, body)
			if err == nil {
				return result, nil
			}
			lastErr = err
			c.logger.Warn("synthesis attempt failed",
				logging.Int("attempt", attempt),
				logging.String("strategy", strat.name),
				logging.Error(err))
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
		}
		if attempt < c.maxAttempts {
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				return Result{}, err
			}
		}
	}
	return Result{}, fmt.Errorf("synthesize: all %d attempts failed: %w", c.maxAttempts, lastErr)
}

func (c *Client) once(ctx context.Context, strat strategy, body []byte) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("synthesize: request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := strat.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("synthesize: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Result{}, fmt.Errorf("synthesize: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return decodeStream(resp.Body)
}

// decodeStream reads the provider's newline-delimited event stream. Audio
// arrives as base64 chunks; word boundaries arrive as timing events whose
// field names vary across provider versions, normalized here.
func decodeStream(r io.Reader) (Result, error) {
	var result Result
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var event map[string]any
		if err := json.Unmarshal(line, &event); err != nil {
			return Result{}, fmt.Errorf("synthesize: decode event: %w", err)
		}
		switch eventType(event) {
		case "audio":
			chunk, err := base64.StdEncoding.DecodeString(stringField(event, "data", "audio", "chunk"))
			if err != nil {
				return Result{}, fmt.Errorf("synthesize: decode audio chunk: %w", err)
			}
			result.Audio = append(result.Audio, chunk...)
		case "wordboundary":
			result.Words = append(result.Words, normalizeWordEvent(event))
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("synthesize: read stream: %w", err)
	}
	if len(result.Audio) == 0 {
		return Result{}, errors.New("synthesize: provider returned no audio")
	}
	return result, nil
}

// ListVoices fetches and normalizes the provider's voice catalog.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("list voices: request: %w", err)
	}

	var lastErr error
	for _, strat := range c.strategies {
		resp, err := strat.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("list voices: request failed: %w", err)
			continue
		}
		voices, err := decodeVoices(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return voices, nil
	}
	return nil, lastErr
}

func decodeVoices(r io.Reader) ([]Voice, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("list voices: decode response: %w", err)
	}
	voices := make([]Voice, 0, len(raw))
	for _, entry := range raw {
		voice := normalizeVoice(entry)
		if voice.ShortName != "" {
			voices = append(voices, voice)
		}
	}
	return voices, nil
}

// normalizeVoice maps heterogeneous provider voice payloads onto the fixed
// Voice shape.
func normalizeVoice(entry map[string]any) Voice {
	return Voice{
		ShortName:    stringField(entry, "ShortName", "short_name", "Name", "name"),
		Locale:       stringField(entry, "Locale", "locale"),
		Gender:       stringField(entry, "Gender", "gender"),
		FriendlyName: stringField(entry, "FriendlyName", "friendly_name", "LocalName", "local_name"),
	}
}

// normalizeWordEvent maps heterogeneous timing payloads onto WordTiming.
// Offsets and durations are 100ns ticks regardless of the field name used.
func normalizeWordEvent(event map[string]any) subtitles.WordTiming {
	return subtitles.WordTiming{
		Text:     stringField(event, "text", "Text", "word", "Word"),
		Offset:   intField(event, "offset", "Offset", "audio_offset", "AudioOffset"),
		Duration: intField(event, "duration", "Duration", "audio_duration", "AudioDuration"),
	}
}

func eventType(event map[string]any) string {
	return strings.ToLower(strings.ReplaceAll(stringField(event, "type", "Type", "event"), " ", ""))
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := m[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func intField(m map[string]any, keys ...string) int64 {
	for _, key := range keys {
		switch value := m[key].(type) {
		case float64:
			return int64(value)
		case json.Number:
			if parsed, err := value.Int64(); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(c.backoffBase) * math.Pow(2, float64(attempt-1)))
	if delay > c.backoffCap {
		delay = c.backoffCap
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
