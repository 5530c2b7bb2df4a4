package telegram

import (
	"context"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

// Client performs Bot API calls.
//
// Send returns the raw response: []byte for BotClient, or an already-decoded
// map for stubs. WithToken returns a client bound to another bot token; the
// receiver is not modified, so an override never leaks into other dispatches.
type Client interface {
	Send(ctx context.Context, method string, payload map[string]any) (any, error)
	WithToken(token string) Client
}

// ClientConfig configures BotClient.
type ClientConfig struct {
	Token string
	// APIURL overrides the Bot API base (default https://api.telegram.org).
	APIURL string
	// Timeout bounds each HTTP call. Defaults to 10s.
	Timeout time.Duration
	// RatePerSec caps outgoing calls across all tokens. Zero disables limiting.
	RatePerSec int
	// HTTPClient replaces the default client (Timeout is then ignored).
	HTTPClient *http.Client
}

// BotClient is a Client backed by telebot's raw API call.
//
// It keeps one offline telebot.Bot per token (no getMe round-trip), shared by
// every client derived with WithToken. It is safe for concurrent use.
type BotClient struct {
	token   string
	limiter *rate.Limiter
	bots    *botCache
}

type botCache struct {
	mu       sync.Mutex
	settings tele.Settings
	bots     map[string]*tele.Bot
}

func NewBotClient(cfg ClientConfig) *BotClient {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	var lim *rate.Limiter
	if cfg.RatePerSec > 0 {
		// Burst = rate, so short spikes don't block.
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return &BotClient{
		token:   strings.TrimSpace(cfg.Token),
		limiter: lim,
		bots: &botCache{
			settings: tele.Settings{
				URL:     strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"),
				Client:  hc,
				Offline: true,
			},
			bots: map[string]*tele.Bot{},
		},
	}
}

func (c *BotClient) WithToken(token string) Client {
	token = strings.TrimSpace(token)
	if token == "" || token == c.token {
		return c
	}
	cp := *c
	cp.token = token
	return &cp
}

// Send performs one Bot API call. telebot's Raw takes no context, so the call
// runs in its own goroutine and Send returns once ctx is done. An abandoned
// request lives until the HTTP client timeout.
func (c *BotClient) Send(ctx context.Context, method string, payload map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SendError{Method: method, Err: err}
	}
	if c.token == "" {
		return nil, &SendError{Method: method, Err: ErrNoToken}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &SendError{Method: method, Err: err}
		}
	}
	bot, err := c.bots.get(c.token)
	if err != nil {
		return nil, &SendError{Method: method, Err: err}
	}
	done := make(chan rawResult, 1)
	go func() {
		data, err := bot.Raw(method, maps.Clone(payload))
		done <- rawResult{data: data, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, &SendError{Method: method, Err: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			return nil, &SendError{Method: method, Err: r.err}
		}
		return r.data, nil
	}
}

type rawResult struct {
	data []byte
	err  error
}

func (bc *botCache) get(token string) (*tele.Bot, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if b, ok := bc.bots[token]; ok {
		return b, nil
	}
	st := bc.settings
	st.Token = token
	b, err := tele.NewBot(st)
	if err != nil {
		return nil, err
	}
	bc.bots[token] = b
	return b, nil
}
