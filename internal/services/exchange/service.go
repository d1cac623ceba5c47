// Package exchange resolves currency conversion rates. It tries a
// primary HTTP source, then a fallback source, then a static table, so
// any supported pair eventually resolves even with both APIs down.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"enpay/internal/repositories/cache"

	"github.com/shopspring/decimal"
)

var (
	ErrUnsupportedPair = errors.New("unsupported currency pair")
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)

// RateSource is the oracle contract the ledger engine consumes.
type RateSource interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Config points the service at its rate APIs.
type Config struct {
	PrimaryURL  string
	FallbackURL string
	HTTPTimeout time.Duration
	CacheTTL    time.Duration
}

type service struct {
	client      *http.Client
	cache       *cache.CacheService
	primaryURL  string
	fallbackURL string
	cacheTTL    time.Duration
}

// NewService builds the rate oracle. The cache may be nil, in which case
// every lookup goes to the sources.
func NewService(cfg Config, cacheSvc *cache.CacheService) RateSource {
	if cfg.PrimaryURL == "" {
		cfg.PrimaryURL = "https://api.exchangerate-api.com/v4/latest/"
	}
	if cfg.FallbackURL == "" {
		cfg.FallbackURL = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies/"
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}
	return &service{
		client:      &http.Client{Timeout: cfg.HTTPTimeout},
		cache:       cacheSvc,
		primaryURL:  cfg.PrimaryURL,
		fallbackURL: cfg.FallbackURL,
		cacheTTL:    cfg.CacheTTL,
	}
}

func (s *service) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	cacheKey := fmt.Sprintf("rate:%s:%s", from, to)
	if s.cache != nil {
		var cached decimal.Decimal
		if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
			return cached, nil
		}
	}

	rate, err := s.fromPrimary(ctx, from, to)
	if err != nil {
		log.Printf("exchange: primary source failed, trying fallback: %v", err)
		rate, err = s.fromFallback(ctx, from, to)
		if err != nil {
			log.Printf("exchange: fallback source failed, using static table: %v", err)
			rate, err = staticRate(from, to)
			if err != nil {
				return decimal.Zero, err
			}
		}
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, cacheKey, rate, s.cacheTTL); err != nil {
			log.Printf("exchange: failed to cache rate %s: %v", cacheKey, err)
		}
	}

	return rate, nil
}

func (s *service) fromPrimary(ctx context.Context, from, to string) (decimal.Decimal, error) {
	body, err := s.fetch(ctx, s.primaryURL+from)
	if err != nil {
		return decimal.Zero, err
	}

	var payload struct {
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, fmt.Errorf("bad primary response: %w", err)
	}

	rate, ok := payload.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s->%s", ErrUnsupportedPair, from, to)
	}
	return rate.Round(4), nil
}

func (s *service) fromFallback(ctx context.Context, from, to string) (decimal.Decimal, error) {
	body, err := s.fetch(ctx, s.fallbackURL+strings.ToLower(from)+".json")
	if err != nil {
		return decimal.Zero, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, fmt.Errorf("bad fallback response: %w", err)
	}

	raw, ok := payload[strings.ToLower(from)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s missing from fallback response", ErrRateUnavailable, from)
	}

	var rates map[string]decimal.Decimal
	if err := json.Unmarshal(raw, &rates); err != nil {
		return decimal.Zero, fmt.Errorf("bad fallback rates: %w", err)
	}

	rate, ok := rates[strings.ToLower(to)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s->%s", ErrUnsupportedPair, from, to)
	}
	return rate.Round(4), nil
}

func (s *service) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d from %s", ErrRateUnavailable, resp.StatusCode, url)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// staticRates is the last-resort table. These are pinned snapshots, not
// live rates, and deliberately differ from the limit-normalization
// constant the ledger uses.
var staticRates = map[string]string{
	"PEN:USD": "0.2700",
	"USD:PEN": "3.7000",
	"EUR:USD": "1.0800",
	"USD:EUR": "0.9260",
	"EUR:PEN": "4.0000",
	"PEN:EUR": "0.2500",
}

func staticRate(from, to string) (decimal.Decimal, error) {
	if rate, ok := staticRates[from+":"+to]; ok {
		return decimal.RequireFromString(rate), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s->%s", ErrUnsupportedPair, from, to)
}
