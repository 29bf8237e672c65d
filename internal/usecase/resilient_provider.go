package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reco-core/internal/domain/entity"
	"reco-core/internal/domain/repository"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

type ResilientProvider struct {
	primary    repository.AIProvider
	fallback   repository.AIProvider // cheaper model tried once when primary is exhausted
	breaker    *gobreaker.CircuitBreaker[*entity.AIResponse]
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
	logger     zerolog.Logger
	onFallback func()
}

type ResilienceOption func(*ResilientProvider)

func WithRetries(maxRetries int, baseDelay time.Duration) ResilienceOption {
	return func(r *ResilientProvider) {
		r.maxRetries = maxRetries
		r.baseDelay = baseDelay
	}
}

func WithTimeout(d time.Duration) ResilienceOption {
	return func(r *ResilientProvider) { r.timeout = d }
}

func WithLogger(l zerolog.Logger) ResilienceOption {
	return func(r *ResilientProvider) { r.logger = l }
}

// WithFallbackHook registers a callback run each time the fallback model is used.
func WithFallbackHook(fn func()) ResilienceOption {
	return func(r *ResilientProvider) { r.onFallback = fn }
}

func NewResilientProvider(primary, fallback repository.AIProvider, opts ...ResilienceOption) *ResilientProvider {
	r := &ResilientProvider{
		primary:    primary,
		fallback:   fallback,
		maxRetries: 2, // 3 attempts on primary
		baseDelay:  500 * time.Millisecond,
		timeout:    30 * time.Second,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.breaker = gobreaker.NewCircuitBreaker[*entity.AIResponse](gobreaker.Settings{
		Name:        "gemini-primary",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return r
}

func (r *ResilientProvider) Generate(ctx context.Context, prompt string) (*entity.AIResponse, error) {
	resCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.breaker.Execute(func() (*entity.AIResponse, error) {
		return r.executeWithRetry(resCtx, r.primary, prompt)
	})
	if err == nil {
		return resp, nil
	}

	if r.fallback == nil {
		return nil, err
	}

	r.logger.Warn().Err(err).Msg("primary model exhausted, switching to fallback")
	if r.onFallback != nil {
		r.onFallback()
	}

	resp, err = r.fallback.Generate(resCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("both primary and fallback failed: %w", err)
	}

	if resp.Metadata == nil {
		resp.Metadata = make(map[string]any)
	}
	resp.Metadata["fallback_used"] = true

	return resp, nil
}

func (r *ResilientProvider) executeWithRetry(ctx context.Context, p repository.AIProvider, prompt string) (*entity.AIResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		resp, err := p.Generate(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == r.maxRetries {
			break
		}

		select {
		case <-time.After(r.calculateBackoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// isRetryable matches rate limits (429), server errors (5xx) and overload signals.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "deadline")
}

func (r *ResilientProvider) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.baseDelay) * float64(int(1)<<attempt)
	jitter := (rand.Float64() * 0.2) * backoff // 20% jitter
	return time.Duration(backoff + jitter)
}
