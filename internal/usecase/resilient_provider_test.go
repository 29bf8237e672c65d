package usecase

import (
	"context"
	"errors"
	"reco-core/internal/domain/entity"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResilientProvider_RetriesTransientErrors(t *testing.T) {
	primary := &stubProvider{
		errs:      []error{errors.New("googleapi: Error 503: overloaded"), nil},
		responses: []*entity.AIResponse{nil, {Content: "ok"}},
	}
	fallback := &stubProvider{}
	r := NewResilientProvider(primary, fallback, WithRetries(2, time.Millisecond))

	resp, err := r.Generate(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, primary.calls())
	assert.Equal(t, 0, fallback.calls())
}

func TestResilientProvider_FallsBackAfterExhaustion(t *testing.T) {
	primary := &stubProvider{errs: []error{errors.New("status 429")}}
	fallback := &stubProvider{responses: []*entity.AIResponse{{Content: "from fallback"}}}
	used := 0
	r := NewResilientProvider(primary, fallback, WithRetries(2, time.Millisecond), WithFallbackHook(func() { used++ }))

	resp, err := r.Generate(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "from fallback", resp.Content)
	assert.Equal(t, true, resp.Metadata["fallback_used"])
	assert.Equal(t, 3, primary.calls())
	assert.Equal(t, 1, used)
}

func TestResilientProvider_DoesNotRetryPermanentErrors(t *testing.T) {
	primary := &stubProvider{errs: []error{errors.New("invalid api key")}}
	fallback := &stubProvider{errs: []error{errors.New("invalid api key")}}
	r := NewResilientProvider(primary, fallback, WithRetries(2, time.Millisecond))

	_, err := r.Generate(context.Background(), "prompt")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "both primary and fallback failed")
	assert.Equal(t, 1, primary.calls())
}

func TestResilientProvider_NoFallback(t *testing.T) {
	primary := &stubProvider{errs: []error{errors.New("bad request")}}
	r := NewResilientProvider(primary, nil)

	_, err := r.Generate(context.Background(), "prompt")
	assert.EqualError(t, err, "bad request")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(errors.New("Error 500")))
	assert.True(t, isRetryable(context.DeadlineExceeded))
	assert.False(t, isRetryable(context.Canceled))
	assert.False(t, isRetryable(errors.New("permission denied")))
}
