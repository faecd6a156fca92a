package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"exam-grading-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns scripted results, one per call.
type fakeProvider struct {
	mu      sync.Mutex
	calls   int
	results []fakeResult
	delay   time.Duration
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	r := f.results[idx]
	return r.text, r.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestGateway(t *testing.T, provider llm.LLMProvider, cfg Config) *Gateway {
	t.Helper()
	pool, err := NewClientPool(1, 1, 100*time.Millisecond, func() (llm.LLMProvider, error) {
		return provider, nil
	})
	require.NoError(t, err)

	return New(
		pool,
		NewRateLimiter(1000, 10000),
		NewResponseCache(50, time.Minute),
		NopMetrics{},
		nopLogger{},
		cfg,
	)
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func TestGenerateCachesDeterministically(t *testing.T) {
	provider := &fakeProvider{results: []fakeResult{{text: "graded: 85"}}}
	g := newTestGateway(t, provider, Config{MaxRetries: 0})

	req := Request{System: "grader", User: "Score This  Answer", Temperature: 0.1, Seed: 42, UseCache: true}

	first, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "graded: 85", first.Text)

	// Whitespace/case variations of the same content hit the cache.
	req2 := Request{System: "GRADER", User: "score this answer", Temperature: 0.1, Seed: 42, UseCache: true}
	second, err := g.Generate(context.Background(), req2)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, provider.callCount())
}

func TestGenerateDoesNotRetryAuthErrors(t *testing.T) {
	provider := &fakeProvider{results: []fakeResult{
		{err: &llm.APIError{StatusCode: http.StatusUnauthorized, Body: "bad key"}},
	}}
	g := newTestGateway(t, provider, Config{MaxRetries: 3, RetryBaseDelay: time.Millisecond})

	_, err := g.Generate(context.Background(), Request{User: "grade"})
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, ClassAuth, gwErr.Class)
	assert.Equal(t, 1, provider.callCount())
}

func TestGenerateFallbackAfterRetries(t *testing.T) {
	provider := &fakeProvider{results: []fakeResult{
		{err: &llm.APIError{StatusCode: http.StatusInternalServerError, Body: "boom"}},
	}}
	g := newTestGateway(t, provider, Config{MaxRetries: 2, RetryBaseDelay: time.Millisecond, RetryMaxDelay: 2 * time.Millisecond})

	resp, err := g.Generate(context.Background(), Request{User: "grade", UseCache: true})
	require.NoError(t, err, "fallback must never surface as an error")

	assert.True(t, resp.Fallback)
	assert.Equal(t, float64(0), resp.Confidence)
	assert.Contains(t, resp.Text, `"fallback_response": true`)
	assert.Contains(t, resp.Text, `"score": 0`)
	assert.Equal(t, 3, provider.callCount())
}

func TestGenerateFallsBackToCachedValue(t *testing.T) {
	provider := &fakeProvider{results: []fakeResult{
		{text: "good answer"},
		{err: &llm.APIError{StatusCode: http.StatusBadGateway, Body: "down"}},
	}}
	g := newTestGateway(t, provider, Config{MaxRetries: 1, RetryBaseDelay: time.Millisecond})

	req := Request{User: "grade this", Seed: 1, UseCache: true}
	_, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	// Evict nothing; break the key by changing the seed so the cache misses,
	// then restore it after the provider starts failing.
	reqMiss := req
	reqMiss.Seed = 2
	resp, err := g.Generate(context.Background(), reqMiss)
	require.NoError(t, err)
	assert.True(t, resp.Fallback, "uncached key should synthesize a fallback")

	// The original key still has a cached value: Generate skips the provider.
	resp, err = g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, "good answer", resp.Text)
}

func TestGenerateHardTimeoutDiscardsLateResult(t *testing.T) {
	provider := &fakeProvider{
		delay:   200 * time.Millisecond,
		results: []fakeResult{{text: "too late"}},
	}
	g := newTestGateway(t, provider, Config{
		MaxRetries:     0,
		RetryBaseDelay: time.Millisecond,
		CallTimeout:    20 * time.Millisecond,
	})

	start := time.Now()
	resp, err := g.Generate(context.Background(), Request{User: "grade"})
	require.NoError(t, err)

	assert.True(t, resp.Fallback, "timeout should degrade to fallback")
	assert.Less(t, time.Since(start), 150*time.Millisecond, "caller must not be held past the hard timeout")
}

func TestPoolExhaustedFailsFast(t *testing.T) {
	provider := &fakeProvider{results: []fakeResult{{text: "ok"}}}
	pool, err := NewClientPool(1, 0, 20*time.Millisecond, func() (llm.LLMProvider, error) {
		return provider, nil
	})
	require.NoError(t, err)

	// Drain the pool.
	_, err = pool.Acquire(context.Background())
	require.NoError(t, err)

	_, err = pool.Acquire(context.Background())
	require.ErrorIs(t, err, ErrPoolExhausted)
}

func TestPoolOverflowAndRelease(t *testing.T) {
	provider := &fakeProvider{results: []fakeResult{{text: "ok"}}}
	pool, err := NewClientPool(1, 1, 10*time.Millisecond, func() (llm.LLMProvider, error) {
		return provider, nil
	})
	require.NoError(t, err)

	c1, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	// Pool drained, but one overflow client may be created.
	c2, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	// Beyond overflow: exhausted.
	_, err = pool.Acquire(context.Background())
	require.ErrorIs(t, err, ErrPoolExhausted)

	pool.Release(c1)
	c3, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, c3)
	pool.Release(c2)
	pool.Release(c3)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"429", &llm.APIError{StatusCode: 429}, ClassRateLimited},
		{"401", &llm.APIError{StatusCode: 401}, ClassAuth},
		{"403", &llm.APIError{StatusCode: 403}, ClassAuth},
		{"400", &llm.APIError{StatusCode: 400}, ClassBadRequest},
		{"422", &llm.APIError{StatusCode: 422}, ClassBadRequest},
		{"500", &llm.APIError{StatusCode: 500}, ClassServer},
		{"503", &llm.APIError{StatusCode: 503}, ClassServer},
		{"deadline", context.DeadlineExceeded, ClassNetwork},
		{"plain", errors.New("weird"), ClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
