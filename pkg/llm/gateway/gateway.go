package gateway

import (
	"context"
	"math/rand"
	"time"

	"exam-grading-be/internal/pkg/logger"
	"exam-grading-be/pkg/llm"
)

// Request carries one generation call. Seed is fixed by callers that need
// reproducible grading output.
type Request struct {
	System      string
	User        string
	Temperature float64
	Seed        int
	Model       string
	MaxTokens   int
	UseCache    bool
}

// Response is the tagged result variant. Fallback responses are explicitly
// flagged so grading consumers never mistake a degraded answer for a
// confident one.
type Response struct {
	Text       string
	Cached     bool
	Fallback   bool
	Confidence float64
	Attempts   int
}

type Config struct {
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	CallTimeout    time.Duration
}

// FallbackText is the synthesized degraded payload returned when every
// retry fails and nothing is cached. Downstream parsers treat it as a
// zero-confidence grading result.
const FallbackText = `{"fallback_response": true, "requires_manual_review": true, "score": 0, "confidence": 0, "feedback": "Automatic grading was unavailable for this answer."}`

// Gateway wraps every call to the external model: cache-first lookup,
// pooled clients, rate-limit waits, classified retries and flagged
// fallbacks.
type Gateway struct {
	pool    *ClientPool
	limiter *RateLimiter
	cache   *ResponseCache
	metrics Metrics
	logger  logger.ILogger
	cfg     Config
}

func New(pool *ClientPool, limiter *RateLimiter, cache *ResponseCache, metrics Metrics, log logger.ILogger, cfg Config) *Gateway {
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 30 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	return &Gateway{
		pool:    pool,
		limiter: limiter,
		cache:   cache,
		metrics: metrics,
		logger:  log,
		cfg:     cfg,
	}
}

// Generate runs one generation call end to end. It only returns an error
// for terminal classes (auth, bad_request, pool exhaustion, cancellation);
// exhausted retries degrade to a flagged fallback response instead.
func (g *Gateway) Generate(ctx context.Context, req Request) (*Response, error) {
	key := CacheKey(req.Model, req.Temperature, req.Seed, req.System, req.User)

	// 1. Cache first: identical normalized inputs within the TTL must
	// return byte-identical output.
	if req.UseCache {
		if v, ok := g.cache.Get(key); ok {
			return &Response{Text: v, Cached: true, Confidence: 1.0}, nil
		}
	}

	// 2. Pooled client. Exceeding pool capacity fails fast, not queues.
	client, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer g.pool.Release(client)

	var lastErr error

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		// 3. Admission control: sleep out the window, bounded by ctx.
		if !g.limiter.CanMakeRequest() {
			wait := g.limiter.GetWaitTime()
			g.logger.Warn("Gateway", "Rate limit window full, waiting", map[string]interface{}{"wait": wait.String()})
			if !sleepCtx(ctx, wait) {
				lastErr = ctx.Err()
				break
			}
		}

		// 4. Invoke under a hard per-call timeout.
		start := time.Now()
		text, callErr := g.invoke(ctx, client, req)
		g.metrics.RecordAttempt(ctx, attempt+1, time.Since(start), callErr == nil)

		if callErr == nil {
			// 5. Success: record, cache, return.
			g.limiter.RecordRequest()
			if req.UseCache {
				g.cache.Put(key, text)
			}
			return &Response{Text: text, Confidence: 1.0, Attempts: attempt + 1}, nil
		}

		lastErr = callErr
		class := Classify(callErr)

		// 6. Auth and bad-request are never retried.
		if !retryable(class) {
			return nil, &GatewayError{Class: class, Err: callErr}
		}

		g.logger.Warn("Gateway", "LLM call failed, will retry", map[string]interface{}{
			"attempt": attempt + 1,
			"class":   string(class),
			"error":   callErr.Error(),
		})

		if attempt < g.cfg.MaxRetries {
			if !sleepCtx(ctx, g.backoffFor(class, attempt)) {
				lastErr = ctx.Err()
				break
			}
		}
	}

	// 7. Retries exhausted: reuse any still-cached value, else synthesize
	// a clearly-marked degraded response so the pipeline can proceed.
	if v, ok := g.cache.Get(key); ok {
		g.logger.Warn("Gateway", "Falling back to cached response", map[string]interface{}{"error": errString(lastErr)})
		return &Response{Text: v, Cached: true, Fallback: true, Confidence: 0.5}, nil
	}

	g.logger.Error("Gateway", "All retries exhausted, returning fallback response", map[string]interface{}{"error": errString(lastErr)})
	return &Response{Text: FallbackText, Fallback: true, Confidence: 0, Attempts: g.cfg.MaxRetries + 1}, nil
}

// invoke runs the provider call on its own goroutine so a stalled provider
// can never hold the caller past the hard timeout. Late results are
// discarded, not retried past the deadline.
func (g *Gateway) invoke(ctx context.Context, client llm.LLMProvider, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()

	history := []llm.Message{}
	if req.System != "" {
		history = append(history, llm.Message{Role: "system", Content: req.System})
	}
	history = append(history, llm.Message{Role: "user", Content: req.User})

	opts := []llm.Option{
		llm.WithTemperature(req.Temperature),
		llm.WithSeed(req.Seed),
	}
	if req.Model != "" {
		opts = append(opts, llm.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(req.MaxTokens))
	}

	type result struct {
		text string
		err  error
	}
	resCh := make(chan result, 1) // buffered: the worker never blocks on a gone caller

	go func() {
		text, err := client.Chat(callCtx, history, opts...)
		resCh <- result{text: text, err: err}
	}()

	select {
	case r := <-resCh:
		return r.text, r.err
	case <-callCtx.Done():
		return "", callCtx.Err()
	}
}

// backoffFor computes the class-specific delay. Rate limits honor the
// limiter's own wait time up to 60s; transient classes use exponential
// backoff with jitter capped at RetryMaxDelay.
func (g *Gateway) backoffFor(class ErrorClass, attempt int) time.Duration {
	if class == ClassRateLimited {
		wait := g.limiter.GetWaitTime()
		if wait <= 0 {
			wait = g.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt+2))
		}
		if wait > time.Minute {
			wait = time.Minute
		}
		return wait
	}

	delay := g.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > g.cfg.RetryMaxDelay {
		delay = g.cfg.RetryMaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
	return delay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
