package gateway

import (
	"context"
	"sync"
	"time"

	"exam-grading-be/pkg/llm"
)

// ClientFactory builds one provider client for the pool.
type ClientFactory func() (llm.LLMProvider, error)

// ClientPool is a bounded pool of LLM clients with capped overflow
// creation. Acquire blocks up to the configured timeout when the pool is
// drained and overflow is exhausted, then fails fast with ErrPoolExhausted.
type ClientPool struct {
	factory        ClientFactory
	clients        chan llm.LLMProvider
	maxOverflow    int
	acquireTimeout time.Duration

	mu       sync.Mutex
	overflow int
}

func NewClientPool(size, maxOverflow int, acquireTimeout time.Duration, factory ClientFactory) (*ClientPool, error) {
	p := &ClientPool{
		factory:        factory,
		clients:        make(chan llm.LLMProvider, size),
		maxOverflow:    maxOverflow,
		acquireTimeout: acquireTimeout,
	}

	for i := 0; i < size; i++ {
		c, err := factory()
		if err != nil {
			return nil, err
		}
		p.clients <- c
	}

	return p, nil
}

func (p *ClientPool) Acquire(ctx context.Context) (llm.LLMProvider, error) {
	// Fast path: a pooled client is free.
	select {
	case c := <-p.clients:
		return c, nil
	default:
	}

	// Pool drained: create an overflow client if the cap allows.
	p.mu.Lock()
	if p.overflow < p.maxOverflow {
		p.overflow++
		p.mu.Unlock()
		c, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.overflow--
			p.mu.Unlock()
			return nil, err
		}
		return c, nil
	}
	p.mu.Unlock()

	// Overflow exhausted: wait bounded time for a release.
	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case c := <-p.clients:
		return c, nil
	case <-timer.C:
		return nil, ErrPoolExhausted
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a client to the pool. Overflow clients are discarded once
// the base pool is full again.
func (p *ClientPool) Release(c llm.LLMProvider) {
	select {
	case p.clients <- c:
	default:
		p.mu.Lock()
		if p.overflow > 0 {
			p.overflow--
		}
		p.mu.Unlock()
	}
}
