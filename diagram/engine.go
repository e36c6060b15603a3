package diagram

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 64

type Result struct {
	Output string
	Err    error
}

// Engine renders diagram sources off the UI goroutine and remembers recent
// results; the same diagram is redrawn on every resize and modal toggle.
type Engine struct {
	cache *lru.Cache[string, Result]
}

func NewEngine(cacheSize int) (*Engine, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, Result](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{cache: cache}, nil
}

// Render parses and draws source synchronously.
func (e *Engine) Render(source string) (string, error) {
	if r, ok := e.cache.Get(source); ok {
		return r.Output, r.Err
	}

	var r Result
	g, err := Parse(source)
	if err != nil {
		r.Err = err
	} else {
		r.Output, r.Err = Render(g)
	}

	e.cache.Add(source, r)
	return r.Output, r.Err
}

// RenderAsync renders in a new goroutine. The channel receives exactly one
// Result unless ctx is cancelled first, in which case it is closed empty.
func (e *Engine) RenderAsync(ctx context.Context, source string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		out, err := e.Render(source)
		select {
		case <-ctx.Done():
		case ch <- Result{Output: out, Err: err}:
		}
	}()
	return ch
}
