package render

import (
	"sync"
	"sync/atomic"

	"evolve/chart"
)

// Disposer releases a chart instance. Calling it more than once is harmless.
type Disposer func()

// ChartInstance is one live drawing surface bound to a private copy of a spec.
type ChartInstance struct {
	mu       sync.Mutex
	spec     *chart.Spec
	width    int
	height   int
	cached   string
	disposed bool
}

// Spec returns the instance's own copy of the chart specification
func (ci *ChartInstance) Spec() *chart.Spec {
	return ci.spec
}

// Render draws the chart at the given size, reusing the last drawing when
// the size is unchanged. A disposed instance renders nothing.
func (ci *ChartInstance) Render(width, height int) string {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	if ci.disposed {
		return ""
	}
	if ci.cached != "" && ci.width == width && ci.height == height {
		return ci.cached
	}
	ci.width, ci.height = width, height
	ci.cached = Draw(ci.spec, width, height)
	return ci.cached
}

func (ci *ChartInstance) Disposed() bool {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.disposed
}

func (ci *ChartInstance) dispose() {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.disposed = true
	ci.cached = ""
}

// ChartEngine hands out chart instances and counts how many are alive.
type ChartEngine struct {
	live atomic.Int64
}

func NewChartEngine() *ChartEngine {
	return &ChartEngine{}
}

// Acquire creates an instance over a clone of spec. The returned Disposer
// must be called exactly once when the owning view goes away.
func (e *ChartEngine) Acquire(spec *chart.Spec) (*ChartInstance, Disposer) {
	inst := &ChartInstance{spec: spec.Clone()}
	e.live.Add(1)

	var once sync.Once
	return inst, func() {
		once.Do(func() {
			inst.dispose()
			e.live.Add(-1)
		})
	}
}

// Live reports the number of acquired, not yet disposed instances
func (e *ChartEngine) Live() int {
	return int(e.live.Load())
}
