package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Dependency-free metrics with Prometheus text exposition. Atomic values,
// one mutex around the registries.

// Counter is a monotonically increasing number.
type Counter struct {
	name string
	help string
	val  atomic.Int64
}

func (c *Counter) Inc(delta int64) { c.val.Add(delta) }
func (c *Counter) Get() int64      { return c.val.Load() }

// Gauge is an arbitrary number that can go up and down.
// Stored as float64 bits so Set/Add stay lock-free.
type Gauge struct {
	name string
	help string
	bits atomic.Uint64
}

func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }
func (g *Gauge) Add(delta float64) {
	for {
		old := g.bits.Load()
		nv := math.Float64frombits(old) + delta
		if g.bits.CompareAndSwap(old, math.Float64bits(nv)) {
			return
		}
	}
}
func (g *Gauge) Get() float64 { return math.Float64frombits(g.bits.Load()) }

// Histogram with fixed cumulative buckets plus sum and count.
type Histogram struct {
	name    string
	help    string
	buckets []float64 // sorted ascending
	counts  []atomic.Uint64
	sumBits atomic.Uint64
	count   atomic.Uint64
}

func (h *Histogram) Observe(v float64) {
	for i, ub := range h.buckets {
		if v <= ub {
			h.counts[i].Add(1)
		}
	}
	for {
		old := h.sumBits.Load()
		nv := math.Float64frombits(old) + v
		if h.sumBits.CompareAndSwap(old, math.Float64bits(nv)) {
			break
		}
	}
	h.count.Add(1)
}

// Timer observes elapsed time in milliseconds on a histogram.
type Timer struct {
	h     *Histogram
	start time.Time
}

func (h *Histogram) Start() Timer { return Timer{h: h, start: time.Now()} }
func (t Timer) Observe() {
	t.h.Observe(float64(time.Since(t.start).Milliseconds()))
}

// Registry holds named metrics and renders them in Prometheus text format.
type Registry struct {
	mu         sync.Mutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Counter returns the counter registered under name, creating it if needed.
func (r *Registry) Counter(name, help string) *Counter {
	n := sanitize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[n]; ok {
		return c
	}
	c := &Counter{name: n, help: help}
	r.counters[n] = c
	return c
}

func (r *Registry) Gauge(name, help string) *Gauge {
	n := sanitize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[n]; ok {
		return g
	}
	g := &Gauge{name: n, help: help}
	r.gauges[n] = g
	return g
}

// Histogram registers a histogram with the given upper bounds. Buckets are
// fixed at registration; callers re-requesting the name get the original.
func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	n := sanitize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[n]; ok {
		return h
	}
	bs := append([]float64(nil), buckets...)
	sort.Float64s(bs)
	h := &Histogram{name: n, help: help, buckets: bs, counts: make([]atomic.Uint64, len(bs))}
	r.histograms[n] = h
	return h
}

// Handler serves the registry in Prometheus text exposition format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		var b strings.Builder

		r.mu.Lock()
		counters := sortedKeys(r.counters)
		gauges := sortedKeys(r.gauges)
		histograms := sortedKeys(r.histograms)

		for _, name := range counters {
			c := r.counters[name]
			fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, escapeHelp(c.help), name, name, c.Get())
		}
		for _, name := range gauges {
			g := r.gauges[name]
			fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s gauge\n%s %g\n", name, escapeHelp(g.help), name, name, g.Get())
		}
		for _, name := range histograms {
			h := r.histograms[name]
			fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s histogram\n", name, escapeHelp(h.help), name)
			for i, ub := range h.buckets {
				fmt.Fprintf(&b, "%s_bucket{le=\"%g\"} %d\n", name, ub, h.counts[i].Load())
			}
			count := h.count.Load()
			fmt.Fprintf(&b, "%s_bucket{le=\"+Inf\"} %d\n", name, count)
			fmt.Fprintf(&b, "%s_sum %g\n", name, math.Float64frombits(h.sumBits.Load()))
			fmt.Fprintf(&b, "%s_count %d\n", name, count)
		}
		r.mu.Unlock()

		_, _ = w.Write([]byte(b.String()))
	})
}

// Handler serves the default registry.
func Handler() http.Handler { return Default.Handler() }

func sanitize(s string) string {
	repl := strings.NewReplacer("-", "_", ".", "_", " ", "_", "/", "_")
	return repl.Replace(s)
}

func escapeHelp(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\\", "\\\\"), "\n", "\\n")
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
