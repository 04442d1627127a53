package server

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/versemark/versemark/pkg/dataset"
	"golang.org/x/time/rate"
)

type metrics struct {
	registry    *prometheus.Registry
	toggles     *prometheus.CounterVec
	logins      *prometheus.CounterVec
	rateLimited prometheus.Counter
	wsClients   prometheus.Gauge
}

func newMetrics(catalog *dataset.Catalog) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "versemark_toggles_total",
			Help: "Checklist toggles by resulting state.",
		}, []string{"state"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "versemark_logins_total",
			Help: "Successful sign-ins by provider.",
		}, []string{"provider"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "versemark_toggles_rate_limited_total",
			Help: "Toggles rejected by the per-user rate limit.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "versemark_websocket_clients",
			Help: "Open checklist websocket connections.",
		}),
	}
	indexEntries := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "versemark_index_entries",
		Help: "Verse entries in the current scripture index.",
	}, func() float64 {
		return float64(catalog.Current().Index.Total())
	})
	loadedAt := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "versemark_dataset_loaded_timestamp_seconds",
		Help: "Unix time the current dataset was loaded.",
	}, func() float64 {
		return float64(catalog.Current().LoadedAt.Unix())
	})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.toggles, m.logins, m.rateLimited, m.wsClients,
		indexEntries, loadedAt,
	)
	return m
}

// limiterPool hands out one token bucket per user.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*limiterEntry
	rps   float64
	burst int
	now   func() time.Time
}

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

func (p *limiterPool) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *limiterPool) limits() (float64, int) {
	rps := p.rps
	if rps <= 0 {
		rps = 5
	}
	burst := p.burst
	if burst <= 0 {
		burst = 10
	}
	return rps, burst
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*limiterEntry)
	}
	now := p.clock()
	if e, ok := p.m[key]; ok {
		e.lastSeen = now
		return e.l
	}
	rps, burst := p.limits()
	e := &limiterEntry{l: rate.NewLimiter(rate.Limit(rps), burst), lastSeen: now}
	p.m[key] = e
	return e.l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

// sweep drops buckets unused for maxIdle and returns how many went. A bucket
// is kept at least until it would have refilled, so dropping it never
// hands a user more tokens than waiting would.
func (p *limiterPool) sweep(maxIdle time.Duration) int {
	rps, burst := p.limits()
	if refill := time.Duration(float64(burst) / rps * float64(time.Second)); refill > maxIdle {
		maxIdle = refill
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	cutoff := p.clock().Add(-maxIdle)
	dropped := 0
	for key, e := range p.m {
		if e.lastSeen.Before(cutoff) {
			delete(p.m, key)
			dropped++
		}
	}
	return dropped
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}
