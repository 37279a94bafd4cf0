package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

// Metrics is the process-wide registry exposed on /metrics. Every method is
// safe on a nil receiver so callers never branch on METRICS_ENABLED.
type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge
	sseClients   *Gauge
	xpAwarded    *CounterVec
	levelUps     *Counter
	milestones   *Counter
	achievements *CounterVec
	assessments  *CounterVec
	redisUp      *Gauge
	redisPing    *Gauge

	all []collector
}

func NewMetrics() *Metrics {
	m := &Metrics{
		apiRequests: NewCounterVec("sf_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"sf_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight:  NewGauge("sf_api_inflight_requests", "In-flight API requests."),
		sseClients:   NewGauge("sf_sse_connections", "Open SSE connections on this instance."),
		xpAwarded:    NewCounterVec("sf_xp_awarded_total", "XP awarded by skill.", []string{"skill_id"}),
		levelUps:     NewCounter("sf_level_ups_total", "Skill level-ups."),
		milestones:   NewCounter("sf_streak_milestones_total", "Streak milestones reached."),
		achievements: NewCounterVec("sf_achievements_unlocked_total", "Achievements unlocked by id.", []string{"achievement"}),
		assessments:  NewCounterVec("sf_assessments_submitted_total", "Submitted assessments by outcome.", []string{"outcome"}),
		redisUp:      NewGauge("sf_redis_up", "1 when the last Redis ping succeeded."),
		redisPing:    NewGauge("sf_redis_ping_seconds", "Latency of the last Redis ping."),
	}
	m.all = []collector{
		m.apiRequests, m.apiLatency, m.apiInflight, m.sseClients, m.xpAwarded,
		m.levelUps, m.milestones, m.achievements, m.assessments, m.redisUp, m.redisPing,
	}
	return m
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.all {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) InflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) InflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

// SetSSEConnections records the hub's open stream count.
func (m *Metrics) SetSSEConnections(n int) {
	if m != nil {
		m.sseClients.Set(float64(n))
	}
}

func (m *Metrics) AddXP(skillID string, xp int) {
	if m == nil || xp <= 0 {
		return
	}
	m.xpAwarded.Add(float64(xp), skillID)
}

func (m *Metrics) IncLevelUp() {
	if m != nil {
		m.levelUps.Inc()
	}
}

func (m *Metrics) IncStreakMilestone() {
	if m != nil {
		m.milestones.Inc()
	}
}

func (m *Metrics) IncAchievement(id string) {
	if m != nil {
		m.achievements.Inc(id)
	}
}

// IncAssessment counts a submission; outcome is "perfect", "passed" or "failed".
func (m *Metrics) IncAssessment(outcome string) {
	if m != nil {
		m.assessments.Inc(outcome)
	}
}

// StartRedisCollector pings rdb every interval until ctx is done. The caller
// owns rdb.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
