// Package metrics exposes Prometheus counters for the sweep and the editor.
package metrics

import (
	"net/http"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
	ResultIdle     = "idle"
)

// Recorder records bot metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	once           sync.Once
	registry       *prom.Registry
	sweeps         *prom.CounterVec
	roleChanges    *prom.CounterVec
	announcements  *prom.CounterVec
	unresolved     prom.Counter
	sessions       *prom.CounterVec
	activeSessions prom.Gauge
	mutations      *prom.CounterVec
}

// NewRecorder constructs and registers the metrics on reg (a fresh registry
// when nil).
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{registry: reg}
	r.once.Do(func() {
		r.sweeps = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "birthdaybot",
			Name:      "sweeps_total",
			Help:      "Birthday sweeps by outcome",
		}, []string{"result"})
		r.roleChanges = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "birthdaybot",
			Name:      "role_changes_total",
			Help:      "Birthday role grants and revocations",
		}, []string{"action", "result"})
		r.announcements = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "birthdaybot",
			Name:      "announcements_total",
			Help:      "Birthday announcements sent",
		}, []string{"result"})
		r.unresolved = prom.NewCounter(prom.CounterOpts{
			Namespace: "birthdaybot",
			Name:      "unresolved_members_total",
			Help:      "Records skipped because the member could not be resolved",
		})
		r.sessions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "birthdaybot",
			Name:      "sessions_total",
			Help:      "Editor session lifecycle events",
		}, []string{"kind", "event"})
		r.activeSessions = prom.NewGauge(prom.GaugeOpts{
			Namespace: "birthdaybot",
			Name:      "active_sessions",
			Help:      "Live editor sessions",
		})
		r.mutations = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "birthdaybot",
			Name:      "mutations_total",
			Help:      "Birthday and settings mutations by operation and result",
		}, []string{"op", "result"})
		reg.MustRegister(r.sweeps, r.roleChanges, r.announcements, r.unresolved,
			r.sessions, r.activeSessions, r.mutations)
	})
	return r
}

// Handler serves the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prom.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (r *Recorder) IncSweep(result string) {
	if r == nil {
		return
	}
	r.sweeps.WithLabelValues(result).Inc()
}

func (r *Recorder) IncRoleChange(action string, ok bool) {
	if r == nil {
		return
	}
	r.roleChanges.WithLabelValues(action, outcome(ok)).Inc()
}

func (r *Recorder) IncAnnouncement(ok bool) {
	if r == nil {
		return
	}
	r.announcements.WithLabelValues(outcome(ok)).Inc()
}

func (r *Recorder) IncUnresolvedMember() {
	if r == nil {
		return
	}
	r.unresolved.Inc()
}

func (r *Recorder) IncSession(kind, event string) {
	if r == nil {
		return
	}
	r.sessions.WithLabelValues(kind, event).Inc()
}

func (r *Recorder) SetActiveSessions(n int) {
	if r == nil {
		return
	}
	r.activeSessions.Set(float64(n))
}

func (r *Recorder) IncMutation(op, result string) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(op, result).Inc()
}

func outcome(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailed
}
