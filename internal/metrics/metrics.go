// Package metrics holds the workflow counters exported on /metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"docflow/internal/model"
)

// Transition results.
const (
	ResultOK        = "ok"
	ResultForbidden = "forbidden"
	ResultIllegal   = "illegal"
	ResultConflict  = "conflict"
	ResultError     = "error"
)

// Recorder counts workflow activity. A nil *Recorder records nothing.
type Recorder struct {
	transitions      *prometheus.CounterVec
	auditEntries     *prometheus.CounterVec
	documentsCreated *prometheus.CounterVec
}

// New registers the workflow counters on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docflow_transitions_total",
			Help: "Workflow transitions attempted, by action and result.",
		}, []string{"action", "result"}),
		auditEntries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docflow_audit_entries_total",
			Help: "Audit entries committed, by action.",
		}, []string{"action"}),
		documentsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docflow_documents_created_total",
			Help: "Documents created, by category.",
		}, []string{"category"}),
	}
}

func (r *Recorder) Transition(action, result string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(action, result).Inc()
}

func (r *Recorder) AuditEntry(action model.AuditAction) {
	if r == nil {
		return
	}
	r.auditEntries.WithLabelValues(string(action)).Inc()
}

func (r *Recorder) DocumentCreated(category model.Category) {
	if r == nil {
		return
	}
	r.documentsCreated.WithLabelValues(string(category)).Inc()
}

// ResultOf buckets a transition error into a result label.
func ResultOf(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, model.ErrForbidden):
		return ResultForbidden
	case errors.Is(err, model.ErrIllegalTransition):
		return ResultIllegal
	case errors.Is(err, model.ErrConflict):
		return ResultConflict
	}
	return ResultError
}
