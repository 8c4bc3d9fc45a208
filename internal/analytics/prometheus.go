package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusEmitter records engine events as Prometheus counters/histograms.
// It never blocks: every Emit call is a direct, lock-free metric update.
type PrometheusEmitter struct {
	sessionsPlanned   *prometheus.CounterVec
	itemsSelected     *prometheus.CounterVec
	levelChanges      *prometheus.CounterVec
	reviewOutcomes    *prometheus.HistogramVec
	sessionsCompleted *prometheus.CounterVec
	hemisphereScore   *prometheus.GaugeVec
}

// NewPrometheusEmitter registers the engine's metrics on reg and returns an
// Emitter backed by them.
func NewPrometheusEmitter(reg prometheus.Registerer) *PrometheusEmitter {
	e := &PrometheusEmitter{
		sessionsPlanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_sessions_planned_total",
			Help: "Adaptive sessions planned, by session level.",
		}, []string{"level"}),
		itemsSelected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_items_selected_total",
			Help: "Items placed into a session queue, by selection reason.",
		}, []string{"reason"}),
		levelChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_difficulty_level_changes_total",
			Help: "Learner difficulty level changes, by trigger.",
		}, []string{"trigger"}),
		reviewOutcomes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engine_review_elapsed_days",
			Help:    "Elapsed days since last review at rescheduling time, by rating.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"rating"}),
		sessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_sessions_completed_total",
			Help: "Sessions completed.",
		}, []string{"topic"}),
		hemisphereScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "engine_hemisphere_balance_score",
			Help: "Most recent hemisphere balance score per user/topic.",
		}, []string{"user", "topic"}),
	}

	reg.MustRegister(e.sessionsPlanned, e.itemsSelected, e.levelChanges, e.reviewOutcomes, e.sessionsCompleted, e.hemisphereScore)
	return e
}

func (e *PrometheusEmitter) EmitAdaptiveSessionPlanned(ev AdaptiveSessionPlanned) {
	e.sessionsPlanned.WithLabelValues(levelLabel(ev.Level)).Inc()
}

func (e *PrometheusEmitter) EmitItemSelected(ev ItemSelected) {
	e.itemsSelected.WithLabelValues(ev.Reason).Inc()
}

func (e *PrometheusEmitter) EmitDifficultyLevelChanged(ev DifficultyLevelChanged) {
	e.levelChanges.WithLabelValues(ev.Trigger).Inc()
}

func (e *PrometheusEmitter) EmitReviewOutcome(ev ReviewOutcome) {
	e.reviewOutcomes.WithLabelValues(ratingLabel(ev.Rating)).Observe(ev.ElapsedDays)
}

func (e *PrometheusEmitter) EmitSessionCompleted(ev SessionCompleted) {
	e.sessionsCompleted.WithLabelValues(ev.TopicID).Inc()
}

func (e *PrometheusEmitter) EmitHemisphereScoreUpdated(ev HemisphereScoreUpdated) {
	e.hemisphereScore.WithLabelValues(ev.UserID, ev.TopicID).Set(ev.Score)
}

var _ Emitter = (*PrometheusEmitter)(nil)

func levelLabel(level int) string {
	switch level {
	case 1:
		return "1"
	case 2:
		return "2"
	case 3:
		return "3"
	case 4:
		return "4"
	default:
		return "unknown"
	}
}

func ratingLabel(rating int) string {
	switch rating {
	case 1:
		return "again"
	case 2:
		return "hard"
	case 3:
		return "good"
	case 4:
		return "easy"
	default:
		return "unknown"
	}
}
