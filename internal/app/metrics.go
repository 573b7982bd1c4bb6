package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Total number of quiz sessions started",
		},
		[]string{"mode"}, // normal/review
	)

	answersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Total number of submitted answers",
		},
		[]string{"result"}, // correct/wrong
	)

	checkpointsReached = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_checkpoints_reached_total",
			Help: "Total number of checkpoints reached",
		},
	)

	questionsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_questions_skipped_total",
			Help: "Total number of skipped questions",
		},
	)

	activeRunners = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_runners_active",
			Help: "Current number of connected quiz runners",
		},
	)

	sessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_session_duration_seconds",
			Help:    "Elapsed time of finished quiz sessions",
			Buckets: prometheus.ExponentialBuckets(15, 2, 8),
		},
	)
)

func modeLabel(review bool) string {
	if review {
		return "review"
	}
	return "normal"
}

func resultLabel(correct bool) string {
	if correct {
		return "correct"
	}
	return "wrong"
}
