package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests          *prometheus.CounterVec
	CounterExercisesRecorded *prometheus.CounterVec
	CounterParseFailures     *prometheus.CounterVec
	CounterSetsPruned        *prometheus.CounterVec

	// histograms
	HistRequestDuration prometheus.Histogram
	HistGeminiDuration  prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("workout_log", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("workout_log", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterExercisesRecorded := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "exercises_recorded",
		Help:      "Exercise entries written to the log, by whether a record was created or merged",
	}, []string{"outcome"})
	counterParseFailures := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "parse_failures",
		Help:      "Failed free-text parses, by failure kind (transport, decode, rejected)",
	}, []string{"kind"})
	counterSetsPruned := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets_pruned",
		Help:      "Set deletions, by outcome (set, record, noop)",
	}, []string{"outcome"})

	histReqDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		Name:      "request_duration_seconds",
		Help:      "Total duration of requests in seconds",
	})
	histGeminiDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		Name:      "gemini_request_duration_seconds",
		Help:      "Duration of calls to the text-generation service in seconds",
	})

	return &Manager{
		CounterRequests:          counterRequests,
		CounterExercisesRecorded: counterExercisesRecorded,
		CounterParseFailures:     counterParseFailures,
		CounterSetsPruned:        counterSetsPruned,
		HistRequestDuration:      histReqDuration,
		HistGeminiDuration:       histGeminiDuration,
	}
}
