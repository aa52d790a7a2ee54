package pipeline

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "novel_comic"

// Metrics はパイプラインの実行状況を計測するメトリクスです。
// adapters.Observer を実装し、各コンポーネントのフォールバックとプレースホルダーを計上します。
type Metrics struct {
	PanelsRendered    prometheus.Counter
	Placeholders      *prometheus.CounterVec
	RedundancyToggles prometheus.Counter
	Fallbacks         *prometheus.CounterVec
	Advisories        *prometheus.CounterVec
	RedundancyScores  prometheus.Histogram
}

// NewMetrics はメトリクスを生成し reg に登録します。reg が nil の場合は登録しません。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PanelsRendered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "panels_rendered_total",
			Help:      "Total number of panel images rendered by the image model.",
		}),
		Placeholders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "placeholders_written_total",
			Help:      "Total number of placeholder images written, partitioned by asset kind.",
		}, []string{"kind"}),
		RedundancyToggles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "redundancy_toggles_total",
			Help:      "Total number of panels whose angle and type were toggled to reduce redundancy.",
		}),
		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "collaborator_fallbacks_total",
			Help:      "Total number of deterministic fallbacks, partitioned by stage.",
		}, []string{"stage"}),
		Advisories: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "continuity_advisories_total",
			Help:      "Total number of continuity advisories, partitioned by kind.",
		}, []string{"kind"}),
		RedundancyScores: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "redundancy_score",
			Help:      "Distribution of panel redundancy scores before toggling.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
}

// Fallback はフォールバックの発生を計上します。
func (m *Metrics) Fallback(_ context.Context, stage string, _ error) {
	m.Fallbacks.WithLabelValues(stage).Inc()
}

// Placeholder はプレースホルダーの書き出しを計上します。
func (m *Metrics) Placeholder(_ context.Context, kind string) {
	m.Placeholders.WithLabelValues(kind).Inc()
}
