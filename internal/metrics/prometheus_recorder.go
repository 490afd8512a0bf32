package metrics

import (
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "glaze"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	stageResults    *prom.CounterVec
	buildMode       *prom.CounterVec
	pagesRendered   prom.Counter
	outputsDeleted  prom.Counter
	assetsPublished prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics. A nil
// registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildMode: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_mode_total",
			Help:      "Builds by mode (full or incremental)",
		}, []string{"mode"}),
		pagesRendered: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_rendered_total",
			Help:      "Pages rendered to the output directory",
		}),
		outputsDeleted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_deleted_total",
			Help:      "Orphaned or unpublished outputs removed",
		}),
		assetsPublished: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "assets_published_total",
			Help:      "Content and static assets copied to the output directory",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildMode,
		pr.pagesRendered, pr.outputsDeleted, pr.assetsPublished)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildMode(mode string) {
	if p == nil {
		return
	}
	p.buildMode.WithLabelValues(mode).Inc()
}

func (p *PrometheusRecorder) AddPagesRendered(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.pagesRendered.Add(float64(n))
}

func (p *PrometheusRecorder) AddOutputsDeleted(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.outputsDeleted.Add(float64(n))
}

func (p *PrometheusRecorder) AddAssetsPublished(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.assetsPublished.Add(float64(n))
}

// WriteTextfile writes the registry in the text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return prom.WriteToTextfile(path, p.reg)
}
