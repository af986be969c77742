package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LeadMetrics exposes counters/histograms for lead intake and notification fan-out.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	channelTotal     *prometheus.CounterVec
	channelLatency   *prometheus.HistogramVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead submissions received by the endpoint",
		}, []string{"type", "status"}),
		channelTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "notify",
			Name:      "channel_total",
			Help:      "Notification attempts per channel and outcome",
		}, []string{"channel", "status"}),
		channelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studio",
			Subsystem: "notify",
			Name:      "channel_duration_seconds",
			Help:      "Time spent delivering a notification per channel",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.channelTotal, m.channelLatency)
	return m
}

// ObserveSubmission counts one endpoint outcome: accepted, invalid or error.
func (m *LeadMetrics) ObserveSubmission(leadType, status string) {
	if m == nil {
		return
	}
	if leadType == "" {
		leadType = "unknown"
	}
	m.submissionsTotal.WithLabelValues(leadType, status).Inc()
}

// ObserveChannel counts one channel outcome. Skipped channels record no latency.
func (m *LeadMetrics) ObserveChannel(channel, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.channelTotal.WithLabelValues(channel, status).Inc()
	if status != "skipped" {
		m.channelLatency.WithLabelValues(channel).Observe(took.Seconds())
	}
}
