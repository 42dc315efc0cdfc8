package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	evaluations             *prometheus.CounterVec
	scanSkipped             *prometheus.CounterVec
	remediations            *prometheus.CounterVec
	notificationsCreated    *prometheus.CounterVec
	notificationsSuppressed prometheus.Counter
	notificationsPurged     prometheus.Counter
	deliveries              *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	promFactory := promauto.With(reg)
	return &Metrics{
		evaluations: promFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "update_tracker_evaluations_total",
			Help: "Device evaluations labelled by resulting urgency",
		}, []string{"urgency"}),
		scanSkipped: promFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "update_tracker_scan_skipped_devices_total",
			Help: "Devices skipped during fleet scans labelled by failure kind",
		}, []string{"kind"}),
		remediations: promFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "update_tracker_remediations_total",
			Help: "Device remediations labelled by result",
		}, []string{"result"}),
		notificationsCreated: promFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "update_tracker_notifications_created_total",
			Help: "Notifications persisted labelled by urgency",
		}, []string{"urgency"}),
		notificationsSuppressed: promFactory.NewCounter(prometheus.CounterOpts{
			Name: "update_tracker_notifications_suppressed_total",
			Help: "Notification requests suppressed as duplicates",
		}),
		notificationsPurged: promFactory.NewCounter(prometheus.CounterOpts{
			Name: "update_tracker_notifications_purged_total",
			Help: "Terminal notifications removed by the retention sweep",
		}),
		deliveries: promFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "update_tracker_push_deliveries_total",
			Help: "Push delivery attempts labelled by result",
		}, []string{"result"}),
	}
}

// NewNop returns metrics registered on a private registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) Evaluated(urgency string) {
	m.evaluations.WithLabelValues(urgency).Inc()
}

func (m *Metrics) ScanSkipped(kind string) {
	m.scanSkipped.WithLabelValues(kind).Inc()
}

func (m *Metrics) Remediated(result string) {
	m.remediations.WithLabelValues(result).Inc()
}

func (m *Metrics) NotificationCreated(urgency string) {
	m.notificationsCreated.WithLabelValues(urgency).Inc()
}

func (m *Metrics) NotificationSuppressed() {
	m.notificationsSuppressed.Inc()
}

func (m *Metrics) NotificationsPurged(n int64) {
	m.notificationsPurged.Add(float64(n))
}

func (m *Metrics) Delivered(result string) {
	m.deliveries.WithLabelValues(result).Inc()
}
