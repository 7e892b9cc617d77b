package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collectors: метрики жизненного цикла и диспетчера уведомлений на собственном реестре.
type Collectors struct {
	Registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	queueDepth    prometheus.Gauge
}

func New() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_lifecycle_operations_total",
			Help: "Lifecycle operations by proposal kind, operation and result code.",
		}, []string{"kind", "op", "result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_notifications_total",
			Help: "Processed notification jobs by delivery result.",
		}, []string{"result"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "proposal_notification_queue_depth",
			Help: "Jobs waiting in the notification dispatcher.",
		}),
	}
	c.Registry.MustRegister(
		c.operations,
		c.notifications,
		c.queueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveOperation учитывает операцию; result: "ok" или код ошибки.
func (c *Collectors) ObserveOperation(kind, op, result string) {
	c.operations.WithLabelValues(kind, op, result).Inc()
}

func (c *Collectors) NotificationProcessed(err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.notifications.WithLabelValues(result).Inc()
}

func (c *Collectors) NotificationQueueDepth(depth int) {
	c.queueDepth.Set(float64(depth))
}
