// Package metrics содержит Prometheus метрики сервиса.
// Все методы безопасно вызывать на nil-получателе: это позволяет выключать метрики конфигом.
package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор коллекторов сервиса
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec
	dbQueryErrors   *prometheus.CounterVec
	dbOpenConns     prometheus.Gauge
	dbInUseConns    prometheus.Gauge
	dbIdleConns     prometheus.Gauge
	dbWaitCount     prometheus.Gauge

	holds         *prometheus.CounterVec
	bookings      *prometheus.CounterVec
	payments      *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	sweeper       *prometheus.CounterVec
	outbox        *prometheus.CounterVec
}

// New регистрирует метрики в глобальном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer регистрирует метрики в переданном реестре
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		dbQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: labels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		dbQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Database query errors",
			ConstLabels: labels,
		}, []string{"operation"}),
		dbOpenConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "db_open_connections", Help: "Open connections", ConstLabels: labels,
		}),
		dbInUseConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "db_in_use_connections", Help: "Connections in use", ConstLabels: labels,
		}),
		dbIdleConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "db_idle_connections", Help: "Idle connections", ConstLabels: labels,
		}),
		dbWaitCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "db_wait_count", Help: "Total number of connections waited for", ConstLabels: labels,
		}),

		holds: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "holds_total",
			Help:        "Hold creation attempts by result",
			ConstLabels: labels,
		}, []string{"result"}),
		bookings: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_total",
			Help:        "Hold conversions by result",
			ConstLabels: labels,
		}, []string{"result"}),
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "payment_operations_total",
			Help:        "Payment operations by operation and result",
			ConstLabels: labels,
		}, []string{"operation", "result"}),
		cancellations: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_cancellations_total",
			Help:        "Booking cancellations by refund tier",
			ConstLabels: labels,
		}, []string{"tier"}),
		sweeper: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "sweeper_expired_total",
			Help:        "Entities expired by the sweeper",
			ConstLabels: labels,
		}, []string{"kind"}),
		outbox: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "outbox_deliveries_total",
			Help:        "Outbox delivery attempts by topic and result",
			ConstLabels: labels,
		}, []string{"topic", "result"}),
	}
}

// ObserveHTTPRequest учитывает обработанный HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDBQuery учитывает выполненный запрос к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil && err != sql.ErrNoRows {
		m.dbQueryErrors.WithLabelValues(operation).Inc()
	}
}

// SetDBPoolStats обновляет метрики пула соединений
func (m *Metrics) SetDBPoolStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.dbOpenConns.Set(float64(stats.OpenConnections))
	m.dbInUseConns.Set(float64(stats.InUse))
	m.dbIdleConns.Set(float64(stats.Idle))
	m.dbWaitCount.Set(float64(stats.WaitCount))
}

func (m *Metrics) IncHold(result string) {
	if m == nil {
		return
	}
	m.holds.WithLabelValues(result).Inc()
}

func (m *Metrics) IncBooking(result string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(result).Inc()
}

func (m *Metrics) IncPayment(operation, result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) IncCancellation(tier string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(tier).Inc()
}

func (m *Metrics) AddSweeperExpired(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweeper.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) IncOutbox(topic, result string) {
	if m == nil {
		return
	}
	m.outbox.WithLabelValues(topic, result).Inc()
}
