// Package metrics exposes the register's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/tienda-register-ledger/internal/domain/ledger"
)

const namespace = "register"

// Command results
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Archive outcomes
const (
	ArchiveStored    = "stored"
	ArchiveDuplicate = "duplicate"
	ArchiveGap       = "gap"
	ArchiveFailed    = "failed"
)

// Metrics groups the collectors shared by the register API and the ledger projector
type Metrics struct {
	registry prometheus.Gatherer

	Commands       *prometheus.CounterVec
	CommandLatency *prometheus.HistogramVec
	Balance        *prometheus.GaugeVec
	LedgerEntries  *prometheus.CounterVec
	OutboxMessages *prometheus.GaugeVec
	OutboxPublish  *prometheus.CounterVec
	Archived       *prometheus.CounterVec
	LastArchivedID prometheus.Gauge
	HTTPRequests   *prometheus.CounterVec
	HTTPPanics     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry with the Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from gatherer
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: gatherer,
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Register commands by operation and result.",
		}, []string{"operation", "result"}),
		CommandLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time to validate, persist and install a register command.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		Balance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "balance",
			Help:      "Current balance of each ledger pool.",
		}, []string{"pool"}),
		LedgerEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "entries_total",
			Help:      "Ledger entries appended by kind.",
		}, []string{"kind"}),
		OutboxMessages: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "messages",
			Help:      "Outbox messages by status.",
		}, []string{"status"}),
		OutboxPublish: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "publish_total",
			Help:      "Outbox publish attempts by result.",
		}, []string{"result"}),
		Archived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "entries_total",
			Help:      "Ledger events handled by the projector by outcome.",
		}, []string{"outcome"}),
		LastArchivedID: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "last_entry_id",
			Help:      "Highest ledger entry id stored in the archive.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by method, route template and status code.",
		}, []string{"method", "route", "status"}),
		HTTPPanics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "panics_total",
			Help:      "Handler panics recovered by route template.",
		}, []string{"route"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCommand counts one command outcome and its duration
func (m *Metrics) ObserveCommand(operation, result string, seconds float64) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(operation, result).Inc()
	m.CommandLatency.WithLabelValues(operation).Observe(seconds)
}

// ObserveEntries counts appended entries and publishes the resulting balances
func (m *Metrics) ObserveEntries(entries []ledger.Entry, balances ledger.Balances) {
	if m == nil {
		return
	}
	for _, e := range entries {
		m.LedgerEntries.WithLabelValues(string(e.Kind)).Inc()
	}
	m.SetBalances(balances)
}

// SetBalances publishes both pool balances
func (m *Metrics) SetBalances(balances ledger.Balances) {
	if m == nil {
		return
	}
	m.Balance.WithLabelValues(string(ledger.PoolInvestment)).Set(toFloat(balances.Investment))
	m.Balance.WithLabelValues(string(ledger.PoolPayout)).Set(toFloat(balances.Payout))
}

// ObserveArchive counts one projector outcome
func (m *Metrics) ObserveArchive(outcome string, entryID int64) {
	if m == nil {
		return
	}
	m.Archived.WithLabelValues(outcome).Inc()
	if outcome == ArchiveStored {
		m.LastArchivedID.Set(float64(entryID))
	}
}

// ObserveRequest counts one served API request
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// ObservePanic counts a recovered handler panic
func (m *Metrics) ObservePanic(route string) {
	if m == nil {
		return
	}
	m.HTTPPanics.WithLabelValues(route).Inc()
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
