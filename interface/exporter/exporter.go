package exporter

import (
	"net/http"
	"stakeregistry/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	METRIC_ERROR_COUNT     = "error_count"
	METRIC_OPERATION_COUNT = "operation_count"
	METRIC_COMMIT_RETRIES  = "commit_retry_count"

	METRIC_PERMANENTLY_LOCKED = "permanently_locked_amount"
	METRIC_ISSUED_REWARD      = "issued_reward_amount"
	METRIC_REWARD_RATE        = "reward_amount_per_second"
	METRIC_REWARD_ACCRUAL_TS  = "reward_accrual_ts"
)

var (
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
	gatherer prometheus.Gatherer
)

// Init registers the metrics on registry. Until it runs, every update is a no-op.
func Init(registry *prometheus.Registry) {

	// Create metric spaces
	counters = make(map[string]*prometheus.CounterVec)
	gauges = make(map[string]*prometheus.GaugeVec)
	gatherer = registry

	// Register metrics
	newCounter(registry, METRIC_ERROR_COUNT, "Counts the failed operations by error category", "category")
	newCounter(registry, METRIC_OPERATION_COUNT, "Counts the committed operations by kind", "operation")
	newCounter(registry, METRIC_COMMIT_RETRIES, "Counts the commits retried after a concurrent change", "operation")

	newGauge(registry, METRIC_PERMANENTLY_LOCKED, "Native amount locked under constant lockups")
	newGauge(registry, METRIC_ISSUED_REWARD, "Native reward amount issued so far")
	newGauge(registry, METRIC_REWARD_RATE, "Current reward emission in native units per second")
	newGauge(registry, METRIC_REWARD_ACCRUAL_TS, "Timestamp of the last reward accrual")
}

func newCounter(registry *prometheus.Registry, name string, help string, label string) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stake",
		Subsystem: "registry",
		Name:      name,
		Help:      help,
	}, []string{label})
	registry.MustRegister(counter)
	counters[name] = counter
}

func newGauge(registry *prometheus.Registry, name string, help string) {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "stake",
		Subsystem: "registry",
		Name:      name,
		Help:      help,
	}, []string{"registrar"})
	registry.MustRegister(gauge)
	gauges[name] = gauge
}

func GetCounter(name string, label string) prometheus.Counter {
	if counters[name] == nil {
		return nil
	}
	return counters[name].WithLabelValues(label)
}

func GetGauge(name string, registrar string) prometheus.Gauge {
	if gauges[name] == nil {
		return nil
	}
	return gauges[name].WithLabelValues(registrar)
}

func inc(name string, label string) {
	if counter := GetCounter(name, label); counter != nil {
		counter.Inc()
	}
}

func IncErrorCount(err error) {
	inc(METRIC_ERROR_COUNT, string(domain.CategoryOf(err)))
}

func IncOperationCount(operation string) {
	inc(METRIC_OPERATION_COUNT, operation)
}

func IncCommitRetryCount(operation string) {
	inc(METRIC_COMMIT_RETRIES, operation)
}

// SetRegistrarGauges publishes the reward engine state of r.
func SetRegistrarGauges(r *domain.Registrar) {
	if gauges == nil {
		return
	}
	rate, _ := r.CurrentRewardAmountPerSecond.Float64()
	GetGauge(METRIC_PERMANENTLY_LOCKED, r.Address).Set(float64(r.PermanentlyLockedAmount))
	GetGauge(METRIC_ISSUED_REWARD, r.Address).Set(float64(r.IssuedRewardAmount))
	GetGauge(METRIC_REWARD_RATE, r.Address).Set(rate)
	GetGauge(METRIC_REWARD_ACCRUAL_TS, r.Address).Set(float64(r.RewardAccrualTs))
}

// Handler serves the registered metrics.
func Handler() http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
