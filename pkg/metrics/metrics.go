package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "uniclient"

const (
	Outcome_Success = "success"
	Outcome_Error   = "error"
)

// Metrics holds the collectors for signing and gateway traffic. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	signTotal       *prometheus.CounterVec
	accountsTotal   *prometheus.CounterVec
	gatewayTotal    *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. Collectors that are
// already registered are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		signTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wallet",
				Name:      "sign_total",
				Help:      "Total number of sign requests",
			},
			[]string{"wallet", "mode", "outcome"},
		),
		accountsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wallet",
				Name:      "accounts_total",
				Help:      "Total number of account discoveries",
			},
			[]string{"wallet", "outcome"},
		),
		gatewayTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total number of REST gateway requests",
			},
			[]string{"op", "outcome"},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "REST gateway request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.signTotal, err = registerOrReuse(reg, m.signTotal); err != nil {
		return nil, err
	}
	if m.accountsTotal, err = registerOrReuse(reg, m.accountsTotal); err != nil {
		return nil, err
	}
	if m.gatewayTotal, err = registerOrReuse(reg, m.gatewayTotal); err != nil {
		return nil, err
	}
	if m.gatewayDuration, err = registerOrReuse(reg, m.gatewayDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegErr) {
			if existing, ok := alreadyRegErr.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func outcome(err error) string {
	if err != nil {
		return Outcome_Error
	}
	return Outcome_Success
}

func (m *Metrics) RecordSign(wallet, mode string, err error) {
	if m == nil {
		return
	}
	m.signTotal.WithLabelValues(wallet, mode, outcome(err)).Inc()
}

func (m *Metrics) RecordAccounts(wallet string, err error) {
	if m == nil {
		return
	}
	m.accountsTotal.WithLabelValues(wallet, outcome(err)).Inc()
}

// RecordGatewayRequest counts one gateway call and observes its latency since start.
func (m *Metrics) RecordGatewayRequest(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.gatewayTotal.WithLabelValues(op, outcome(err)).Inc()
	m.gatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
