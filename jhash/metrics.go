package jhash

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	ops *prometheus.CounterVec
}

// newMetrics registers the operation counter with reg. A counter already
// registered by another Hash on the same registerer is shared.
func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jhash_operations_total",
		Help: "Hash operations by operation and result",
	}, []string{"op", "result"})
	if err := reg.Register(ops); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil
		}
		ops = existing
	}
	return &metrics{ops: ops}
}

func (m *metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "exists"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
