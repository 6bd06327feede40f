// Package metrics provides Prometheus counters for enclosure LED control.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "amdem"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	registerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ipmi",
		Name:      "register_operations_total",
		Help:      "Register reads and writes sent to the MG9098 expander",
	}, []string{"op", "register", "result"})

	ledWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "led",
		Name:      "writes_total",
		Help:      "LED pattern updates handed to an enclosure-management backend",
	}, []string{"interface", "pattern", "result"})

	suppressedWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "led",
		Name:      "suppressed_writes_total",
		Help:      "LED pattern updates skipped because the pattern was unchanged",
	}, []string{"pattern"})
)

// ObserveRegisterOp counts a register read ("read") or write ("write").
func ObserveRegisterOp(op, register string, err error) {
	registerOps.WithLabelValues(op, register, result(err)).Inc()
}

// ObserveLEDWrite counts an LED update passed to a backend.
func ObserveLEDWrite(iface, pattern string, err error) {
	ledWrites.WithLabelValues(iface, pattern, result(err)).Inc()
}

// ObserveSuppressedWrite counts an LED update that needed no bus traffic.
func ObserveSuppressedWrite(pattern string) {
	suppressedWrites.WithLabelValues(pattern).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
