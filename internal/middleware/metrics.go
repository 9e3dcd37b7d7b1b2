package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
)

var (
	metricsOnce sync.Once
	prom        *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide Prometheus HTTP middleware. The collectors
// live in the default registry, so they are created once no matter how many apps are built.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	metricsOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}
