package scaler

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lmshao/remote-desk/pkg/stats"
)

// componentStats is a process-wide singleton: every Scaler built by New
// shares the same Prometheus metrics under the "scaler" component label,
// since MustRegister panics on a second registration of the same
// descriptor and tests construct many Scalers per process.
var (
	componentStatsOnce sync.Once
	componentStatsVal  *stats.ComponentStats
)

func componentStats() *stats.ComponentStats {
	componentStatsOnce.Do(func() {
		componentStatsVal = stats.New(prometheus.DefaultRegisterer, "scaler")
	})
	return componentStatsVal
}
