package encoder

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lmshao/remote-desk/pkg/stats"
)

var (
	componentStatsOnce sync.Once
	componentStatsVal  *stats.ComponentStats
)

func componentStats() *stats.ComponentStats {
	componentStatsOnce.Do(func() {
		componentStatsVal = stats.New(prometheus.DefaultRegisterer, "encoder")
	})
	return componentStatsVal
}
