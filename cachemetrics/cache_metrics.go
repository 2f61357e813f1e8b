package cachemetrics

import (
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

type cacheLayerName string

const (
	CacheL1CODE     cacheLayerName = "CACHE_L1_CODE"
	CacheL2JUMPDEST cacheLayerName = "CACHE_L2_JUMPDEST"
	MissANALYSIS    cacheLayerName = "MISS_ANALYSIS"
)

var (
	cacheL1CodeTimer     = metrics.NewRegisteredTimer("analysis/cost/code/layer1", nil)
	cacheL2JumpdestTimer = metrics.NewRegisteredTimer("analysis/cost/jumpdest/layer2", nil)
	missAnalysisTimer    = metrics.NewRegisteredTimer("analysis/cost/miss", nil)

	cacheL1CodeCounter     = metrics.NewRegisteredCounter("analysis/count/code/layer1", nil)
	cacheL2JumpdestCounter = metrics.NewRegisteredCounter("analysis/count/jumpdest/layer2", nil)
	missAnalysisCounter    = metrics.NewRegisteredCounter("analysis/count/miss", nil)

	cacheL1CodeCostCounter     = metrics.NewRegisteredCounter("analysis/totalcost/code/layer1", nil)
	cacheL2JumpdestCostCounter = metrics.NewRegisteredCounter("analysis/totalcost/jumpdest/layer2", nil)
	missAnalysisCostCounter    = metrics.NewRegisteredCounter("analysis/totalcost/miss", nil)
)

// mark the info of total hit counts of each layers
func RecordCacheDepth(metricsName cacheLayerName) {
	switch metricsName {
	case CacheL1CODE:
		cacheL1CodeCounter.Inc(1)
	case CacheL2JUMPDEST:
		cacheL2JumpdestCounter.Inc(1)
	case MissANALYSIS:
		missAnalysisCounter.Inc(1)
	}
}

// mark the dalays of each layers
func RecordCacheMetrics(metricsName cacheLayerName, start time.Time) {
	switch metricsName {
	case CacheL1CODE:
		recordCost(cacheL1CodeTimer, start)
	case CacheL2JUMPDEST:
		recordCost(cacheL2JumpdestTimer, start)
	case MissANALYSIS:
		recordCost(missAnalysisTimer, start)
	}
}

// accumulate the total dalays of each layers
func RecordTotalCosts(metricsName cacheLayerName, start time.Time) {
	switch metricsName {
	case CacheL1CODE:
		accumulateCost(cacheL1CodeCostCounter, start)
	case CacheL2JUMPDEST:
		accumulateCost(cacheL2JumpdestCostCounter, start)
	case MissANALYSIS:
		accumulateCost(missAnalysisCostCounter, start)
	}
}

// Record marks a hit at the given layer with its latency.
func Record(metricsName cacheLayerName, start time.Time) {
	RecordCacheDepth(metricsName)
	RecordCacheMetrics(metricsName, start)
	RecordTotalCosts(metricsName, start)
}

func recordCost(timer *metrics.Timer, start time.Time) {
	timer.Update(time.Since(start))
}

func accumulateCost(totalcost *metrics.Counter, start time.Time) {
	totalcost.Inc(time.Since(start).Nanoseconds())
}
