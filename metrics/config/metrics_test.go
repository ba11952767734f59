package config

import (
	"testing"

	mainConfig "github.com/brittanyzellman/prebid-tlx/config"
	"github.com/brittanyzellman/prebid-tlx/metrics"
	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
)

// Start a simple test to insure we get valid MetricsEngines for various configurations
func TestDummyMetricsEngine(t *testing.T) {
	cfg := mainConfig.Configuration{}
	testEngine := NewMetricsEngine(&cfg, nil)
	_, ok := testEngine.MetricsEngine.(*DummyMetricsEngine)
	assert.True(t, ok, "Expected a DummyMetricsEngine, but didn't get it")
}

func TestGoMetricsEngine(t *testing.T) {
	cfg := mainConfig.Configuration{}
	cfg.Metrics.GoMetrics.Enabled = true
	cfg.Metrics.GoMetrics.Prefix = "tlx."
	testEngine := NewMetricsEngine(&cfg, []openrtb_ext.BidderName{openrtb_ext.BidderTriplelift})
	_, ok := testEngine.MetricsEngine.(*metrics.Metrics)
	assert.True(t, ok, "Expected a go-metrics Metrics as MetricsEngine, but didn't get it")
	assert.NotNil(t, testEngine.GoMetrics)
	assert.Nil(t, testEngine.PrometheusMetrics)
}

func TestBothEngines(t *testing.T) {
	cfg := mainConfig.Configuration{}
	cfg.Metrics.GoMetrics.Enabled = true
	cfg.Metrics.Prometheus.Port = 9090
	testEngine := NewMetricsEngine(&cfg, []openrtb_ext.BidderName{openrtb_ext.BidderTriplelift})
	multi, ok := testEngine.MetricsEngine.(*MultiMetricsEngine)
	if assert.True(t, ok, "Expected a MultiMetricsEngine") {
		assert.Len(t, *multi, 2)
	}
	assert.NotNil(t, testEngine.GoMetrics)
	assert.NotNil(t, testEngine.PrometheusMetrics)
}

// Test the multiengine
func TestMultiMetricsEngine(t *testing.T) {
	adapterList := []openrtb_ext.BidderName{openrtb_ext.BidderTriplelift}
	goEngine := metrics.NewMetrics(gometrics.NewPrefixedRegistry("tlx."), adapterList)
	engineList := make(MultiMetricsEngine, 2)
	engineList[0] = goEngine
	engineList[1] = &DummyMetricsEngine{}
	var metricsEngine metrics.MetricsEngine
	metricsEngine = &engineList

	labels := metrics.Labels{
		RType:         metrics.ReqTypeAuction,
		RequestStatus: metrics.RequestStatusOK,
	}
	tlLabels := metrics.AdapterLabels{
		RType:       metrics.ReqTypeAuction,
		Adapter:     openrtb_ext.BidderTriplelift,
		AdapterBids: metrics.AdapterBidPresent,
	}

	for i := 0; i < 5; i++ {
		metricsEngine.RecordRequest(labels)
		metricsEngine.RecordBidRequests(labels, 2)
		metricsEngine.RecordAdapterRequest(tlLabels)
		metricsEngine.RecordAdapterBidReceived(tlLabels, openrtb_ext.BidTypeBanner, false)
		metricsEngine.RecordAdapterPrice(tlLabels, 1.25)
	}
	metricsEngine.RecordAdapterWarning(tlLabels, 10002)

	assert.Equal(t, int64(5), goEngine.RequestStatuses[metrics.ReqTypeAuction][metrics.RequestStatusOK].Count())
	assert.Equal(t, int64(10), goEngine.BidRequestMeter.Count())
	am := goEngine.AdapterMetrics[openrtb_ext.BidderTriplelift]
	assert.Equal(t, int64(5), am.RequestMeter.Count())
	assert.Equal(t, int64(5), am.GotBidsMeter.Count())
	assert.Equal(t, int64(5), am.MarkupMetrics[openrtb_ext.BidTypeBanner].InlineMeter.Count())
	assert.Equal(t, int64(1), am.WarningMeter.Count())
}
