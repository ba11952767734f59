package metrics

import (
	"time"

	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
)

// NilMetricsEngine implements MetricsEngine and records nothing.
type NilMetricsEngine struct{}

func (me *NilMetricsEngine) RecordConnectionAccept(success bool) {}

func (me *NilMetricsEngine) RecordConnectionClose(success bool) {}

func (me *NilMetricsEngine) RecordRequest(labels Labels) {}

func (me *NilMetricsEngine) RecordBidRequests(labels Labels, numBids int) {}

func (me *NilMetricsEngine) RecordRequestTime(labels Labels, length time.Duration) {}

func (me *NilMetricsEngine) RecordAdapterRequest(labels AdapterLabels) {}

func (me *NilMetricsEngine) RecordAdapterBidReceived(labels AdapterLabels, bidType openrtb_ext.BidType, hasRenderer bool) {
}

func (me *NilMetricsEngine) RecordAdapterPrice(labels AdapterLabels, cpm float64) {}

func (me *NilMetricsEngine) RecordAdapterTime(labels AdapterLabels, length time.Duration) {}

func (me *NilMetricsEngine) RecordAdapterWarning(labels AdapterLabels, code int) {}
