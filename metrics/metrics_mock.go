package metrics

import (
	"time"

	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
	"github.com/stretchr/testify/mock"
)

// MetricsEngineMock is mock for the MetricsEngine interface
type MetricsEngineMock struct {
	mock.Mock
}

func (me *MetricsEngineMock) RecordConnectionAccept(success bool) {
	me.Called(success)
}

func (me *MetricsEngineMock) RecordConnectionClose(success bool) {
	me.Called(success)
}

func (me *MetricsEngineMock) RecordRequest(labels Labels) {
	me.Called(labels)
}

func (me *MetricsEngineMock) RecordBidRequests(labels Labels, numBids int) {
	me.Called(labels, numBids)
}

func (me *MetricsEngineMock) RecordRequestTime(labels Labels, length time.Duration) {
	me.Called(labels, length)
}

func (me *MetricsEngineMock) RecordAdapterRequest(labels AdapterLabels) {
	me.Called(labels)
}

func (me *MetricsEngineMock) RecordAdapterBidReceived(labels AdapterLabels, bidType openrtb_ext.BidType, hasRenderer bool) {
	me.Called(labels, bidType, hasRenderer)
}

func (me *MetricsEngineMock) RecordAdapterPrice(labels AdapterLabels, cpm float64) {
	me.Called(labels, cpm)
}

func (me *MetricsEngineMock) RecordAdapterTime(labels AdapterLabels, length time.Duration) {
	me.Called(labels, length)
}

func (me *MetricsEngineMock) RecordAdapterWarning(labels AdapterLabels, code int) {
	me.Called(labels, code)
}
