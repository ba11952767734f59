package metrics

import (
	"fmt"
	"time"

	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
	"github.com/golang/glog"
	gometrics "github.com/rcrowley/go-metrics"
)

// Metrics is the go-metrics implementation of MetricsEngine.
type Metrics struct {
	MetricsRegistry            gometrics.Registry
	ConnectionCounter          gometrics.Counter
	ConnectionAcceptErrorMeter gometrics.Meter
	ConnectionCloseErrorMeter  gometrics.Meter
	BidRequestMeter            gometrics.Meter
	RequestTimer               gometrics.Timer
	RequestStatuses            map[RequestType]map[RequestStatus]gometrics.Meter

	AdapterMetrics map[openrtb_ext.BidderName]*AdapterMetrics
}

// AdapterMetrics houses the metrics for a particular adapter
type AdapterMetrics struct {
	NoBidMeter        gometrics.Meter
	GotBidsMeter      gometrics.Meter
	RequestMeter      gometrics.Meter
	RequestTimer      gometrics.Timer
	PriceHistogram    gometrics.Histogram
	BidsReceivedMeter gometrics.Meter
	WarningMeter      gometrics.Meter
	ErrorMeters       map[AdapterError]gometrics.Meter
	MarkupMetrics     map[openrtb_ext.BidType]*MarkupDeliveryMetrics
}

// MarkupDeliveryMetrics splits received bids by whether they need an outstream renderer.
type MarkupDeliveryMetrics struct {
	RendererMeter gometrics.Meter
	InlineMeter   gometrics.Meter
}

// NewBlankMetrics creates a Metrics object where every metric is a no-op.
func NewBlankMetrics(registry gometrics.Registry, exchanges []openrtb_ext.BidderName) *Metrics {
	blankMeter := &gometrics.NilMeter{}
	newMetrics := &Metrics{
		MetricsRegistry:            registry,
		ConnectionCounter:          gometrics.NilCounter{},
		ConnectionAcceptErrorMeter: blankMeter,
		ConnectionCloseErrorMeter:  blankMeter,
		BidRequestMeter:            blankMeter,
		RequestTimer:               &gometrics.NilTimer{},
		RequestStatuses:            make(map[RequestType]map[RequestStatus]gometrics.Meter),
		AdapterMetrics:             make(map[openrtb_ext.BidderName]*AdapterMetrics, len(exchanges)),
	}
	for _, a := range exchanges {
		newMetrics.AdapterMetrics[a] = makeBlankAdapterMetrics()
	}
	for _, t := range RequestTypes() {
		newMetrics.RequestStatuses[t] = make(map[RequestStatus]gometrics.Meter)
		for _, s := range RequestStatuses() {
			newMetrics.RequestStatuses[t][s] = blankMeter
		}
	}
	return newMetrics
}

// NewMetrics creates a Metrics object with every metric registered in the registry.
func NewMetrics(registry gometrics.Registry, exchanges []openrtb_ext.BidderName) *Metrics {
	newMetrics := NewBlankMetrics(registry, exchanges)
	newMetrics.ConnectionCounter = gometrics.GetOrRegisterCounter("active_connections", registry)
	newMetrics.ConnectionAcceptErrorMeter = gometrics.GetOrRegisterMeter("connection_accept_errors", registry)
	newMetrics.ConnectionCloseErrorMeter = gometrics.GetOrRegisterMeter("connection_close_errors", registry)
	newMetrics.BidRequestMeter = gometrics.GetOrRegisterMeter("bid_requests", registry)
	newMetrics.RequestTimer = gometrics.GetOrRegisterTimer("request_time", registry)
	for _, a := range exchanges {
		registerAdapterMetrics(registry, string(a), newMetrics.AdapterMetrics[a])
	}
	for typ, statusMap := range newMetrics.RequestStatuses {
		for stat := range statusMap {
			statusMap[stat] = gometrics.GetOrRegisterMeter("requests."+string(stat)+"."+string(typ), registry)
		}
	}
	return newMetrics
}

func makeBlankAdapterMetrics() *AdapterMetrics {
	blankMeter := &gometrics.NilMeter{}
	newAdapter := &AdapterMetrics{
		NoBidMeter:        blankMeter,
		GotBidsMeter:      blankMeter,
		RequestMeter:      blankMeter,
		RequestTimer:      &gometrics.NilTimer{},
		PriceHistogram:    &gometrics.NilHistogram{},
		BidsReceivedMeter: blankMeter,
		WarningMeter:      blankMeter,
		ErrorMeters:       make(map[AdapterError]gometrics.Meter),
		MarkupMetrics:     make(map[openrtb_ext.BidType]*MarkupDeliveryMetrics),
	}
	for _, err := range AdapterErrors() {
		newAdapter.ErrorMeters[err] = blankMeter
	}
	for _, bidType := range openrtb_ext.BidTypes() {
		newAdapter.MarkupMetrics[bidType] = &MarkupDeliveryMetrics{
			RendererMeter: blankMeter,
			InlineMeter:   blankMeter,
		}
	}
	return newAdapter
}

func registerAdapterMetrics(registry gometrics.Registry, exchange string, am *AdapterMetrics) {
	am.NoBidMeter = gometrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.requests.nobid", exchange), registry)
	am.GotBidsMeter = gometrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.requests.gotbids", exchange), registry)
	am.RequestMeter = gometrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.requests", exchange), registry)
	am.RequestTimer = gometrics.GetOrRegisterTimer(fmt.Sprintf("adapter.%s.request_time", exchange), registry)
	am.PriceHistogram = gometrics.GetOrRegisterHistogram(fmt.Sprintf("adapter.%s.prices", exchange), registry, gometrics.NewExpDecaySample(1028, 0.015))
	am.BidsReceivedMeter = gometrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.bids_received", exchange), registry)
	am.WarningMeter = gometrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.warnings", exchange), registry)
	for _, err := range AdapterErrors() {
		am.ErrorMeters[err] = gometrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.requests.%s", exchange, err), registry)
	}
	for _, bidType := range openrtb_ext.BidTypes() {
		prefix := fmt.Sprintf("adapter.%s.%s", exchange, bidType)
		am.MarkupMetrics[bidType] = &MarkupDeliveryMetrics{
			RendererMeter: gometrics.GetOrRegisterMeter(prefix+".renderer_bids_received", registry),
			InlineMeter:   gometrics.GetOrRegisterMeter(prefix+".inline_bids_received", registry),
		}
	}
}

func (me *Metrics) RecordConnectionAccept(success bool) {
	if success {
		me.ConnectionCounter.Inc(1)
	} else {
		me.ConnectionAcceptErrorMeter.Mark(1)
	}
}

func (me *Metrics) RecordConnectionClose(success bool) {
	if success {
		me.ConnectionCounter.Dec(1)
	} else {
		me.ConnectionCloseErrorMeter.Mark(1)
	}
}

// RecordRequest implements a part of the MetricsEngine interface
func (me *Metrics) RecordRequest(labels Labels) {
	if statuses, ok := me.RequestStatuses[labels.RType]; ok {
		if meter, ok := statuses[labels.RequestStatus]; ok {
			meter.Mark(1)
		}
	}
}

func (me *Metrics) RecordBidRequests(labels Labels, numBids int) {
	me.BidRequestMeter.Mark(int64(numBids))
}

// RecordRequestTime only records successful requests, as there are no labels to screen out bad ones.
func (me *Metrics) RecordRequestTime(labels Labels, length time.Duration) {
	if labels.RequestStatus == RequestStatusOK {
		me.RequestTimer.Update(length)
	}
}

// RecordAdapterRequest implements a part of the MetricsEngine interface
func (me *Metrics) RecordAdapterRequest(labels AdapterLabels) {
	am, ok := me.AdapterMetrics[labels.Adapter]
	if !ok {
		glog.Errorf("Trying to run adapter metrics on %s: adapter metrics not found", string(labels.Adapter))
		return
	}

	am.RequestMeter.Mark(1)
	switch labels.AdapterBids {
	case AdapterBidNone:
		am.NoBidMeter.Mark(1)
	case AdapterBidPresent:
		am.GotBidsMeter.Mark(1)
	default:
		glog.Warningf("No go-metrics logged for AdapterBids value: %s", labels.AdapterBids)
	}
	for errType := range labels.AdapterErrors {
		if meter, ok := am.ErrorMeters[errType]; ok {
			meter.Mark(1)
		}
	}
}

// RecordAdapterBidReceived tracks how many surfaced bids came with an outstream renderer.
func (me *Metrics) RecordAdapterBidReceived(labels AdapterLabels, bidType openrtb_ext.BidType, hasRenderer bool) {
	am, ok := me.AdapterMetrics[labels.Adapter]
	if !ok {
		glog.Errorf("Trying to run adapter bid metrics on %s: adapter metrics not found", string(labels.Adapter))
		return
	}

	am.BidsReceivedMeter.Mark(1)
	metricsForType, ok := am.MarkupMetrics[bidType]
	if !ok {
		glog.Errorf("bid metrics map entry does not exist for type %s. This is a bug, and should be reported.", bidType)
		return
	}
	if hasRenderer {
		metricsForType.RendererMeter.Mark(1)
	} else {
		metricsForType.InlineMeter.Mark(1)
	}
}

// RecordAdapterPrice generates a histogram of bid prices, in thousandths of a unit.
func (me *Metrics) RecordAdapterPrice(labels AdapterLabels, cpm float64) {
	am, ok := me.AdapterMetrics[labels.Adapter]
	if !ok {
		glog.Errorf("Trying to run adapter price metrics on %s: adapter metrics not found", string(labels.Adapter))
		return
	}
	am.PriceHistogram.Update(int64(cpm * 1000))
}

// RecordAdapterTime records the adapter response time.
func (me *Metrics) RecordAdapterTime(labels AdapterLabels, length time.Duration) {
	am, ok := me.AdapterMetrics[labels.Adapter]
	if !ok {
		glog.Errorf("Trying to run adapter latency metrics on %s: adapter metrics not found", string(labels.Adapter))
		return
	}
	am.RequestTimer.Update(length)
}

func (me *Metrics) RecordAdapterWarning(labels AdapterLabels, code int) {
	am, ok := me.AdapterMetrics[labels.Adapter]
	if !ok {
		glog.Errorf("Trying to run adapter warning metrics on %s: adapter metrics not found", string(labels.Adapter))
		return
	}
	am.WarningMeter.Mark(1)
}
