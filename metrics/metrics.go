package metrics

import (
	"time"

	"github.com/brittanyzellman/prebid-tlx/errortypes"
	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
)

// Labels defines the labels that can be attached to the metrics.
type Labels struct {
	RType         RequestType
	RequestStatus RequestStatus
}

// AdapterLabels defines the labels that can be attached to the adapter metrics.
type AdapterLabels struct {
	RType         RequestType
	Adapter       openrtb_ext.BidderName
	AdapterBids   AdapterBid
	AdapterErrors map[AdapterError]struct{}
}

// RequestType : Request type enumeration
type RequestType string

// RequestStatus : The request return status
type RequestStatus string

// AdapterBid : Whether or not the adapter returned bids
type AdapterBid string

// AdapterError : Errors which may have occurred during the adapter's execution
type AdapterError string

// The request types (endpoints)
const (
	ReqTypeAuction   RequestType = "auction"
	ReqTypeDebugTags RequestType = "debug_tags"
)

func RequestTypes() []RequestType {
	return []RequestType{
		ReqTypeAuction,
		ReqTypeDebugTags,
	}
}

// Request/return status
const (
	RequestStatusOK         RequestStatus = "ok"
	RequestStatusBadInput   RequestStatus = "badinput"
	RequestStatusErr        RequestStatus = "err"
	RequestStatusNetworkErr RequestStatus = "networkerr"
)

func RequestStatuses() []RequestStatus {
	return []RequestStatus{
		RequestStatusOK,
		RequestStatusBadInput,
		RequestStatusErr,
		RequestStatusNetworkErr,
	}
}

// Adapter bid response status.
const (
	AdapterBidPresent AdapterBid = "bid"
	AdapterBidNone    AdapterBid = "nobid"
)

func AdapterBids() []AdapterBid {
	return []AdapterBid{
		AdapterBidPresent,
		AdapterBidNone,
	}
}

// Adapter execution status
const (
	AdapterErrorBadInput          AdapterError = "badinput"
	AdapterErrorBadServerResponse AdapterError = "badserverresponse"
	AdapterErrorTimeout           AdapterError = "timeout"
	AdapterErrorUnknown           AdapterError = "unknown_error"
)

func AdapterErrors() []AdapterError {
	return []AdapterError{
		AdapterErrorBadInput,
		AdapterErrorBadServerResponse,
		AdapterErrorTimeout,
		AdapterErrorUnknown,
	}
}

// ClassifyAdapterError maps a fatal adapter error onto its metrics label. Warnings map to "".
func ClassifyAdapterError(err error) AdapterError {
	if errortypes.IsWarning(err) {
		return ""
	}
	switch errortypes.ReadCode(err) {
	case errortypes.BadInputErrorCode:
		return AdapterErrorBadInput
	case errortypes.BadServerResponseErrorCode:
		return AdapterErrorBadServerResponse
	case errortypes.TimeoutErrorCode:
		return AdapterErrorTimeout
	default:
		return AdapterErrorUnknown
	}
}

// MetricsEngine is a generic interface to record metrics into the desired backend.
// The first group fires once per incoming request. The adapter group fires once per
// outgoing call to the exchange.
type MetricsEngine interface {
	RecordConnectionAccept(success bool)
	RecordConnectionClose(success bool)
	RecordRequest(labels Labels)
	RecordBidRequests(labels Labels, numBids int)
	RecordRequestTime(labels Labels, length time.Duration)
	RecordAdapterRequest(labels AdapterLabels)
	// RecordAdapterBidReceived records one surfaced bid, split by whether an outstream renderer came with it.
	RecordAdapterBidReceived(labels AdapterLabels, bidType openrtb_ext.BidType, hasRenderer bool)
	RecordAdapterPrice(labels AdapterLabels, cpm float64)
	RecordAdapterTime(labels AdapterLabels, length time.Duration)
	RecordAdapterWarning(labels AdapterLabels, code int)
}
