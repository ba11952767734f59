package adapters

import (
	"net/http"

	"github.com/brittanyzellman/prebid-tlx/pbs"
)

// Bidder is the interface a header-auction adapter implements.
//
// Its only responsibility is to turn bid requests into HTTP request(s), and turn the
// HTTP response(s) back into bids. Transport is left to the caller.
type Bidder interface {
	// IsBidRequestValid gates which bid requests may be sent at all.
	IsBidRequestValid(bid *pbs.BidRequest) bool

	// BuildRequests makes the HTTP requests which should be made to fetch bids.
	//
	// The errors should contain a list of errors which explain why this bidder's bids will be
	// "subpar" in some way. For example: some of the bid requests were ignored.
	BuildRequests(bids []*pbs.BidRequest, request *pbs.BidderRequest) ([]*RequestData, []error)

	// InterpretResponse unpacks the server's response into bids.
	//
	// The bids can be nil (for no bids), but should not contain nil elements.
	// Bids keep the order the server sent them in.
	InterpretResponse(request *pbs.BidderRequest, response *ResponseData) ([]*pbs.Bid, []error)
}

// ResponseData packages together information from the server's http.Response.
type ResponseData struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// RequestData packages together the fields needed to make an http.Request.
type RequestData struct {
	Method  string
	Uri     string
	Body    []byte
	Headers http.Header
	// BidIDs are the bid requests this call carries.
	BidIDs []string
}
