package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"

	"github.com/brittanyzellman/prebid-tlx/config"
	"github.com/brittanyzellman/prebid-tlx/errortypes"
	"github.com/brittanyzellman/prebid-tlx/metrics"
	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
	"github.com/brittanyzellman/prebid-tlx/pbs"
	"github.com/brittanyzellman/prebid-tlx/util/uuidutil"
)

// Bidder fetches bids for a whole bidder request.
type Bidder interface {
	Bid(ctx context.Context, request *pbs.BidderRequest) ([]*pbs.Bid, []error)
}

// AuctionResponse is the body written by the /auction endpoint.
type AuctionResponse struct {
	AuctionID string          `json:"auctionId"`
	Bids      []*pbs.Bid      `json:"bids"`
	Errors    []ResponseError `json:"errors,omitempty"`
	Status    string          `json:"status,omitempty"`
}

// ResponseError is one error or warning reported back to the caller.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type auction struct {
	cfg             *config.Configuration
	bidder          Bidder
	bidderName      openrtb_ext.BidderName
	paramsValidator openrtb_ext.BidderParamValidator
	metricsEngine   metrics.MetricsEngine
	uuidGenerator   uuidutil.UUIDGenerator
}

// Auction serves a header auction for one bidder. Bids whose params fail the bidder's JSON
// schema are dropped with a warning before the bidder sees them.
func Auction(cfg *config.Configuration, bidder Bidder, bidderName openrtb_ext.BidderName, paramsValidator openrtb_ext.BidderParamValidator, metricsEngine metrics.MetricsEngine, uuidGenerator uuidutil.UUIDGenerator) httprouter.Handle {
	a := &auction{
		cfg:             cfg,
		bidder:          bidder,
		bidderName:      bidderName,
		paramsValidator: paramsValidator,
		metricsEngine:   metricsEngine,
		uuidGenerator:   uuidGenerator,
	}
	return a.auction
}

func (a *auction) auction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Add("Content-Type", "application/json")
	start := time.Now()
	labels := metrics.Labels{
		RType:         metrics.ReqTypeAuction,
		RequestStatus: metrics.RequestStatusOK,
	}
	numBids := 0
	defer func() {
		a.metricsEngine.RecordRequest(labels)
		a.metricsEngine.RecordBidRequests(labels, numBids)
		a.metricsEngine.RecordRequestTime(labels, time.Since(start))
	}()

	req, err := parseBidderRequest(r)
	if err != nil {
		if glog.V(2) {
			glog.Infof("Failed to parse /auction request: %v", err)
		}
		labels.RequestStatus = metrics.RequestStatusBadInput
		writeAuctionError(w, http.StatusBadRequest, "Error parsing request", err)
		return
	}
	numBids = len(req.Bids)

	if req.AuctionID == "" {
		id, err := a.uuidGenerator.Generate()
		if err != nil {
			labels.RequestStatus = metrics.RequestStatusErr
			writeAuctionError(w, http.StatusInternalServerError, "Error generating auction id", err)
			return
		}
		req.AuctionID = id
	}
	if req.BidderCode == "" {
		req.BidderCode = string(a.bidderName)
	}

	errs := a.validateParams(req)

	timeout := a.cfg.AuctionTimeout()
	if req.TimeoutMillis > 0 {
		timeout = time.Duration(req.TimeoutMillis) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	bids, bidErrs := a.bidder.Bid(ctx, req)
	errs = append(errs, bidErrs...)
	if bids == nil {
		bids = []*pbs.Bid{}
	}
	if len(bids) == 0 && errortypes.ContainsFatalError(bidErrs) {
		labels.RequestStatus = statusForErrors(bidErrs)
	}

	resp := AuctionResponse{
		AuctionID: req.AuctionID,
		Bids:      bids,
		Errors:    responseErrors(errs),
	}
	b, err := json.Marshal(&resp)
	if err != nil {
		glog.Errorf("Failed to marshal auction response: %v", err)
		labels.RequestStatus = metrics.RequestStatusErr
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Write(b)
}

func parseBidderRequest(r *http.Request) (*pbs.BidderRequest, error) {
	if r.Body == nil {
		return nil, fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	var req pbs.BidderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	if len(req.Bids) == 0 {
		return nil, fmt.Errorf("request has no bids")
	}
	return &req, nil
}

// validateParams drops bids whose params fail the schema.
func (a *auction) validateParams(req *pbs.BidderRequest) []error {
	var errs []error
	valid := req.Bids[:0]
	for _, bid := range req.Bids {
		if bid == nil {
			continue
		}
		if err := a.paramsValidator.Validate(a.bidderName, bid.Params); err != nil {
			errs = append(errs, &errortypes.Warning{
				Message:     fmt.Sprintf("bid request %s has invalid params: %v", bid.BidID, err),
				WarningCode: errortypes.InvalidBidRequestWarningCode,
			})
			continue
		}
		valid = append(valid, bid)
	}
	req.Bids = valid
	return errs
}

func statusForErrors(errs []error) metrics.RequestStatus {
	for _, err := range errortypes.FatalOnly(errs) {
		switch errortypes.ReadCode(err) {
		case errortypes.BadInputErrorCode:
			return metrics.RequestStatusBadInput
		case errortypes.TimeoutErrorCode:
			return metrics.RequestStatusNetworkErr
		}
	}
	return metrics.RequestStatusErr
}

func responseErrors(errs []error) []ResponseError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]ResponseError, 0, len(errs))
	for _, err := range errs {
		out = append(out, ResponseError{Code: errortypes.ReadCode(err), Message: err.Error()})
	}
	return out
}

func writeAuctionError(w http.ResponseWriter, status int, s string, err error) {
	var resp AuctionResponse
	if err != nil {
		resp.Status = fmt.Sprintf("%s: %v", s, err)
	} else {
		resp.Status = s
	}
	resp.Bids = []*pbs.Bid{}
	b, err := json.Marshal(&resp)
	if err != nil {
		glog.Errorf("Failed to marshal auction error JSON: %s", err)
		return
	}
	w.WriteHeader(status)
	w.Write(b)
}
