package adapters

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/brittanyzellman/prebid-tlx/errortypes"
	"github.com/brittanyzellman/prebid-tlx/logger"
	"github.com/brittanyzellman/prebid-tlx/metrics"
	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
	"github.com/brittanyzellman/prebid-tlx/pbs"
	"github.com/brittanyzellman/prebid-tlx/util/timeutil"
	"golang.org/x/net/context/ctxhttp"
)

// HTTPClientConfig groups options which control how HTTP requests are made by adapters.
type HTTPClientConfig struct {
	// See IdleConnTimeout on https://golang.org/pkg/net/http/#Transport
	IdleConnTimeout time.Duration
	// See MaxIdleConns on https://golang.org/pkg/net/http/#Transport
	MaxConns int
	// See MaxIdleConnsPerHost on https://golang.org/pkg/net/http/#Transport
	MaxConnsPerHost int
}

// NewHTTPClient creates a client which obeys the rules given by the config.
func NewHTTPClient(c HTTPClientConfig) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        c.MaxConns,
			MaxIdleConnsPerHost: c.MaxConnsPerHost,
			IdleConnTimeout:     c.IdleConnTimeout,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
}

// AdaptBidder wraps a Bidder with the HTTP transport and the metrics around each call.
func AdaptBidder(bidder Bidder, client *http.Client, name openrtb_ext.BidderName, me metrics.MetricsEngine, clock timeutil.Time, log logger.Logger) *BidderAdapter {
	return &BidderAdapter{
		Bidder:     bidder,
		BidderName: name,
		Client:     client,
		me:         me,
		clock:      clock,
		log:        log,
	}
}

// BidderAdapter runs one Bidder through validate, build, call and interpret.
type BidderAdapter struct {
	Bidder     Bidder
	BidderName openrtb_ext.BidderName
	Client     *http.Client
	me         metrics.MetricsEngine
	clock      timeutil.Time
	log        logger.Logger
}

// Bid gets the bids from this bidder for the given request.
//
// A BidderAdapter *may* return bids and errors together. Warnings describe bids which went
// through in a degraded form. Fatal errors explain why bids are missing.
func (a *BidderAdapter) Bid(ctx context.Context, request *pbs.BidderRequest) ([]*pbs.Bid, []error) {
	labels := metrics.AdapterLabels{
		RType:         metrics.ReqTypeAuction,
		Adapter:       a.BidderName,
		AdapterBids:   metrics.AdapterBidNone,
		AdapterErrors: make(map[metrics.AdapterError]struct{}),
	}
	bids, errs := a.bid(ctx, request)
	if len(bids) > 0 {
		labels.AdapterBids = metrics.AdapterBidPresent
	}
	for _, err := range errs {
		if kind := metrics.ClassifyAdapterError(err); kind != "" {
			labels.AdapterErrors[kind] = struct{}{}
		} else {
			a.me.RecordAdapterWarning(labels, errortypes.ReadCode(err))
		}
	}
	a.me.RecordAdapterRequest(labels)
	for _, bid := range bids {
		a.me.RecordAdapterBidReceived(labels, bid.MediaType, bid.Renderer != nil)
		a.me.RecordAdapterPrice(labels, bid.CPM)
	}
	return bids, errs
}

func (a *BidderAdapter) bid(ctx context.Context, request *pbs.BidderRequest) ([]*pbs.Bid, []error) {
	var errs []error
	if request == nil {
		return nil, []error{&errortypes.BadInput{Message: "bidder request is missing"}}
	}

	valid := make([]*pbs.BidRequest, 0, len(request.Bids))
	for _, bid := range request.Bids {
		if bid != nil && a.Bidder.IsBidRequestValid(bid) {
			valid = append(valid, bid)
			continue
		}
		id := ""
		if bid != nil {
			id = bid.BidID
		}
		errs = append(errs, &errortypes.Warning{
			Message:     fmt.Sprintf("bid request %q failed validation and was dropped", id),
			WarningCode: errortypes.InvalidBidRequestWarningCode,
		})
	}
	if len(valid) == 0 {
		return nil, append(errs, &errortypes.BadInput{Message: "no valid bid requests"})
	}

	reqData, buildErrs := a.Bidder.BuildRequests(valid, request)
	errs = append(errs, buildErrs...)
	if len(reqData) == 0 {
		if len(buildErrs) == 0 {
			errs = append(errs, &errortypes.FailedToRequestBids{Message: "The adapter failed to generate any bid requests, but also failed to generate an error explaining why"})
		}
		return nil, errs
	}

	// Make any HTTP requests in parallel.
	// If the bidder only needs to make one, save some cycles by just using the current one.
	responseChannel := make(chan *httpCallInfo, len(reqData))
	if len(reqData) == 1 {
		responseChannel <- a.doRequest(ctx, reqData[0])
	} else {
		for _, oneReqData := range reqData {
			go func(data *RequestData) {
				responseChannel <- a.doRequest(ctx, data)
			}(oneReqData) // Method arg avoids a race condition on oneReqData
		}
	}

	var bids []*pbs.Bid
	for i := 0; i < len(reqData); i++ {
		httpInfo := <-responseChannel
		if httpInfo.err != nil {
			errs = append(errs, httpInfo.err)
			continue
		}
		moreBids, moreErrs := a.Bidder.InterpretResponse(request, httpInfo.response)
		bids = append(bids, moreBids...)
		errs = append(errs, moreErrs...)
	}

	if start := valid[0].StartTime; !start.IsZero() {
		a.me.RecordAdapterTime(metrics.AdapterLabels{RType: metrics.ReqTypeAuction, Adapter: a.BidderName}, a.clock.Now().Sub(start))
	}
	return bids, errs
}

// doRequest makes a request, handles the response, and returns the data needed by the
// Bidder interface.
func (a *BidderAdapter) doRequest(ctx context.Context, req *RequestData) *httpCallInfo {
	uri := req.Uri
	if strings.HasPrefix(uri, "//") {
		uri = "https:" + uri
	}
	httpReq, err := http.NewRequest(req.Method, uri, bytes.NewBuffer(req.Body))
	if err != nil {
		return &httpCallInfo{
			request: req,
			err:     &errortypes.BadInput{Message: err.Error()},
		}
	}
	if req.Headers != nil {
		httpReq.Header = req.Headers
	}

	httpResp, err := ctxhttp.Do(ctx, a.Client, httpReq)
	if err != nil {
		if err == context.DeadlineExceeded {
			err = &errortypes.Timeout{Message: err.Error()}
		}
		a.log.Warnf("%s call to %s failed: %v", a.BidderName, req.Uri, err)
		return &httpCallInfo{
			request: req,
			err:     err,
		}
	}
	defer httpResp.Body.Close()

	respBody, err := ioutil.ReadAll(httpResp.Body)
	if err != nil {
		return &httpCallInfo{
			request: req,
			err:     err,
		}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 400 {
		return &httpCallInfo{
			request: req,
			err: &errortypes.BadServerResponse{
				Message: fmt.Sprintf("Server responded with failure status: %d.", httpResp.StatusCode),
			},
		}
	}

	return &httpCallInfo{
		request: req,
		response: &ResponseData{
			StatusCode: httpResp.StatusCode,
			Body:       respBody,
			Headers:    httpResp.Header,
		},
	}
}

type httpCallInfo struct {
	request  *RequestData
	response *ResponseData
	err      error
}
