package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brittanyzellman/prebid-tlx/adapters"
	"github.com/brittanyzellman/prebid-tlx/adapters/triplelift"
	"github.com/brittanyzellman/prebid-tlx/config"
	"github.com/brittanyzellman/prebid-tlx/errortypes"
	"github.com/brittanyzellman/prebid-tlx/logger"
	"github.com/brittanyzellman/prebid-tlx/metrics"
	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
	"github.com/brittanyzellman/prebid-tlx/pbs"
	"github.com/brittanyzellman/prebid-tlx/util/timeutil"
	"github.com/brittanyzellman/prebid-tlx/util/uuidutil"
)

const bannerResponse = `{"tags":[{"uuid":"b-1","tag_id":1,"ads":[{"ad_type":"banner","cpm":1.5,"creative_id":77,
	"rtb":{"banner":{"width":300,"height":250,"content":"<div>ad</div>"},"trackers":[{"impression_urls":["http://t.example/imp"]}]}}]}]}`

func newParamsValidator(t *testing.T) openrtb_ext.BidderParamValidator {
	t.Helper()
	validator, err := openrtb_ext.NewBidderParamsValidator("../static/bidder-params")
	require.NoError(t, err)
	return validator
}

type exchangeStub struct {
	calls   int32
	lastURI atomic.Value
	status  int
	body    string
}

func (s *exchangeStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.calls, 1)
	s.lastURI.Store(r.URL.RequestURI())
	w.WriteHeader(s.status)
	w.Write([]byte(s.body))
}

func newTripleliftAuction(t *testing.T, exchangeURL string) (httprouter.Handle, *metrics.Metrics) {
	t.Helper()
	bidder, err := triplelift.Builder(config.Adapter{
		Endpoint: exchangeURL + "/header/auction?",
		Lib:      "prebid",
		Version:  "1.0.0",
	}, triplelift.Environment{Logger: &logger.Recorder{}})
	require.NoError(t, err)

	me := metrics.NewMetrics(gometrics.NewRegistry(), []openrtb_ext.BidderName{openrtb_ext.BidderTriplelift})
	adapted := adapters.AdaptBidder(bidder, http.DefaultClient, openrtb_ext.BidderTriplelift, me, timeutil.RealTime{}, &logger.Recorder{})
	cfg := &config.Configuration{AuctionTimeoutMS: 1000}
	return Auction(cfg, adapted, openrtb_ext.BidderTriplelift, newParamsValidator(t), me, uuidutil.FixedUUIDGenerator("generated-id")), me
}

func postAuction(handle httprouter.Handle, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest("POST", "/auction", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handle(recorder, request, nil)
	return recorder
}

func TestAuctionRoundTrip(t *testing.T) {
	stub := &exchangeStub{status: http.StatusOK, body: bannerResponse}
	server := httptest.NewServer(stub)
	defer server.Close()

	handle, me := newTripleliftAuction(t, server.URL)
	recorder := postAuction(handle, `{
		"referer": "http://example.com/page",
		"bids": [{"bidId":"b-1","adUnitCode":"div-1","sizes":[[300,250]],"params":{"inventoryCode":"abc","floor":1.5}}]
	}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.calls))
	assert.Equal(t, "/header/auction?lib=prebid&v=1.0.0&inv_code=abc&floor=1.5&fe=0&size=300x250&referrer=http%3A%2F%2Fexample.com%2Fpage", stub.lastURI.Load())

	var resp AuctionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "generated-id", resp.AuctionID)
	assert.Empty(t, resp.Errors)
	require.Len(t, resp.Bids, 1)
	assert.Equal(t, "b-1", resp.Bids[0].RequestID)
	assert.Equal(t, "div-1", resp.Bids[0].AdUnitCode)
	assert.Equal(t, "triplelift", resp.Bids[0].BidderCode)
	assert.Equal(t, 1.5, resp.Bids[0].CPM)
	assert.Contains(t, resp.Bids[0].Ad, "http://t.example/imp")

	assert.Equal(t, int64(1), me.RequestStatuses[metrics.ReqTypeAuction][metrics.RequestStatusOK].Count())
	assert.Equal(t, int64(1), me.BidRequestMeter.Count())
	adapterMetrics := me.AdapterMetrics[openrtb_ext.BidderTriplelift]
	assert.Equal(t, int64(1), adapterMetrics.GotBidsMeter.Count())
	assert.Equal(t, int64(1), adapterMetrics.MarkupMetrics[openrtb_ext.BidTypeBanner].InlineMeter.Count())
}

func TestAuctionKeepsAuctionID(t *testing.T) {
	stub := &exchangeStub{status: http.StatusNoContent}
	server := httptest.NewServer(stub)
	defer server.Close()

	handle, me := newTripleliftAuction(t, server.URL)
	recorder := postAuction(handle, `{"auctionId":"a-42","bids":[{"bidId":"b-1","params":{"member":"1","invCode":"x"}}]}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	var resp AuctionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "a-42", resp.AuctionID)
	assert.Empty(t, resp.Bids)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, errortypes.BadServerResponseErrorCode, resp.Errors[0].Code)
	assert.Equal(t, int64(1), me.RequestStatuses[metrics.ReqTypeAuction][metrics.RequestStatusErr].Count())
}

func TestAuctionBadRequests(t *testing.T) {
	testCases := []struct {
		description string
		body        string
	}{
		{"malformed json", `{"bids":`},
		{"no bids", `{"bids":[]}`},
	}

	for _, test := range testCases {
		stub := &exchangeStub{status: http.StatusOK, body: bannerResponse}
		server := httptest.NewServer(stub)

		handle, me := newTripleliftAuction(t, server.URL)
		recorder := postAuction(handle, test.body)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, test.description)
		assert.Contains(t, recorder.Body.String(), "Error parsing request", test.description)
		assert.Equal(t, int32(0), atomic.LoadInt32(&stub.calls), test.description)
		assert.Equal(t, int64(1), me.RequestStatuses[metrics.ReqTypeAuction][metrics.RequestStatusBadInput].Count(), test.description)
		server.Close()
	}
}

func TestAuctionInvalidParams(t *testing.T) {
	stub := &exchangeStub{status: http.StatusOK, body: bannerResponse}
	server := httptest.NewServer(stub)
	defer server.Close()

	handle, me := newTripleliftAuction(t, server.URL)
	recorder := postAuction(handle, `{"bids":[{"bidId":"b-1","params":{"member":"1"}}]}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(&stub.calls))

	var resp AuctionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Empty(t, resp.Bids)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, errortypes.InvalidBidRequestWarningCode, resp.Errors[0].Code)
	assert.Equal(t, errortypes.BadInputErrorCode, resp.Errors[1].Code)
	assert.Equal(t, int64(1), me.RequestStatuses[metrics.ReqTypeAuction][metrics.RequestStatusBadInput].Count())
}

type deadlineBidder struct {
	deadline time.Time
	ok       bool
}

func (b *deadlineBidder) Bid(ctx context.Context, request *pbs.BidderRequest) ([]*pbs.Bid, []error) {
	b.deadline, b.ok = ctx.Deadline()
	return nil, nil
}

func TestAuctionTimeout(t *testing.T) {
	testCases := []struct {
		description string
		body        string
		expected    time.Duration
	}{
		{"configured default", `{"bids":[{"bidId":"b-1","params":{"inventoryCode":"abc"}}]}`, 5 * time.Second},
		{"request timeout", `{"timeout":200,"bids":[{"bidId":"b-1","params":{"inventoryCode":"abc"}}]}`, 200 * time.Millisecond},
	}

	for _, test := range testCases {
		bidder := &deadlineBidder{}
		cfg := &config.Configuration{AuctionTimeoutMS: 5000}
		handle := Auction(cfg, bidder, openrtb_ext.BidderTriplelift, newParamsValidator(t), &metrics.NilMetricsEngine{}, uuidutil.UUIDRandomGenerator{})

		before := time.Now()
		recorder := postAuction(handle, test.body)
		assert.Equal(t, http.StatusOK, recorder.Code, test.description)
		require.True(t, bidder.ok, test.description)
		remaining := bidder.deadline.Sub(before)
		assert.True(t, remaining <= test.expected+time.Second && remaining > test.expected-time.Second, test.description)
		assert.JSONEq(t, `[]`, string(mustBids(t, recorder)), test.description)
	}
}

func mustBids(t *testing.T, recorder *httptest.ResponseRecorder) json.RawMessage {
	t.Helper()
	var resp struct {
		Bids json.RawMessage `json:"bids"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp.Bids
}
