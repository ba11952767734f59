package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brittanyzellman/prebid-tlx/adapters/triplelift"
	"github.com/brittanyzellman/prebid-tlx/config"
	"github.com/brittanyzellman/prebid-tlx/errortypes"
	"github.com/brittanyzellman/prebid-tlx/logger"
	"github.com/brittanyzellman/prebid-tlx/metrics"
	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
)

func newDebugTags(t *testing.T) (*metrics.Metrics, func(body string) *httptest.ResponseRecorder) {
	t.Helper()
	bidder, err := triplelift.Builder(config.Adapter{Endpoint: "//tlx.example/header/auction?"}, triplelift.Environment{Logger: &logger.Recorder{}})
	require.NoError(t, err)
	me := metrics.NewMetrics(gometrics.NewRegistry(), []openrtb_ext.BidderName{openrtb_ext.BidderTriplelift})
	handle := NewDebugTagsEndpoint(bidder, me)
	return me, func(body string) *httptest.ResponseRecorder {
		request := httptest.NewRequest("POST", "/debug/tags", strings.NewReader(body))
		recorder := httptest.NewRecorder()
		handle(recorder, request, nil)
		return recorder
	}
}

func TestDebugTags(t *testing.T) {
	me, post := newDebugTags(t)
	recorder := post(`{"bids":[
		{"bidId":"b-1","sizes":[[300,250],[300,600]],"params":{"invCode":"abc","position":"above","video":{"id":1,"ignored":true}}},
		{"bidId":"b-2","params":{"inventoryCode":"def","privateSizes":"bogus"}}
	]}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var resp struct {
		Tags   []json.RawMessage `json:"tags"`
		Errors []ResponseError   `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp.Tags, 2)
	assert.JSONEq(t, `{
		"sizes":[{"width":300,"height":250},{"width":300,"height":600}],
		"primary_size":{"width":300,"height":250},
		"ad_types":["banner"],
		"uuid":"b-1",
		"code":"abc",
		"allow_smaller_sizes":false,
		"use_pmt_rule":false,
		"prebid":true,
		"disable_psa":true,
		"position":1,
		"video":{"id":1}
	}`, string(resp.Tags[0]))

	require.Len(t, resp.Errors, 1)
	assert.Equal(t, errortypes.InvalidBidRequestWarningCode, resp.Errors[0].Code)
	assert.Contains(t, resp.Errors[0].Message, "b-2")
	assert.Equal(t, int64(1), me.RequestStatuses[metrics.ReqTypeDebugTags][metrics.RequestStatusOK].Count())
}

func TestDebugTagsBadRequest(t *testing.T) {
	me, post := newDebugTags(t)
	recorder := post(`not json`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Error parsing request")
	assert.Equal(t, int64(1), me.RequestStatuses[metrics.ReqTypeDebugTags][metrics.RequestStatusBadInput].Count())
}
