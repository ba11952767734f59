package endpoints

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"

	"github.com/brittanyzellman/prebid-tlx/adapters/triplelift"
	"github.com/brittanyzellman/prebid-tlx/metrics"
	"github.com/brittanyzellman/prebid-tlx/pbs"
)

// TagBuilder turns bid requests into exchange tags.
type TagBuilder interface {
	BuildTags(bids []*pbs.BidRequest) ([]*triplelift.Tag, []error)
}

type debugTagsResponse struct {
	Tags   []*triplelift.Tag `json:"tags"`
	Errors []ResponseError   `json:"errors,omitempty"`
}

// NewDebugTagsEndpoint shows the tags the exchange would receive for the posted bidder request.
func NewDebugTagsEndpoint(builder TagBuilder, metricsEngine metrics.MetricsEngine) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Add("Content-Type", "application/json")
		start := time.Now()
		labels := metrics.Labels{
			RType:         metrics.ReqTypeDebugTags,
			RequestStatus: metrics.RequestStatusOK,
		}
		defer func() {
			metricsEngine.RecordRequest(labels)
			metricsEngine.RecordRequestTime(labels, time.Since(start))
		}()

		req, err := parseBidderRequest(r)
		if err != nil {
			labels.RequestStatus = metrics.RequestStatusBadInput
			writeAuctionError(w, http.StatusBadRequest, "Error parsing request", err)
			return
		}

		tags, errs := builder.BuildTags(req.Bids)
		b, err := json.Marshal(&debugTagsResponse{
			Tags:   tags,
			Errors: responseErrors(errs),
		})
		if err != nil {
			glog.Errorf("Failed to marshal debug tags response: %v", err)
			labels.RequestStatus = metrics.RequestStatusErr
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(b)
	}
}
