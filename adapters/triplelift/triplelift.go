package triplelift

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/brittanyzellman/prebid-tlx/adapters"
	"github.com/brittanyzellman/prebid-tlx/capability"
	"github.com/brittanyzellman/prebid-tlx/config"
	"github.com/brittanyzellman/prebid-tlx/errortypes"
	"github.com/brittanyzellman/prebid-tlx/logger"
	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
	"github.com/brittanyzellman/prebid-tlx/pbs"
	"github.com/brittanyzellman/prebid-tlx/util/timeutil"
)

const (
	currencyUSD = "USD"
	defaultTTL  = 300
	videoTTL    = 3600
)

// TripleliftAdapter talks to the TripleLift header auction endpoint.
type TripleliftAdapter struct {
	endpoint string
	lib      string
	version  string
	detector capability.Detector
	player   pbs.OutstreamPlayer
	dom      pbs.DOM
	clock    timeutil.Time
	log      logger.Logger
}

// Environment is what the adapter needs from the page and the process around it.
// Zero fields get defaults: a static capability answer from the config, the wall clock
// and the process logger. Player and DOM may stay nil when outstream video is not rendered.
type Environment struct {
	Detector capability.Detector
	Player   pbs.OutstreamPlayer
	DOM      pbs.DOM
	Clock    timeutil.Time
	Logger   logger.Logger
}

// Builder builds a new instance of the TripleLift adapter with the given config.
func Builder(cfg config.Adapter, env Environment) (*TripleliftAdapter, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("triplelift: endpoint is required")
	}
	a := &TripleliftAdapter{
		endpoint: cfg.Endpoint,
		lib:      cfg.Lib,
		version:  cfg.Version,
		detector: env.Detector,
		player:   env.Player,
		dom:      env.DOM,
		clock:    env.Clock,
		log:      env.Logger,
	}
	if a.detector == nil {
		a.detector = capability.Static(cfg.FlashEnabled)
	}
	if a.clock == nil {
		a.clock = timeutil.RealTime{}
	}
	if a.log == nil {
		a.log = logger.Default()
	}
	return a, nil
}

func parseParams(raw json.RawMessage) (*openrtb_ext.ExtImpTriplelift, error) {
	var params openrtb_ext.ExtImpTriplelift
	if len(bytes.TrimSpace(raw)) == 0 {
		return &params, nil
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("triplelift params: %v", err)
	}
	return &params, nil
}

// inventoryCode is inventoryCode if set, else the member-scoped invCode.
func inventoryCode(params *openrtb_ext.ExtImpTriplelift) string {
	if params.InventoryCode != "" {
		return params.InventoryCode
	}
	return params.InvCode
}

// IsBidRequestValid is true if the params carry an inventoryCode, or a member and an invCode.
func (a *TripleliftAdapter) IsBidRequestValid(bid *pbs.BidRequest) bool {
	if bid == nil {
		return false
	}
	params, err := parseParams(bid.Params)
	if err != nil {
		a.log.Debugf("triplelift: bid request %s rejected: %v", bid.BidID, err)
		return false
	}
	if params.InventoryCode != "" || (params.Member != "" && params.InvCode != "") {
		return true
	}
	a.log.Debugf("triplelift: bid request %s rejected: inventoryCode, or member and invCode, are required", bid.BidID)
	return false
}

// BuildRequests makes a single GET for the first bid request. Only one placement is sent
// per call, the rest are reported back as ignored.
func (a *TripleliftAdapter) BuildRequests(bids []*pbs.BidRequest, request *pbs.BidderRequest) ([]*adapters.RequestData, []error) {
	if len(bids) == 0 || bids[0] == nil {
		return nil, []error{&errortypes.BadInput{Message: "triplelift: no bid requests to send"}}
	}

	var errs []error
	if len(bids) > 1 {
		ignored := make([]string, 0, len(bids)-1)
		for _, bid := range bids[1:] {
			if bid != nil {
				ignored = append(ignored, bid.BidID)
			}
		}
		errs = append(errs, &errortypes.Warning{
			Message:     fmt.Sprintf("triplelift: one placement per request, ignored bid requests [%s]", strings.Join(ignored, ",")),
			WarningCode: errortypes.IgnoredBidRequestWarningCode,
		})
	}

	bid := bids[0]
	params, err := parseParams(bid.Params)
	if err != nil {
		return nil, append(errs, &errortypes.BadInput{Message: err.Error()})
	}

	referrer := ""
	if request != nil {
		referrer = request.Referer
	}
	fe := "0"
	if capability.Probe(a.detector) {
		fe = "1"
	}

	q := &queryBuilder{}
	q.add("lib", a.lib)
	q.add("v", a.version)
	q.add("inv_code", inventoryCode(params))
	q.add("floor", formatFloor(floorOf(bid, params)))
	q.add("fe", fe)
	q.add("size", strings.Join(bid.Sizes.Strings(), ","))
	q.add("referrer", referrer)

	bid.StartTime = a.clock.Now()

	return []*adapters.RequestData{{
		Method: http.MethodGet,
		Uri:    a.endpoint + q.String(),
		BidIDs: []string{bid.BidID},
	}}, errs
}

// floorOf prefers the framework floor over the params floor.
func floorOf(bid *pbs.BidRequest, params *openrtb_ext.ExtImpTriplelift) float64 {
	if bid.Floor != 0 {
		return bid.Floor
	}
	if params.Floor != nil {
		return *params.Floor
	}
	return 0
}

func formatFloor(floor float64) string {
	if floor == 0 {
		return ""
	}
	return strconv.FormatFloat(floor, 'f', -1, 64)
}

// InterpretResponse turns the auction response into bids, in tag order.
func (a *TripleliftAdapter) InterpretResponse(request *pbs.BidderRequest, response *adapters.ResponseData) ([]*pbs.Bid, []error) {
	if response == nil || response.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(response.Body)) == 0 {
		return a.badResponse("empty response")
	}
	if response.StatusCode >= http.StatusBadRequest {
		return a.badResponse(fmt.Sprintf("unexpected status code %d", response.StatusCode))
	}

	var resp serverResponse
	if err := json.Unmarshal(response.Body, &resp); err != nil {
		return a.badResponse(fmt.Sprintf("malformed response: %v", err))
	}
	if resp.Error != "" {
		return a.badResponse(fmt.Sprintf("error in response: %s", resp.Error))
	}

	bids := make([]*pbs.Bid, 0, len(resp.Tags))
	var errs []error
	for _, rawTag := range resp.Tags {
		var tag serverTag
		if err := json.Unmarshal(rawTag, &tag); err != nil {
			errs = append(errs, &errortypes.BadServerResponse{Message: fmt.Sprintf("triplelift: malformed tag: %v", err)})
			continue
		}
		ad, rawAd, err := firstRTBAd(&tag)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ad == nil || ad.CPM == 0 {
			continue
		}
		bidType, err := openrtb_ext.ParseBidType(ad.AdType)
		if err != nil {
			continue
		}

		bid, bidErrs := a.newBid(request, &tag, rawTag, ad, rawAd, bidType)
		errs = append(errs, bidErrs...)
		if bid != nil {
			bids = append(bids, bid)
		}
	}
	return bids, errs
}

func (a *TripleliftAdapter) badResponse(msg string) ([]*pbs.Bid, []error) {
	a.log.Errorf("triplelift: %s", msg)
	return nil, []error{&errortypes.BadServerResponse{Message: "triplelift: " + msg}}
}

// firstRTBAd returns the first ad of the tag which carries an rtb object.
func firstRTBAd(tag *serverTag) (*rtbAd, json.RawMessage, error) {
	for _, rawAd := range tag.Ads {
		var ad rtbAd
		if err := json.Unmarshal(rawAd, &ad); err != nil {
			return nil, nil, &errortypes.BadServerResponse{Message: fmt.Sprintf("triplelift: malformed ad in tag %s: %v", tag.UUID, err)}
		}
		if ad.RTB != nil {
			return &ad, rawAd, nil
		}
	}
	return nil, nil, nil
}

// newBid maps one candidate onto a bid. The ad_type decides the creative variant, and
// that variant's payload must be present. A nil bid means the candidate was dropped.
func (a *TripleliftAdapter) newBid(request *pbs.BidderRequest, tag *serverTag, rawTag json.RawMessage, ad *rtbAd, rawAd json.RawMessage, bidType openrtb_ext.BidType) (*pbs.Bid, []error) {
	bid := &pbs.Bid{
		RequestID:  tag.UUID,
		CPM:        ad.CPM,
		CreativeID: ad.CreativeID.String(),
		DealID:     ad.DealID.String(),
		Currency:   currencyUSD,
		NetRevenue: true,
		TTL:        defaultTTL,
		MediaType:  bidType,
	}
	if request != nil {
		bid.BidderCode = request.BidderCode
		if original := request.LookupBid(tag.UUID); original != nil {
			bid.AdUnitCode = original.AdUnitCode
		}
	}
	if ad.BuyerMemberID != 0 {
		bid.Meta = &pbs.BidMeta{BuyerMemberID: ad.BuyerMemberID}
	}

	switch bidType {
	case openrtb_ext.BidTypeVideo:
		if ad.RTB.Video == nil {
			return nil, []error{missingPayload(tag, bidType)}
		}
		return bid, a.fillVideo(bid, ad, rawTag)
	case openrtb_ext.BidTypeNative:
		if ad.RTB.Native == nil {
			return nil, []error{missingPayload(tag, bidType)}
		}
		bid.Native = newNativeBid(ad.RTB.Native)
		return bid, nil
	default:
		if ad.RTB.Banner == nil {
			return nil, []error{missingPayload(tag, bidType)}
		}
		return bid, a.fillBanner(bid, ad, rawAd)
	}
}

func missingPayload(tag *serverTag, bidType openrtb_ext.BidType) error {
	return &errortypes.BadServerResponse{
		Message: fmt.Sprintf("triplelift: tag %s has ad_type %s but no %s payload", tag.UUID, bidType, bidType),
	}
}

func (a *TripleliftAdapter) fillVideo(bid *pbs.Bid, ad *rtbAd, rawTag json.RawMessage) []error {
	video := ad.RTB.Video
	bid.Width = video.PlayerWidth
	bid.Height = video.PlayerHeight
	bid.VastURL = video.AssetURL
	bid.DescriptionURL = video.AssetURL
	bid.TTL = videoTTL

	if ad.RendererURL == "" {
		return nil
	}

	adResponse, err := outstreamAdResponse(rawTag)
	if err != nil {
		a.log.Warnf("triplelift: could not build the outstream payload for %s: %v", bid.RequestID, err)
		return []error{&errortypes.Warning{
			Message:     fmt.Sprintf("triplelift: outstream payload for %s: %v", bid.RequestID, err),
			WarningCode: errortypes.RendererInstallWarningCode,
		}}
	}
	bid.AdResponse = adResponse

	renderer, err := a.newRenderer(bid.AdUnitCode, ad)
	if err != nil {
		a.log.Warnf("triplelift: renderer install failed for %s: %v", bid.RequestID, err)
		return []error{&errortypes.Warning{
			Message:     fmt.Sprintf("triplelift: renderer install failed for %s: %v", bid.RequestID, err),
			WarningCode: errortypes.RendererInstallWarningCode,
		}}
	}
	bid.Renderer = renderer
	return nil
}

// outstreamAdResponse is the server tag plus "ad", a copy of its first ad with "video"
// mirrored from rtb.video.
func outstreamAdResponse(rawTag json.RawMessage) (json.RawMessage, error) {
	firstAd, _, _, err := jsonparser.Get(rawTag, "ads", "[0]")
	if err != nil {
		return nil, err
	}
	adCopy := append([]byte(nil), firstAd...)
	if video, dataType, _, err := jsonparser.Get(adCopy, "rtb", "video"); err == nil && dataType == jsonparser.Object {
		if adCopy, err = jsonparser.Set(adCopy, video, "video"); err != nil {
			return nil, err
		}
	}
	tagCopy := append([]byte(nil), rawTag...)
	out, err := jsonparser.Set(tagCopy, adCopy, "ad")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

func (a *TripleliftAdapter) fillBanner(bid *pbs.Bid, ad *rtbAd, rawAd json.RawMessage) []error {
	banner := ad.RTB.Banner
	bid.Width = banner.Width
	bid.Height = banner.Height
	bid.Ad = banner.Content

	pixelURL, err := jsonparser.GetString(rawAd, "rtb", "trackers", "[0]", "impression_urls", "[0]")
	if err != nil {
		a.log.Warnf("triplelift: error appending tracking pixel for %s: %v", bid.RequestID, err)
		return []error{&errortypes.Warning{
			Message:     fmt.Sprintf("triplelift: no impression tracker for %s", bid.RequestID),
			WarningCode: errortypes.TrackingPixelWarningCode,
		}}
	}
	bid.Ad += createTrackPixelHTML(pixelURL)
	return nil
}
