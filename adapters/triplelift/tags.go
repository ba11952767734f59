package triplelift

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/xorcare/pointer"

	"github.com/brittanyzellman/prebid-tlx/errortypes"
	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
	"github.com/brittanyzellman/prebid-tlx/pbs"
)

// Tag is one placement in the exchange's tag-based request format.
type Tag struct {
	Sizes             []TagSize                             `json:"sizes"`
	PrimarySize       *TagSize                              `json:"primary_size,omitempty"`
	AdTypes           []openrtb_ext.BidType                 `json:"ad_types"`
	UUID              string                                `json:"uuid"`
	Code              string                                `json:"code,omitempty"`
	AllowSmallerSizes bool                                  `json:"allow_smaller_sizes"`
	UsePmtRule        bool                                  `json:"use_pmt_rule"`
	Prebid            bool                                  `json:"prebid"`
	DisablePSA        bool                                  `json:"disable_psa"`
	Reserve           float64                               `json:"reserve,omitempty"`
	Position          *int                                  `json:"position,omitempty"`
	TrafficSourceCode string                                `json:"traffic_source_code,omitempty"`
	PrivateSizes      []TagSize                             `json:"private_sizes,omitempty"`
	SupplyType        string                                `json:"supply_type,omitempty"`
	PubClick          string                                `json:"pubclick,omitempty"`
	ExtInvCode        string                                `json:"ext_inv_code,omitempty"`
	ExternalImpID     string                                `json:"external_imp_id,omitempty"`
	Keywords          []*openrtb_ext.ExtImpTripleliftKeyVal `json:"keywords,omitempty"`
	Native            *TagNative                            `json:"native,omitempty"`
	Video             json.RawMessage                       `json:"video,omitempty"`
	RequireAssetURL   bool                                  `json:"require_asset_url,omitempty"`
}

type TagSize struct {
	Width  uint64 `json:"width"`
	Height uint64 `json:"height"`
}

type TagNative struct {
	Layouts []map[string]json.RawMessage `json:"layouts"`
}

var positions = map[string]int{
	"above": 1,
	"below": 2,
}

// videoTargeting lists the params.video keys forwarded on a tag.
var videoTargeting = map[string]bool{
	"id":              true,
	"mimes":           true,
	"minduration":     true,
	"maxduration":     true,
	"startdelay":      true,
	"skippable":       true,
	"playback_method": true,
	"frameworks":      true,
}

// BuildTags converts bid requests into exchange tags. Requests with undecodable params are
// skipped with a BadInput error. Problems with optional fields are returned as warnings.
func (a *TripleliftAdapter) BuildTags(bids []*pbs.BidRequest) ([]*Tag, []error) {
	tags := make([]*Tag, 0, len(bids))
	var errs []error
	for _, bid := range bids {
		if bid == nil {
			continue
		}
		tag, tagErrs := a.buildTag(bid)
		errs = append(errs, tagErrs...)
		if tag != nil {
			tags = append(tags, tag)
		}
	}
	return tags, errs
}

func (a *TripleliftAdapter) buildTag(bid *pbs.BidRequest) (*Tag, []error) {
	params, err := parseParams(bid.Params)
	if err != nil {
		return nil, []error{&errortypes.BadInput{Message: fmt.Sprintf("bid request %s: %v", bid.BidID, err)}}
	}

	var errs []error
	tag := &Tag{
		Sizes:             tagSizes(bid.Sizes),
		AdTypes:           make([]openrtb_ext.BidType, 0, 3),
		UUID:              bid.BidID,
		Code:              inventoryCode(params),
		AllowSmallerSizes: params.AllowSmallerSizes != nil && *params.AllowSmallerSizes,
		UsePmtRule:        params.UsePaymentRule != nil && *params.UsePaymentRule,
		Prebid:            true,
		DisablePSA:        true,
		Reserve:           params.Reserve,
		TrafficSourceCode: params.TrafficSourceCode,
		SupplyType:        params.SupplyType,
		PubClick:          params.PubClick,
		ExtInvCode:        params.ExtInvCode,
		ExternalImpID:     params.ExternalImpID,
	}
	if len(tag.Sizes) > 0 {
		tag.PrimarySize = &tag.Sizes[0]
	}
	if params.Position != "" {
		tag.Position = pointer.Int(positions[params.Position])
	}

	if isSet(params.PrivateSizes) {
		var private pbs.Sizes
		if err := json.Unmarshal(params.PrivateSizes, &private); err != nil {
			errs = append(errs, invalidParam(bid, "privateSizes", err))
		} else {
			tag.PrivateSizes = tagSizes(private)
		}
	}

	if isSet(params.Keywords) {
		keywords, err := openrtb_ext.TransformKeywords(params.Keywords, a.log)
		if err != nil {
			errs = append(errs, &errortypes.Warning{
				Message:     fmt.Sprintf("bid request %s: keywords: %v", bid.BidID, err),
				WarningCode: errortypes.InvalidKeywordWarningCode,
			})
		} else {
			tag.Keywords = keywords
		}
	}

	mediaTypes := bid.MediaTypes
	if mediaTypes == nil {
		mediaTypes = &pbs.MediaTypes{}
	}

	if bid.MediaType == string(openrtb_ext.BidTypeNative) || isSet(mediaTypes.Native) {
		tag.AdTypes = append(tag.AdTypes, openrtb_ext.BidTypeNative)
		if len(bid.NativeParams) > 0 {
			layout, err := buildNativeLayout(bid.NativeParams)
			if err != nil {
				errs = append(errs, invalidParam(bid, "nativeParams", err))
			} else {
				tag.Native = &TagNative{Layouts: []map[string]json.RawMessage{layout}}
			}
		}
	}

	legacyVideo := bid.MediaType == string(openrtb_ext.BidTypeVideo)
	if legacyVideo || mediaTypes.Video != nil {
		tag.AdTypes = append(tag.AdTypes, openrtb_ext.BidTypeVideo)
	}
	if legacyVideo || (mediaTypes.Video != nil && mediaTypes.Video.Context != pbs.VideoContextOutstream) {
		tag.RequireAssetURL = true
	}

	if isSet(params.Video) {
		video, err := videoTargetingParams(params.Video)
		if err != nil {
			errs = append(errs, invalidParam(bid, "video", err))
		} else {
			tag.Video = video
		}
	}

	noMediaTypes := bid.MediaType == "" && bid.MediaTypes == nil
	if noMediaTypes || bid.MediaType == string(openrtb_ext.BidTypeBanner) || mediaTypes.Banner != nil {
		tag.AdTypes = append(tag.AdTypes, openrtb_ext.BidTypeBanner)
	}

	return tag, errs
}

func tagSizes(sizes pbs.Sizes) []TagSize {
	out := make([]TagSize, 0, len(sizes))
	for _, s := range sizes {
		out = append(out, TagSize{Width: s.W, Height: s.H})
	}
	return out
}

func videoTargetingParams(video json.RawMessage) (json.RawMessage, error) {
	kept := make(map[string]json.RawMessage)
	err := jsonparser.ObjectEach(video, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		if !videoTargeting[string(key)] {
			return nil
		}
		raw := value
		if dataType == jsonparser.String {
			// ObjectEach hands back strings without their quotes.
			s, err := jsonparser.ParseString(value)
			if err != nil {
				return err
			}
			if raw, err = json.Marshal(s); err != nil {
				return err
			}
		}
		kept[string(key)] = append(json.RawMessage(nil), raw...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(kept)
}

func isSet(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func invalidParam(bid *pbs.BidRequest, param string, err error) error {
	return &errortypes.Warning{
		Message:     fmt.Sprintf("bid request %s: %s: %v", bid.BidID, param, err),
		WarningCode: errortypes.InvalidBidRequestWarningCode,
	}
}
