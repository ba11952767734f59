package triplelift

import (
	"encoding/json"

	"github.com/brittanyzellman/prebid-tlx/util/jsonutil"
)

// serverResponse is the body of /header/auction. Tags stay raw so the original
// payload can be handed to the outstream player untouched.
type serverResponse struct {
	Error string            `json:"error"`
	Tags  []json.RawMessage `json:"tags"`
}

type serverTag struct {
	UUID      string            `json:"uuid"`
	TagID     int               `json:"tag_id"`
	AuctionID string            `json:"auction_id"`
	NoBid     bool              `json:"nobid"`
	Ads       []json.RawMessage `json:"ads"`
}

type rtbAd struct {
	AdType        string               `json:"ad_type"`
	CPM           float64              `json:"cpm"`
	CreativeID    jsonutil.ForceString `json:"creative_id"`
	DealID        jsonutil.ForceString `json:"deal_id"`
	BuyerMemberID int                  `json:"buyer_member_id"`
	RendererID    jsonutil.ForceString `json:"renderer_id"`
	RendererURL   string               `json:"renderer_url"`
	RTB           *rtbPayload          `json:"rtb"`
}

// rtbPayload holds one creative variant. ad_type says which one must be present.
type rtbPayload struct {
	Banner   *rtbBanner      `json:"banner"`
	Video    *rtbVideo       `json:"video"`
	Native   *rtbNative      `json:"native"`
	Trackers json.RawMessage `json:"trackers"`
}

type rtbBanner struct {
	Width   uint64 `json:"width"`
	Height  uint64 `json:"height"`
	Content string `json:"content"`
}

type rtbVideo struct {
	PlayerWidth  uint64 `json:"player_width"`
	PlayerHeight uint64 `json:"player_height"`
	AssetURL     string `json:"asset_url"`
	Duration     int    `json:"duration_ms"`
	Content      string `json:"content"`
}

type rtbNative struct {
	Title              string          `json:"title"`
	Desc               string          `json:"desc"`
	CtaText            string          `json:"ctatext"`
	Sponsored          string          `json:"sponsored"`
	MainImg            *rtbNativeImage `json:"main_img"`
	Icon               *rtbNativeImage `json:"icon"`
	Link               *rtbNativeLink  `json:"link"`
	ImpressionTrackers []string        `json:"impression_trackers"`
}

type rtbNativeImage struct {
	URL    string `json:"url"`
	Width  uint64 `json:"width"`
	Height uint64 `json:"height"`
}

type rtbNativeLink struct {
	URL           string   `json:"url"`
	ClickTrackers []string `json:"click_trackers"`
}
