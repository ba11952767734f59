package pbs

import (
	"encoding/json"

	"github.com/brittanyzellman/prebid-tlx/openrtb_ext"
)

// Bid is a normalized bid handed back to the auction.
//
// Exactly one of Ad, VastURL or Native carries the creative.
type Bid struct {
	RequestID      string              `json:"requestId"`
	AdUnitCode     string              `json:"adUnitCode,omitempty"`
	BidderCode     string              `json:"bidderCode,omitempty"`
	CPM            float64             `json:"cpm"`
	CreativeID     string              `json:"creativeId"`
	DealID         string              `json:"dealId,omitempty"`
	Currency       string              `json:"currency"`
	NetRevenue     bool                `json:"netRevenue"`
	TTL            int                 `json:"ttl"`
	MediaType      openrtb_ext.BidType `json:"mediaType"`
	Width          uint64              `json:"width,omitempty"`
	Height         uint64              `json:"height,omitempty"`
	Ad             string              `json:"ad,omitempty"`
	VastURL        string              `json:"vastUrl,omitempty"`
	DescriptionURL string              `json:"descriptionUrl,omitempty"`
	Native         *Native             `json:"native,omitempty"`
	AdResponse     json.RawMessage     `json:"adResponse,omitempty"`
	Meta           *BidMeta            `json:"meta,omitempty"`

	// Renderer is set for outstream video. It lives on the page and is never serialized.
	Renderer *Renderer `json:"-"`
}

// BidMeta carries exchange-specific details about the buyer.
type BidMeta struct {
	BuyerMemberID int `json:"buyerMemberId,omitempty"`
}

// Size returns the creative size as WxH.
func (b *Bid) Size() Size {
	return Size{W: b.Width, H: b.Height}
}

// Native is the framework's native asset bundle.
type Native struct {
	Title              string       `json:"title,omitempty"`
	Body               string       `json:"body,omitempty"`
	Cta                string       `json:"cta,omitempty"`
	SponsoredBy        string       `json:"sponsoredBy,omitempty"`
	Image              *NativeImage `json:"image,omitempty"`
	Icon               *NativeImage `json:"icon,omitempty"`
	ClickURL           string       `json:"clickUrl,omitempty"`
	ClickTrackers      []string     `json:"clickTrackers,omitempty"`
	ImpressionTrackers []string     `json:"impressionTrackers,omitempty"`
}

type NativeImage struct {
	URL    string `json:"url,omitempty"`
	Width  uint64 `json:"width,omitempty"`
	Height uint64 `json:"height,omitempty"`
}
