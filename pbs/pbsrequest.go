package pbs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Size is one width/height pair. On the wire it is either [w,h] or "WxH".
type Size struct {
	W uint64
	H uint64
}

func (s Size) String() string {
	return strconv.FormatUint(s.W, 10) + "x" + strconv.FormatUint(s.H, 10)
}

func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal([]uint64{s.W, s.H})
}

func (s *Size) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		parts := strings.Split(strings.ToLower(str), "x")
		if len(parts) != 2 {
			return fmt.Errorf("size %q is not of the form WxH", str)
		}
		w, errW := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		h, errH := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if errW != nil || errH != nil {
			return fmt.Errorf("size %q is not of the form WxH", str)
		}
		s.W, s.H = w, h
		return nil
	}

	var pair []uint64
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("size must be [w,h] or \"WxH\", got %s", string(b))
	}
	if len(pair) != 2 {
		return fmt.Errorf("size must have exactly two dimensions, got %d", len(pair))
	}
	s.W, s.H = pair[0], pair[1]
	return nil
}

// Sizes is an ordered size list. A single [w,h] pair is accepted as shorthand for [[w,h]].
type Sizes []Size

func (s *Sizes) UnmarshalJSON(b []byte) error {
	var list []Size
	if err := json.Unmarshal(b, &list); err == nil {
		*s = list
		return nil
	}
	var single Size
	if err := json.Unmarshal(b, &single); err != nil {
		return err
	}
	*s = Sizes{single}
	return nil
}

// Strings renders every size as WxH, keeping the order.
func (s Sizes) Strings() []string {
	out := make([]string, 0, len(s))
	for _, size := range s {
		out = append(out, size.String())
	}
	return out
}

type BannerMediaType struct {
	Sizes Sizes `json:"sizes,omitempty"`
}

type VideoMediaType struct {
	Context    string `json:"context,omitempty"`
	PlayerSize Sizes  `json:"playerSize,omitempty"`
}

// MediaTypes mirrors adUnit.mediaTypes on the page.
type MediaTypes struct {
	Banner *BannerMediaType `json:"banner,omitempty"`
	Video  *VideoMediaType  `json:"video,omitempty"`
	Native json.RawMessage  `json:"native,omitempty"`
}

const VideoContextOutstream = "outstream"

// BidRequest is one requested placement for one bidder.
type BidRequest struct {
	BidID        string                     `json:"bidId"`
	AdUnitCode   string                     `json:"adUnitCode"`
	Bidder       string                     `json:"bidder"`
	Sizes        Sizes                      `json:"sizes"`
	Floor        float64                    `json:"floor,omitempty"`
	MediaType    string                     `json:"mediaType,omitempty"`
	MediaTypes   *MediaTypes                `json:"mediaTypes,omitempty"`
	NativeParams map[string]json.RawMessage `json:"nativeParams,omitempty"`
	Params       json.RawMessage            `json:"params"`

	// StartTime is stamped by the adapter when the outbound request is built.
	StartTime time.Time `json:"-"`
}

// BidderRequest groups the bid requests of one auction for one bidder together with the auction context.
type BidderRequest struct {
	BidderCode    string        `json:"bidderCode"`
	AuctionID     string        `json:"auctionId"`
	Referer       string        `json:"referer"`
	TimeoutMillis uint64        `json:"timeout,omitempty"`
	Bids          []*BidRequest `json:"bids"`
}

// LookupBid finds the bid request with the given id.
func (r *BidderRequest) LookupBid(bidID string) *BidRequest {
	if r == nil {
		return nil
	}
	for _, bid := range r.Bids {
		if bid != nil && bid.BidID == bidID {
			return bid
		}
	}
	return nil
}
