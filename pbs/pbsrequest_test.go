package pbs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizesUnmarshal(t *testing.T) {
	testCases := []struct {
		input    string
		expected Sizes
	}{
		{`[[300,250],[728,90]]`, Sizes{{W: 300, H: 250}, {W: 728, H: 90}}},
		{`[300,250]`, Sizes{{W: 300, H: 250}}},
		{`["300x250","728X90"]`, Sizes{{W: 300, H: 250}, {W: 728, H: 90}}},
		{`[]`, Sizes{}},
	}

	for _, test := range testCases {
		var sizes Sizes
		require.NoError(t, json.Unmarshal([]byte(test.input), &sizes), test.input)
		assert.Equal(t, test.expected, sizes, test.input)
	}
}

func TestSizesUnmarshalErrors(t *testing.T) {
	for _, input := range []string{`[300]`, `[[300,250,1]]`, `"300"`, `["axb"]`, `{}`} {
		var sizes Sizes
		assert.Error(t, json.Unmarshal([]byte(input), &sizes), input)
	}
}

func TestSizeStrings(t *testing.T) {
	sizes := Sizes{{W: 300, H: 250}, {W: 728, H: 90}}
	assert.Equal(t, []string{"300x250", "728x90"}, sizes.Strings())

	marshalled, err := json.Marshal(sizes)
	require.NoError(t, err)
	assert.JSONEq(t, `[[300,250],[728,90]]`, string(marshalled))
}

func TestBidRequestUnmarshal(t *testing.T) {
	body := `{
		"bidderCode": "triplelift",
		"auctionId": "a-1",
		"referer": "http://example.com/page",
		"bids": [{
			"bidId": "b-1",
			"adUnitCode": "div-1",
			"bidder": "triplelift",
			"sizes": [300, 250],
			"floor": 1.5,
			"mediaTypes": {"video": {"context": "outstream", "playerSize": [640, 480]}},
			"nativeParams": {"title": {"required": true}},
			"params": {"inventoryCode": "abc"}
		}]
	}`

	var req BidderRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.Len(t, req.Bids, 1)

	bid := req.Bids[0]
	assert.Equal(t, Sizes{{W: 300, H: 250}}, bid.Sizes)
	assert.Equal(t, 1.5, bid.Floor)
	require.NotNil(t, bid.MediaTypes)
	require.NotNil(t, bid.MediaTypes.Video)
	assert.Equal(t, VideoContextOutstream, bid.MediaTypes.Video.Context)
	assert.Equal(t, Sizes{{W: 640, H: 480}}, bid.MediaTypes.Video.PlayerSize)
	assert.JSONEq(t, `{"required": true}`, string(bid.NativeParams["title"]))
	assert.JSONEq(t, `{"inventoryCode": "abc"}`, string(bid.Params))
	assert.True(t, bid.StartTime.IsZero())
}

func TestLookupBid(t *testing.T) {
	req := &BidderRequest{Bids: []*BidRequest{nil, {BidID: "a"}, {BidID: "b"}}}

	assert.Equal(t, "b", req.LookupBid("b").BidID)
	assert.Nil(t, req.LookupBid("c"))

	var nilReq *BidderRequest
	assert.Nil(t, nilReq.LookupBid("a"))
}
