package triplelift

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
	jsonpatch "github.com/evanphx/json-patch"

	"github.com/brittanyzellman/prebid-tlx/pbs"
)

type nativeAsset struct {
	serverName     string
	requiredParams json.RawMessage
	minimumParams  json.RawMessage
}

func imageAsset(serverName string) nativeAsset {
	return nativeAsset{
		serverName:     serverName,
		requiredParams: json.RawMessage(`{"required":true}`),
		minimumParams:  json.RawMessage(`{"sizes":[{}]}`),
	}
}

// nativeMapping maps framework asset names onto the exchange's. Unlisted keys keep their name.
var nativeMapping = map[string]nativeAsset{
	"body":        {serverName: "description"},
	"cta":         {serverName: "ctatext"},
	"sponsoredBy": {serverName: "sponsored_by"},
	"image":       imageAsset("main_image"),
	"icon":        imageAsset("icon"),
}

// buildNativeLayout renames the requested native assets and fills in the params the exchange
// requires. Ad unit params override the required ones. An asset whose ad unit spec sets
// nothing beyond the required params also gets the minimum params.
func buildNativeLayout(nativeParams map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	if len(nativeParams) == 0 {
		return nil, nil
	}
	layout := make(map[string]json.RawMessage, len(nativeParams))
	for key, spec := range nativeParams {
		spec = assetSpec(spec)
		asset, mapped := nativeMapping[key]
		if !mapped {
			layout[key] = spec
			continue
		}

		merged := spec
		if asset.requiredParams != nil {
			var err error
			if merged, err = jsonpatch.MergePatch(asset.requiredParams, spec); err != nil {
				return nil, fmt.Errorf("native asset %s: %v", key, err)
			}
			if asset.minimumParams != nil && onlyRequiredKeys(spec, asset.requiredParams) {
				if merged, err = jsonpatch.MergePatch(merged, asset.minimumParams); err != nil {
					return nil, fmt.Errorf("native asset %s: %v", key, err)
				}
			}
		}
		layout[asset.serverName] = merged
	}
	return layout, nil
}

// assetSpec treats anything other than a JSON object as an empty spec.
func assetSpec(spec json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(spec)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return json.RawMessage(`{}`)
	}
	return trimmed
}

func onlyRequiredKeys(spec, required json.RawMessage) bool {
	only := true
	jsonparser.ObjectEach(spec, func(key []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
		if _, _, _, err := jsonparser.Get(required, string(key)); err != nil {
			only = false
		}
		return nil
	})
	return only
}

func newNativeBid(n *rtbNative) *pbs.Native {
	native := &pbs.Native{
		Title:              n.Title,
		Body:               n.Desc,
		Cta:                n.CtaText,
		SponsoredBy:        n.Sponsored,
		Image:              newNativeImage(n.MainImg),
		Icon:               newNativeImage(n.Icon),
		ImpressionTrackers: n.ImpressionTrackers,
	}
	if n.Link != nil {
		native.ClickURL = n.Link.URL
		native.ClickTrackers = n.Link.ClickTrackers
	}
	return native
}

func newNativeImage(img *rtbNativeImage) *pbs.NativeImage {
	if img == nil {
		return nil
	}
	return &pbs.NativeImage{
		URL:    img.URL,
		Width:  img.Width,
		Height: img.Height,
	}
}
