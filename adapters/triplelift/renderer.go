package triplelift

import (
	"github.com/buger/jsonparser"

	"github.com/brittanyzellman/prebid-tlx/pbs"
)

const outstreamAdText = "TripleLift Outstream Video Ad"

// newRenderer installs an outstream renderer for the ad unit. The render func hands the
// bid to the outstream player once the player library has loaded.
func (a *TripleliftAdapter) newRenderer(adUnitCode string, ad *rtbAd) (*pbs.Renderer, error) {
	renderer, err := pbs.InstallRenderer(ad.RendererID.String(), ad.RendererURL, adUnitCode, pbs.RendererConfig{
		AdText: outstreamAdText,
	})
	if err != nil {
		return nil, err
	}

	renderer.SetEventHandlers(pbs.EventHandlers{
		Impression: func() {
			a.log.Debugf("triplelift outstream video impression event for %s", adUnitCode)
		},
		Loaded: func() {
			a.log.Debugf("triplelift outstream video loaded event for %s", adUnitCode)
		},
		Ended: func() {
			a.log.Debugf("triplelift outstream renderer video event for %s", adUnitCode)
			a.hideAdUnit(adUnitCode)
		},
	})

	err = renderer.SetRender(func(bid *pbs.Bid) {
		a.renderOutstream(renderer, bid)
	})
	if err != nil {
		return nil, err
	}
	return renderer, nil
}

func (a *TripleliftAdapter) renderOutstream(renderer *pbs.Renderer, bid *pbs.Bid) {
	if a.player == nil {
		a.log.Warnf("triplelift: no outstream player to render %s", bid.RequestID)
		return
	}
	tagID, _ := jsonparser.GetInt(bid.AdResponse, "tag_id")
	uuid, _ := jsonparser.GetString(bid.AdResponse, "uuid")
	opts := pbs.OutstreamOptions{
		TagID:           int(tagID),
		Sizes:           []pbs.Size{bid.Size()},
		TargetID:        bid.AdUnitCode,
		UUID:            uuid,
		AdResponse:      bid.AdResponse,
		RendererOptions: renderer.Config,
	}
	renderer.Push(func() {
		a.player.RenderAd(opts, renderer.HandleVideoEvent)
	})
}

func (a *TripleliftAdapter) hideAdUnit(adUnitCode string) {
	if a.dom == nil || adUnitCode == "" {
		return
	}
	if err := a.dom.Hide(adUnitCode); err != nil {
		a.log.Warnf("triplelift: could not hide ad unit %s: %v", adUnitCode, err)
	}
}
