package openrtb_ext

import (
	"encoding/json"
)

// ExtImpTriplelift defines the contract for bids[i].params when bids[i].bidder is triplelift
type ExtImpTriplelift struct {
	InventoryCode     string          `json:"inventoryCode"`
	Member            string          `json:"member"`
	InvCode           string          `json:"invCode"`
	Floor             *float64        `json:"floor"`
	Keywords          json.RawMessage `json:"keywords"`
	Position          string          `json:"position"`
	TrafficSourceCode string          `json:"trafficSourceCode"`
	UsePaymentRule    *bool           `json:"usePaymentRule"`
	AllowSmallerSizes *bool           `json:"allowSmallerSizes"`
	PrivateSizes      json.RawMessage `json:"privateSizes"`
	SupplyType        string          `json:"supplyType"`
	PubClick          string          `json:"pubClick"`
	ExtInvCode        string          `json:"extInvCode"`
	ExternalImpID     string          `json:"externalImpId"`
	Reserve           float64         `json:"reserve"`
	Video             json.RawMessage `json:"video"`
}

// ExtImpTripleliftKeyVal defines the contract for one transformed keyword entry on an outbound tag
type ExtImpTripleliftKeyVal struct {
	Key    string   `json:"key"`
	Values []string `json:"value"`
}
