package triplelift

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNativeLayout(t *testing.T) {
	layout, err := buildNativeLayout(map[string]json.RawMessage{
		"title":       json.RawMessage(`{"required":true,"len":80}`),
		"body":        json.RawMessage(`{"required":false}`),
		"cta":         json.RawMessage(`{}`),
		"sponsoredBy": json.RawMessage(`"yes"`),
		"image":       json.RawMessage(`{"required":true}`),
		"icon":        json.RawMessage(`{"sizes":[50,50]}`),
	})
	require.NoError(t, err)

	expected := map[string]string{
		"title":        `{"required":true,"len":80}`,
		"description":  `{"required":false}`,
		"ctatext":      `{}`,
		"sponsored_by": `{}`,
		"main_image":   `{"required":true,"sizes":[{}]}`,
		"icon":         `{"required":true,"sizes":[50,50]}`,
	}
	require.Len(t, layout, len(expected))
	for key, value := range expected {
		require.Contains(t, layout, key)
		assert.JSONEq(t, value, string(layout[key]), key)
	}
}

func TestBuildNativeLayoutAdUnitOverridesRequired(t *testing.T) {
	layout, err := buildNativeLayout(map[string]json.RawMessage{
		"image": json.RawMessage(`{"required":false}`),
		"icon":  json.RawMessage(`{"required":false,"aspect_ratios":[{"ratio_width":1,"ratio_height":1}]}`),
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"required":false,"sizes":[{}]}`, string(layout["main_image"]))
	assert.JSONEq(t, `{"required":false,"aspect_ratios":[{"ratio_width":1,"ratio_height":1}]}`, string(layout["icon"]))
}

func TestBuildNativeLayoutEmptySpec(t *testing.T) {
	layout, err := buildNativeLayout(map[string]json.RawMessage{
		"image": json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"required":true,"sizes":[{}]}`, string(layout["main_image"]))

	layout, err = buildNativeLayout(nil)
	assert.NoError(t, err)
	assert.Nil(t, layout)
}

func TestNewNativeBid(t *testing.T) {
	native := newNativeBid(&rtbNative{
		Title: "T",
		Icon:  &rtbNativeImage{URL: "http://i.example/icon.png", Width: 50, Height: 50},
	})
	assert.Equal(t, "T", native.Title)
	assert.Nil(t, native.Image)
	require.NotNil(t, native.Icon)
	assert.Equal(t, uint64(50), native.Icon.Width)
	assert.Empty(t, native.ClickURL)
	assert.Nil(t, native.ClickTrackers)
}
