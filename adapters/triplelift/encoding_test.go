package triplelift

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeURIComponent(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"300x250,728x90", "300x250%2C728x90"},
		{"a b+c", "a%20b%2Bc"},
		{"http://example.com/p?q=1&r=2", "http%3A%2F%2Fexample.com%2Fp%3Fq%3D1%26r%3D2"},
		{"keep-_.!~*'()", "keep-_.!~*'()"},
		{"é", "%C3%A9"},
	}
	for _, test := range testCases {
		assert.Equal(t, test.expected, encodeURIComponent(test.input), test.input)
	}
}

func TestEncodeURI(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"http://t.example/imp?id=1&s=2#frag", "http://t.example/imp?id=1&s=2#frag"},
		{"http://t.example/a b", "http://t.example/a%20b"},
		{`http://t.example/"<x>"`, "http://t.example/%22%3Cx%3E%22"},
		{"http://t.example/é", "http://t.example/%C3%A9"},
	}
	for _, test := range testCases {
		assert.Equal(t, test.expected, encodeURI(test.input), test.input)
	}
}

func TestQueryBuilder(t *testing.T) {
	q := &queryBuilder{}
	assert.Equal(t, "", q.String())

	q.add("a", "1")
	q.add("skipped", "")
	q.add("b", "x y")
	assert.Equal(t, "a=1&b=x%20y", q.String())
}

func TestCreateTrackPixelHTML(t *testing.T) {
	assert.Equal(t, "", createTrackPixelHTML(""))
	assert.Equal(t,
		`<div style="position:absolute;left:0px;top:0px;visibility:hidden;"><img src="http://t.example/imp%20x"></div>`,
		createTrackPixelHTML("http://t.example/imp x"))
}
