package openrtb_ext

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brittanyzellman/prebid-tlx/logger"
)

func TestTransformKeywords(t *testing.T) {
	testCases := []struct {
		description  string
		input        string
		expected     []*ExtImpTripleliftKeyVal
		expectedWarn int
	}{
		{
			description: "strings and string lists",
			input:       `{"pets":["dog","cat"],"section":"news"}`,
			expected: []*ExtImpTripleliftKeyVal{
				{Key: "pets", Values: []string{"dog", "cat"}},
				{Key: "section", Values: []string{"news"}},
			},
		},
		{
			description: "document order is kept",
			input:       `{"z":"last","a":"first"}`,
			expected: []*ExtImpTripleliftKeyVal{
				{Key: "z", Values: []string{"last"}},
				{Key: "a", Values: []string{"first"}},
			},
		},
		{
			description: "numbers are stringified",
			input:       `{"age":25,"score":[1.50,2]}`,
			expected: []*ExtImpTripleliftKeyVal{
				{Key: "age", Values: []string{"25"}},
				{Key: "score", Values: []string{"1.5", "2"}},
			},
		},
		{
			description: "empty arrays keep the key",
			input:       `{"foo":[]}`,
			expected: []*ExtImpTripleliftKeyVal{
				{Key: "foo", Values: []string{}},
			},
		},
		{
			description: "empty strings are kept",
			input:       `{"foo":"","bar":["",null]}`,
			expected: []*ExtImpTripleliftKeyVal{
				{Key: "foo", Values: []string{""}},
				{Key: "bar", Values: []string{""}},
			},
		},
		{
			description: "unsupported scalars drop the entry",
			input:       `{"flag":true,"obj":{"a":1},"ok":"yes","nothing":null}`,
			expected: []*ExtImpTripleliftKeyVal{
				{Key: "ok", Values: []string{"yes"}},
			},
			expectedWarn: 2,
		},
		{
			description: "unsupported array members are dropped",
			input:       `{"mixed":["a",true,3,{"b":2}]}`,
			expected: []*ExtImpTripleliftKeyVal{
				{Key: "mixed", Values: []string{"a", "3"}},
			},
			expectedWarn: 2,
		},
		{
			description: "escaped strings are decoded",
			input:       `{"quote":"say \"hi\""}`,
			expected: []*ExtImpTripleliftKeyVal{
				{Key: "quote", Values: []string{`say "hi"`}},
			},
		},
	}

	for _, test := range testCases {
		log := &logger.Recorder{}
		kvs, err := TransformKeywords(json.RawMessage(test.input), log)
		assert.NoError(t, err, test.description)
		assert.Equal(t, test.expected, kvs, test.description)
		assert.Equal(t, test.expectedWarn, log.Count("warn"), test.description)
	}
}

func TestTransformKeywordsEmpty(t *testing.T) {
	log := &logger.Recorder{}

	for _, input := range []string{``, `null`, `  `} {
		kvs, err := TransformKeywords(json.RawMessage(input), log)
		assert.NoError(t, err)
		assert.Nil(t, kvs)
	}
	assert.Equal(t, 0, log.Count(""))
}

func TestTransformKeywordsRejectsNonObjects(t *testing.T) {
	log := &logger.Recorder{}

	for _, input := range []string{`"foo=bar"`, `[{"key":"a"}]`, `{"broken":`} {
		_, err := TransformKeywords(json.RawMessage(input), log)
		assert.Error(t, err, input)
	}
}
