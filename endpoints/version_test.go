package endpoints

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionEndpoint(t *testing.T) {
	testCases := []struct {
		description string
		version     string
		revision    string
		expected    string
	}{
		{
			description: "Empty",
			expected:    `{"revision":"not-set","version":"not-set"}`,
		},
		{
			description: "Populated",
			version:     "1.2.3",
			revision:    "abc123",
			expected:    `{"revision":"abc123","version":"1.2.3"}`,
		},
	}

	for _, test := range testCases {
		handler := NewVersionEndpoint(test.version, test.revision)
		recorder := httptest.NewRecorder()
		handler(recorder, httptest.NewRequest("GET", "/version", nil))

		assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"), test.description)
		assert.JSONEq(t, test.expected, recorder.Body.String(), test.description)
	}
}
