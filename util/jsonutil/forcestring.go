package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var null = []byte("null")

// ForceString is a string which may arrive on the wire as either a JSON string or a JSON number.
// Exchanges are inconsistent about ids like creative_id and renderer_id.
type ForceString string

func (s *ForceString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, null) {
		*s = ""
		return nil
	}

	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = ForceString(str)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a string or number, got %s", string(b))
	}
	*s = ForceString(n.String())
	return nil
}

func (s ForceString) String() string {
	return string(s)
}
