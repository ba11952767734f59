package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForceStringUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		b       string
		want    ForceString
		wantErr bool
	}{
		{
			name: "quoted",
			b:    `{"id":"29681110"}`,
			want: "29681110",
		},
		{
			name: "unquoted",
			b:    `{"id":29681110}`,
			want: "29681110",
		},
		{
			name: "float",
			b:    `{"id":1.5}`,
			want: "1.5",
		},
		{
			name: "null",
			b:    `{"id":null}`,
			want: "",
		},
		{
			name: "missing",
			b:    `{}`,
			want: "",
		},
		{
			name:    "bool",
			b:       `{"id":true}`,
			wantErr: true,
		},
		{
			name:    "object",
			b:       `{"id":{}}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				ID ForceString `json:"id"`
			}
			err := json.Unmarshal([]byte(tt.b), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
			assert.Equal(t, string(tt.want), got.ID.String())
		})
	}
}
