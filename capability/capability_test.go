package capability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbe(t *testing.T) {
	assert.True(t, Probe(Static(true)))
	assert.False(t, Probe(Static(false)))
	assert.False(t, Probe(nil))

	failing := Func(func() (bool, error) { return true, errors.New("plugin lookup failed") })
	assert.False(t, Probe(failing))

	calls := 0
	counting := Func(func() (bool, error) {
		calls++
		return true, nil
	})
	assert.True(t, Probe(counting))
	assert.Equal(t, 1, calls)
}
