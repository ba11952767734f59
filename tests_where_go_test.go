package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryDirWithGoCodeHasTests(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.NoError(t, filepath.Walk(wd, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		// _examples and friends are ignored by the go tool as well.
		if path != wd && (strings.HasPrefix(info.Name(), ".") || strings.HasPrefix(info.Name(), "_")) {
			return filepath.SkipDir
		}
		matches, err := filepath.Glob(filepath.Join(path, "*.go"))
		require.NoError(t, err)
		hasCode, hasTests := false, false
		for _, match := range matches {
			if strings.HasSuffix(match, "_test.go") {
				hasTests = true
			} else {
				hasCode = true
			}
		}
		if hasCode {
			assert.Truef(t, hasTests, "found directory with go code but without any tests %s", path)
		}
		return nil
	}))
}
