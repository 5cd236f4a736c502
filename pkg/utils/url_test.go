package utils_test

import (
	"testing"

	"github.com/foomo/gistkv/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestIsValidURL(t *testing.T) {
	for str, want := range map[string]bool{
		"https://api.github.com":        true,
		"http://127.0.0.1:8080/gistkv":  true,
		"":                              false,
		"bogus":                         false,
		"htt:/notaurl":                  false,
		"htts://notaurl":                false,
		"/path/segment/only":            false,
		"http://%zz":                    false,
		"ftp://example.com/kevast.json": false,
	} {
		assert.Equal(t, want, utils.IsValidURL(str), str)
	}
}
