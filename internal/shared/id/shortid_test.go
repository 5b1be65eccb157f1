package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUploadID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		got, err := NewUploadID()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, "upl_"))
		assert.Len(t, got, len("upl_")+DefaultLength)
		require.NoError(t, ValidatePrefix(got, PrefixUpload))

		_, dup := seen[got]
		require.False(t, dup, "duplicate id %s", got)
		seen[got] = struct{}{}
	}
}

func TestValidatePrefix(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "upl_abcXYZ019", false},
		{"wrong prefix", "fa_abcXYZ019", true},
		{"missing separator", "uplabc", true},
		{"empty suffix", "upl_", true},
		{"path characters", "upl_../etc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrefix(tt.input, PrefixUpload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
