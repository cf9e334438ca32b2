package services

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	format := regexp.MustCompile(`^\d{6}$`)
	seen := make(map[string]bool)

	for i := 0; i < 200; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Regexp(t, format, code)
		seen[code] = true
	}

	assert.Greater(t, len(seen), 190, "codes should not repeat often")
}

func TestOTPMatches(t *testing.T) {
	assert.True(t, otpMatches("012345", "012345"))
	assert.False(t, otpMatches("012345", "12345"))
	assert.False(t, otpMatches("012345", "012346"))
	assert.False(t, otpMatches("", ""))
}
