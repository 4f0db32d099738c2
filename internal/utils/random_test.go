package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateReferralCode(t *testing.T) {
	pattern := regexp.MustCompile(`^PTR-[ABCDEFGHJKMNPQRSTUVWXYZ2-9]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := GenerateReferralCode("ptr", 6)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestGenerateReferralCodeWithoutPrefix(t *testing.T) {
	code := GenerateReferralCode("", 0)
	assert.Len(t, code, 6)
}
