package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	letterBytes  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numberBytes  = "0123456789"
	alphanumeric = letterBytes + numberBytes

	// Upper case letters and digits without 0, O, 1, I and L.
	referralCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

func GenerateRandomString(length int) string {
	return generateRandom(length, alphanumeric)
}

func generateRandom(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = charset[num.Int64()]
	}

	return string(result)
}

// GenerateReferralCode returns PREFIX-XXXXXX with an unambiguous random suffix.
func GenerateReferralCode(prefix string, length int) string {
	if length <= 0 {
		length = 6
	}
	suffix := generateRandom(length, referralCharset)
	if prefix == "" {
		return suffix
	}
	return strings.ToUpper(prefix) + "-" + suffix
}
