package experiment

import "unicode/utf16"

// hashSeed is the initial value of the multiplicative string hash.
const hashSeed uint32 = 5381

// Hash computes the classic "times 33, xor" string hash over UTF-16 code units.
//
// Iterating UTF-16 units (instead of bytes or runes) keeps the value identical
// to hosts that hash with charCodeAt, so a user lands in the same bucket on
// every platform. The arithmetic wraps at 32 bits.
func Hash(input string) uint32 {
	h := hashSeed
	for _, unit := range utf16.Encode([]rune(input)) {
		h = (h * 33) ^ uint32(unit)
	}
	return h
}

// bucketKey builds the composite hash subject.
// Format: "onboarding_cta_copy:1a2b3c_x9y8z7w6"
func bucketKey(experimentID, userID string) string {
	return experimentID + ":" + userID
}
