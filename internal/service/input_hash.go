package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// ComputeInputHash returns the lowercase SHA-256 hex digest of the normalized
// (age, domain, observations) triple. Case and whitespace differences in the
// text do not change the hash.
func ComputeInputHash(ageMonths int, domain, observations string) string {
	normalized := strconv.Itoa(ageMonths) + "|" +
		strings.ToLower(strings.TrimSpace(domain)) + "|" +
		strings.Join(strings.Fields(strings.ToLower(observations)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// ImageDigest returns the SHA-256 hex digest of an image, or "" for none
func ImageDigest(image []byte) string {
	if len(image) == 0 {
		return ""
	}
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// idempotencyKey scopes a caller-supplied key to the clinician, or derives
// one from the input and image digests.
func idempotencyKey(clinicianID, explicit, inputHash, imageDigest string) string {
	if explicit != "" {
		return clinicianID + ":key:" + explicit
	}
	if imageDigest == "" {
		imageDigest = "noimg"
	}
	return clinicianID + ":" + inputHash + ":" + imageDigest
}
