package rwb

import "fmt"

// Sign computes the delivery signature for a payload: the same rolling hash
// as Checksum, over secret followed by the serialized body, prefixed with
// "sha256=" for header compatibility with existing subscribers.
//
// This is NOT an HMAC and carries no cryptographic strength despite the
// prefix; it only lets subscribers with the shared secret cheaply reject
// unrelated traffic. Replacing it with crypto/hmac would break every
// deployed subscriber's verification and is a major-version change.
func Sign(secret string, body []byte) string {
	var h uint64 = 5381
	for i := 0; i < len(secret); i++ {
		h = h*33 + uint64(secret[i])
	}
	for _, b := range body {
		h = h*33 + uint64(b)
	}
	return fmt.Sprintf("sha256=%016x", h)
}
