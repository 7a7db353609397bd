// Package identity derives the public lookup key for student records.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Generate derives a stable, non-reversible identifier for a student
// record from its area, pincode and store-assigned sequence number.
// The digest is SHA-256 over the concatenation of area, pincode and the
// decimal form of the sequence number; the output is 64 hex characters.
// The sequence number must already be durably assigned by the store.
func Generate(area, pincode string, studentID int64) string {
	sum := sha256.Sum256([]byte(area + pincode + strconv.FormatInt(studentID, 10)))
	return hex.EncodeToString(sum[:])
}
