package booking

import "crypto/rand"

// referenceAlphabet excludes nothing: references are display codes, not
// secrets, so plain base36 reads fine on a ticket.
const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const referenceLength = 9

// NewReference returns a short human-shareable uppercase alphanumeric
// code generated client-side at creation time.  It is a display
// convenience only; the authoritative identifier is the gateway-assigned
// booking id.
func NewReference() (string, error) {
	buf := make([]byte, referenceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return string(buf), nil
}
