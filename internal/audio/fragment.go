// Package audio provides fragment normalization for incoming meeting
// audio. Transports hand chunks to the service in whatever container
// they decoded them into; everything downstream works on the canonical
// byte view produced here.
package audio

// Fragment is any in-memory carrier of one audio chunk. *bytes.Buffer
// satisfies it directly, as does Raw for plain slices.
type Fragment interface {
	Bytes() []byte
}

// Raw adapts a byte slice to the Fragment interface without copying.
type Raw []byte

// Bytes returns the underlying slice.
func (r Raw) Bytes() []byte { return r }

// Normalize returns the canonical byte view of a fragment. The result
// aliases the fragment's storage, so callers must not mutate the
// fragment while the view is in use. A nil fragment normalizes to nil.
func Normalize(f Fragment) []byte {
	if f == nil {
		return nil
	}
	return f.Bytes()
}
