package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// AddressLength is the size of an account address in bytes.
const AddressLength = 32

// Address is an opaque 32-byte account identity.
type Address [AddressLength]byte

// ZeroAddress is the all-zero address. It is never a valid account.
var ZeroAddress Address

// AddressFromBytes builds an address from a byte slice.
// The slice must be exactly AddressLength bytes.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, fmt.Errorf("invalid address length: %d (want %d)", len(b), AddressLength)
	}
	copy(a[:], b)
	return a, nil
}

// AddressFromString parses a hex-encoded address.
func AddressFromString(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return AddressFromBytes(b)
}

// NewAddress derives a fresh address from a human-readable seed. It is a
// convenience for tests and tooling; production addresses come from the host.
func NewAddress(seed string) Address {
	return Address(sha256.Sum256([]byte(seed)))
}

// String returns the hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Short returns a truncated form of the address for log output.
func (a Address) Short() string {
	s := a.String()
	return s[:8]
}

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Equal reports whether two addresses are the same account.
func (a Address) Equal(b Address) bool {
	return a == b
}

// Derive computes the deterministic address for (program, seeds). The same
// inputs always produce the same address, which is how guards locate their
// counter and escrow records without storing the location anywhere.
func Derive(program Address, seeds ...[]byte) Address {
	h := sha256.New()
	h.Write(program[:])
	for _, seed := range seeds {
		h.Write(seed)
	}
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}
