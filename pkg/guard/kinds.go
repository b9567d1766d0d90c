package guard

import "fmt"

// Kind identifies one guard type. The declaration order is the wire order:
// a kind's bit position in the feature bitmask and its slot position in the
// serialized buffer both follow this enumeration. Appending new kinds is
// safe; reordering existing ones is a breaking format change.
type Kind int

const (
	KindBotTax Kind = iota
	KindNativePayment
	KindTokenPayment
	KindStartDate
	KindEndDate
	KindThirdPartySigner
	KindTokenGate
	KindTokenBurn
	KindAllowList
	KindMintLimit
	KindRateLimit
	KindAllocation
	KindRedeemedCap
	KindAddressGate
	KindAssetGate
	KindAssetBurn
	KindAssetPayment
	KindFreezeNativePayment
	KindFreezeTokenPayment
	KindProgramGate

	// KindCount is the number of guard kinds.
	KindCount
)

// kindSizes holds the fixed serialized size of each kind's config slot,
// indexed by Kind.
var kindSizes = [KindCount]int{
	KindBotTax:              9,   // lamports u64 + last_instruction bool
	KindNativePayment:       40,  // lamports u64 + destination
	KindTokenPayment:        72,  // amount u64 + mint + destination ata
	KindStartDate:           8,   // unix i64
	KindEndDate:             8,   // unix i64
	KindThirdPartySigner:    32,  // signer key
	KindTokenGate:           33,  // mint + burn bool
	KindTokenBurn:           40,  // amount u64 + mint
	KindAllowList:           32,  // merkle root
	KindMintLimit:           3,   // id u8 + limit u16
	KindRateLimit:           9,   // id u8 + interval i64
	KindAllocation:          5,   // id u8 + limit u32
	KindRedeemedCap:         8,   // maximum u64
	KindAddressGate:         32,  // address
	KindAssetGate:           32,  // required collection
	KindAssetBurn:           32,  // required collection
	KindAssetPayment:        64,  // required collection + destination
	KindFreezeNativePayment: 40,  // lamports u64 + destination
	KindFreezeTokenPayment:  72,  // amount u64 + mint + destination ata
	KindProgramGate:         164, // count u32 + 5 fixed address slots
}

// kindOffsets holds the cumulative slot offset of each kind within a
// serialized guard area, relative to the end of the feature bitmask.
var kindOffsets [KindCount]int

// totalSlotSize is the sum of all slot sizes.
var totalSlotSize int

func init() {
	offset := 0
	for k := Kind(0); k < KindCount; k++ {
		kindOffsets[k] = offset
		offset += kindSizes[k]
	}
	totalSlotSize = offset
}

var kindNames = [KindCount]string{
	KindBotTax:              "bot_tax",
	KindNativePayment:       "native_payment",
	KindTokenPayment:        "token_payment",
	KindStartDate:           "start_date",
	KindEndDate:             "end_date",
	KindThirdPartySigner:    "third_party_signer",
	KindTokenGate:           "token_gate",
	KindTokenBurn:           "token_burn",
	KindAllowList:           "allow_list",
	KindMintLimit:           "mint_limit",
	KindRateLimit:           "rate_limit",
	KindAllocation:          "allocation",
	KindRedeemedCap:         "redeemed_cap",
	KindAddressGate:         "address_gate",
	KindAssetGate:           "asset_gate",
	KindAssetBurn:           "asset_burn",
	KindAssetPayment:        "asset_payment",
	KindFreezeNativePayment: "freeze_native_payment",
	KindFreezeTokenPayment:  "freeze_token_payment",
	KindProgramGate:         "program_gate",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= KindCount {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k names a known guard kind.
func (k Kind) Valid() bool {
	return k >= 0 && k < KindCount
}

// Mask returns the kind's bit in the feature bitmask.
func (k Kind) Mask() uint64 {
	return 1 << uint(k)
}

// Size returns the fixed serialized size of the kind's config slot.
func (k Kind) Size() int {
	return kindSizes[k]
}

// Offset returns the kind's slot offset within a guard area, relative to
// the end of the feature bitmask. Offsets depend only on the enumeration,
// never on which guards are enabled.
func (k Kind) Offset() int {
	return kindOffsets[k]
}

// ParseKind maps a snake_case name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k := Kind(0); k < KindCount; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown guard kind %q", name)
}
