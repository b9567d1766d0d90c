package guard

// Set holds at most one config per guard kind. A nil field means the guard
// is disabled. The Default set of a Data plus its labeled group overrides
// resolve into the effective Set for one mint attempt.
type Set struct {
	BotTax              *BotTax
	NativePayment       *NativePayment
	TokenPayment        *TokenPayment
	StartDate           *StartDate
	EndDate             *EndDate
	ThirdPartySigner    *ThirdPartySigner
	TokenGate           *TokenGate
	TokenBurn           *TokenBurn
	AllowList           *AllowList
	MintLimit           *MintLimit
	RateLimit           *RateLimit
	Allocation          *Allocation
	RedeemedCap         *RedeemedCap
	AddressGate         *AddressGate
	AssetGate           *AssetGate
	AssetBurn           *AssetBurn
	AssetPayment        *AssetPayment
	FreezeNativePayment *FreezeNativePayment
	FreezeTokenPayment  *FreezeTokenPayment
	ProgramGate         *ProgramGate
}

// slot binds a Kind to its field in Set and its slot codec. The table is
// the single place that knows the field layout; every encode, decode, and
// merge walks it in enumeration order.
type slot struct {
	get    func(*Set) Guard
	assign func(*Set, Guard)
	decode func([]byte) (Guard, error)
}

func simple(fn func([]byte) Guard) func([]byte) (Guard, error) {
	return func(b []byte) (Guard, error) { return fn(b), nil }
}

var slots = [KindCount]slot{
	KindBotTax: {
		get: func(s *Set) Guard {
			if s.BotTax == nil {
				return nil
			}
			return s.BotTax
		},
		assign: func(s *Set, g Guard) { s.BotTax = g.(*BotTax) },
		decode: simple(unmarshalBotTax),
	},
	KindNativePayment: {
		get: func(s *Set) Guard {
			if s.NativePayment == nil {
				return nil
			}
			return s.NativePayment
		},
		assign: func(s *Set, g Guard) { s.NativePayment = g.(*NativePayment) },
		decode: simple(unmarshalNativePayment),
	},
	KindTokenPayment: {
		get: func(s *Set) Guard {
			if s.TokenPayment == nil {
				return nil
			}
			return s.TokenPayment
		},
		assign: func(s *Set, g Guard) { s.TokenPayment = g.(*TokenPayment) },
		decode: simple(unmarshalTokenPayment),
	},
	KindStartDate: {
		get: func(s *Set) Guard {
			if s.StartDate == nil {
				return nil
			}
			return s.StartDate
		},
		assign: func(s *Set, g Guard) { s.StartDate = g.(*StartDate) },
		decode: simple(unmarshalStartDate),
	},
	KindEndDate: {
		get: func(s *Set) Guard {
			if s.EndDate == nil {
				return nil
			}
			return s.EndDate
		},
		assign: func(s *Set, g Guard) { s.EndDate = g.(*EndDate) },
		decode: simple(unmarshalEndDate),
	},
	KindThirdPartySigner: {
		get: func(s *Set) Guard {
			if s.ThirdPartySigner == nil {
				return nil
			}
			return s.ThirdPartySigner
		},
		assign: func(s *Set, g Guard) { s.ThirdPartySigner = g.(*ThirdPartySigner) },
		decode: simple(unmarshalThirdPartySigner),
	},
	KindTokenGate: {
		get: func(s *Set) Guard {
			if s.TokenGate == nil {
				return nil
			}
			return s.TokenGate
		},
		assign: func(s *Set, g Guard) { s.TokenGate = g.(*TokenGate) },
		decode: simple(unmarshalTokenGate),
	},
	KindTokenBurn: {
		get: func(s *Set) Guard {
			if s.TokenBurn == nil {
				return nil
			}
			return s.TokenBurn
		},
		assign: func(s *Set, g Guard) { s.TokenBurn = g.(*TokenBurn) },
		decode: simple(unmarshalTokenBurn),
	},
	KindAllowList: {
		get: func(s *Set) Guard {
			if s.AllowList == nil {
				return nil
			}
			return s.AllowList
		},
		assign: func(s *Set, g Guard) { s.AllowList = g.(*AllowList) },
		decode: simple(unmarshalAllowList),
	},
	KindMintLimit: {
		get: func(s *Set) Guard {
			if s.MintLimit == nil {
				return nil
			}
			return s.MintLimit
		},
		assign: func(s *Set, g Guard) { s.MintLimit = g.(*MintLimit) },
		decode: simple(unmarshalMintLimit),
	},
	KindRateLimit: {
		get: func(s *Set) Guard {
			if s.RateLimit == nil {
				return nil
			}
			return s.RateLimit
		},
		assign: func(s *Set, g Guard) { s.RateLimit = g.(*RateLimit) },
		decode: simple(unmarshalRateLimit),
	},
	KindAllocation: {
		get: func(s *Set) Guard {
			if s.Allocation == nil {
				return nil
			}
			return s.Allocation
		},
		assign: func(s *Set, g Guard) { s.Allocation = g.(*Allocation) },
		decode: simple(unmarshalAllocation),
	},
	KindRedeemedCap: {
		get: func(s *Set) Guard {
			if s.RedeemedCap == nil {
				return nil
			}
			return s.RedeemedCap
		},
		assign: func(s *Set, g Guard) { s.RedeemedCap = g.(*RedeemedCap) },
		decode: simple(unmarshalRedeemedCap),
	},
	KindAddressGate: {
		get: func(s *Set) Guard {
			if s.AddressGate == nil {
				return nil
			}
			return s.AddressGate
		},
		assign: func(s *Set, g Guard) { s.AddressGate = g.(*AddressGate) },
		decode: simple(unmarshalAddressGate),
	},
	KindAssetGate: {
		get: func(s *Set) Guard {
			if s.AssetGate == nil {
				return nil
			}
			return s.AssetGate
		},
		assign: func(s *Set, g Guard) { s.AssetGate = g.(*AssetGate) },
		decode: simple(unmarshalAssetGate),
	},
	KindAssetBurn: {
		get: func(s *Set) Guard {
			if s.AssetBurn == nil {
				return nil
			}
			return s.AssetBurn
		},
		assign: func(s *Set, g Guard) { s.AssetBurn = g.(*AssetBurn) },
		decode: simple(unmarshalAssetBurn),
	},
	KindAssetPayment: {
		get: func(s *Set) Guard {
			if s.AssetPayment == nil {
				return nil
			}
			return s.AssetPayment
		},
		assign: func(s *Set, g Guard) { s.AssetPayment = g.(*AssetPayment) },
		decode: simple(unmarshalAssetPayment),
	},
	KindFreezeNativePayment: {
		get: func(s *Set) Guard {
			if s.FreezeNativePayment == nil {
				return nil
			}
			return s.FreezeNativePayment
		},
		assign: func(s *Set, g Guard) { s.FreezeNativePayment = g.(*FreezeNativePayment) },
		decode: simple(unmarshalFreezeNativePayment),
	},
	KindFreezeTokenPayment: {
		get: func(s *Set) Guard {
			if s.FreezeTokenPayment == nil {
				return nil
			}
			return s.FreezeTokenPayment
		},
		assign: func(s *Set, g Guard) { s.FreezeTokenPayment = g.(*FreezeTokenPayment) },
		decode: simple(unmarshalFreezeTokenPayment),
	},
	KindProgramGate: {
		get: func(s *Set) Guard {
			if s.ProgramGate == nil {
				return nil
			}
			return s.ProgramGate
		},
		assign: func(s *Set, g Guard) { s.ProgramGate = g.(*ProgramGate) },
		decode: unmarshalProgramGate,
	},
}

// Guard returns the config for kind k, or nil if the guard is disabled.
func (s *Set) Guard(k Kind) Guard {
	if !k.Valid() {
		return nil
	}
	return slots[k].get(s)
}

// Features returns the bitmask of enabled guards.
func (s *Set) Features() uint64 {
	var features uint64
	for k := Kind(0); k < KindCount; k++ {
		if slots[k].get(s) != nil {
			features |= k.Mask()
		}
	}
	return features
}

// Enabled returns the enabled guards in enumeration order. This is the
// evaluation order of the pipeline.
func (s *Set) Enabled() []Guard {
	var enabled []Guard
	for k := Kind(0); k < KindCount; k++ {
		if g := slots[k].get(s); g != nil {
			enabled = append(enabled, g)
		}
	}
	return enabled
}

// Merge returns a new Set where every guard enabled in override replaces
// the default's config for that kind. Guards only enabled in the default
// stay active.
func (s *Set) Merge(override *Set) *Set {
	merged := *s
	if override == nil {
		return &merged
	}
	for k := Kind(0); k < KindCount; k++ {
		if g := slots[k].get(override); g != nil {
			slots[k].assign(&merged, g)
		}
	}
	return &merged
}
