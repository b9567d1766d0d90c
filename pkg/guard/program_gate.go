package guard

import (
	"context"
	"encoding/binary"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
)

// MaxProgramGateAdditional is the maximum number of extra programs a
// program gate may allow beyond the process-wide defaults.
const MaxProgramGateAdditional = 5

// ProgramGate restricts the programs that may appear in the mint
// transaction to the process-wide defaults plus a configured additional
// list.
type ProgramGate struct {
	noAction

	// Additional programs allowed beyond the defaults. At most
	// MaxProgramGateAdditional entries.
	Additional []ledger.Address
}

func (g *ProgramGate) Kind() Kind { return KindProgramGate }

func (g *ProgramGate) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	for _, p := range mc.TxPrograms {
		if containsAddress(mc.DefaultPrograms, p) || containsAddress(g.Additional, p) {
			continue
		}
		return fmt.Errorf("%w: program %s", ErrUnauthorizedProgram, p.Short())
	}
	return nil
}

func (g *ProgramGate) marshal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(g.Additional)))
	for i, p := range g.Additional {
		copy(buf[4+i*32:4+(i+1)*32], p[:])
	}
}

func unmarshalProgramGate(buf []byte) (Guard, error) {
	count := int(binary.LittleEndian.Uint32(buf[0:4]))
	if count > MaxProgramGateAdditional {
		return nil, fmt.Errorf("%w: %d programs", ErrExceededProgramListLen, count)
	}
	g := &ProgramGate{}
	for i := 0; i < count; i++ {
		var p ledger.Address
		copy(p[:], buf[4+i*32:4+(i+1)*32])
		g.Additional = append(g.Additional, p)
	}
	return g, nil
}

func containsAddress(list []ledger.Address, addr ledger.Address) bool {
	for _, a := range list {
		if a.Equal(addr) {
			return true
		}
	}
	return false
}
