package guard

import (
	"context"
	"encoding/binary"
	"fmt"
)

// BotTax converts a denied mint into a flat penalty charge instead of a
// failed request. The pipeline invokes Charge when any guard's Validate
// fails while this guard is enabled; the attempt then reports success with
// the penalty recorded, so automated retry loops pay for every probe.
type BotTax struct {
	noAction

	// Lamports is the penalty charged on a denied mint.
	Lamports uint64

	// LastInstruction restricts the surrounding transaction to the known
	// default programs, so the penalty cannot be dodged by wrapping the
	// mint in a program that rolls it back.
	LastInstruction bool
}

func (g *BotTax) Kind() Kind { return KindBotTax }

func (g *BotTax) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	if !g.LastInstruction {
		return nil
	}
	for _, p := range mc.TxPrograms {
		if !containsAddress(mc.DefaultPrograms, p) {
			return fmt.Errorf("%w: program %s", ErrNotLastInstruction, p.Short())
		}
	}
	return nil
}

// Charge collects the penalty from the payer into the pool account, capped
// at whatever the payer can afford, and returns the amount collected.
func (g *BotTax) Charge(mc *MintContext) uint64 {
	return mc.Ledger.TransferUpTo(mc.Payer, mc.PoolID, g.Lamports)
}

func (g *BotTax) marshal(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], g.Lamports)
	if g.LastInstruction {
		buf[8] = 1
	}
}

func unmarshalBotTax(buf []byte) Guard {
	return &BotTax{
		Lamports:        binary.LittleEndian.Uint64(buf[0:8]),
		LastInstruction: buf[8] == 1,
	}
}
