package guard

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// AllowList restricts minting to addresses proven to be members of a merkle
// tree. The payer supplies the proof in the mint arguments: a u32 node
// count followed by that many 32-byte sibling hashes, ordered leaf to root.
// Pairs hash in sorted order, so the proof carries no direction bits.
type AllowList struct {
	noAction

	// MerkleRoot is the root of the allow list tree. Leaves are
	// sha256(address).
	MerkleRoot [32]byte
}

func (g *AllowList) Kind() Kind { return KindAllowList }

func (g *AllowList) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	header, err := ec.ReadArgs(mc, 4)
	if err != nil {
		return fmt.Errorf("%w: proof length", ErrMissingProof)
	}
	count := int(binary.LittleEndian.Uint32(header))
	proof, err := ec.ReadArgs(mc, count*32)
	if err != nil {
		return fmt.Errorf("%w: %d nodes", ErrMissingProof, count)
	}

	node := sha256.Sum256(mc.Minter[:])
	for i := 0; i < count; i++ {
		var sibling [32]byte
		copy(sibling[:], proof[i*32:(i+1)*32])
		if bytes.Compare(node[:], sibling[:]) <= 0 {
			node = sha256.Sum256(append(node[:], sibling[:]...))
		} else {
			node = sha256.Sum256(append(sibling[:], node[:]...))
		}
	}
	if node != g.MerkleRoot {
		return fmt.Errorf("%w: %s", ErrAddressNotInAllowList, mc.Minter.Short())
	}
	return nil
}

func (g *AllowList) marshal(buf []byte) {
	copy(buf[0:32], g.MerkleRoot[:])
}

func unmarshalAllowList(buf []byte) Guard {
	g := &AllowList{}
	copy(g.MerkleRoot[:], buf[0:32])
	return g
}
