package guard

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"testing"

	"mintworks/mintgate/pkg/ledger"
)

func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return sha256.Sum256(append(a[:], b[:]...))
	}
	return sha256.Sum256(append(b[:], a[:]...))
}

func proofArgs(nodes ...[32]byte) []byte {
	args := make([]byte, 4, 4+len(nodes)*32)
	binary.LittleEndian.PutUint32(args, uint32(len(nodes)))
	for _, n := range nodes {
		args = append(args, n[:]...)
	}
	return args
}

func TestAllowList(t *testing.T) {
	mc, _ := newTestContext(t)
	member := mc.Minter
	other := ledger.NewAddress("other-member")

	leafMember := sha256.Sum256(member[:])
	leafOther := sha256.Sum256(other[:])
	root := hashPair(leafMember, leafOther)
	g := &AllowList{MerkleRoot: root}

	mc.Args = proofArgs(leafOther)
	if err := g.Validate(context.Background(), mc, NewEvaluationContext()); err != nil {
		t.Fatalf("valid proof: %v", err)
	}

	// A proof for a different leaf does not authenticate this minter.
	stranger := ledger.NewAddress("stranger")
	mc.Minter = stranger
	mc.Args = proofArgs(leafOther)
	if err := g.Validate(context.Background(), mc, NewEvaluationContext()); !errors.Is(err, ErrAddressNotInAllowList) {
		t.Errorf("expected ErrAddressNotInAllowList, got %v", err)
	}
}

func TestAllowList_FourLeafTree(t *testing.T) {
	mc, _ := newTestContext(t)

	addrs := []ledger.Address{
		mc.Minter,
		ledger.NewAddress("m1"),
		ledger.NewAddress("m2"),
		ledger.NewAddress("m3"),
	}
	var leaves [4][32]byte
	for i, a := range addrs {
		leaves[i] = sha256.Sum256(a[:])
	}
	left := hashPair(leaves[0], leaves[1])
	right := hashPair(leaves[2], leaves[3])
	root := hashPair(left, right)

	g := &AllowList{MerkleRoot: root}
	mc.Args = proofArgs(leaves[1], right)
	if err := g.Validate(context.Background(), mc, NewEvaluationContext()); err != nil {
		t.Fatalf("two-level proof: %v", err)
	}
}

func TestAllowList_MissingProof(t *testing.T) {
	mc, _ := newTestContext(t)
	g := &AllowList{}

	mc.Args = nil
	if err := g.Validate(context.Background(), mc, NewEvaluationContext()); !errors.Is(err, ErrMissingProof) {
		t.Errorf("no args: expected ErrMissingProof, got %v", err)
	}

	// Header promises more nodes than the payload carries.
	mc.Args = proofArgs()[:4]
	binary.LittleEndian.PutUint32(mc.Args, 2)
	if err := g.Validate(context.Background(), mc, NewEvaluationContext()); !errors.Is(err, ErrMissingProof) {
		t.Errorf("truncated proof: expected ErrMissingProof, got %v", err)
	}
}

func TestAllowList_ConsumesArgsCursor(t *testing.T) {
	mc, _ := newTestContext(t)
	member := mc.Minter
	other := ledger.NewAddress("other")
	leafMember := sha256.Sum256(member[:])
	leafOther := sha256.Sum256(other[:])
	g := &AllowList{MerkleRoot: hashPair(leafMember, leafOther)}

	trailer := []byte{0xAA, 0xBB}
	mc.Args = append(proofArgs(leafOther), trailer...)

	ec := NewEvaluationContext()
	if err := g.Validate(context.Background(), mc, ec); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// The next guard reads its own bytes right after the proof.
	rest, err := ec.ReadArgs(mc, 2)
	if err != nil {
		t.Fatalf("ReadArgs: %v", err)
	}
	if !bytes.Equal(rest, trailer) {
		t.Errorf("args after proof = %x, want %x", rest, trailer)
	}
}
