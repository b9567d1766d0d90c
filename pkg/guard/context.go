package guard

import "fmt"

// EvaluationContext carries the mutable cursors shared by all guards of a
// single mint attempt. Guards claim auxiliary resources and argument bytes
// during Validate in enumeration order; the positions they record here are
// how PreAction and PostAction find the same resources again without
// re-deriving anything.
//
// An EvaluationContext is used by one mint attempt on one goroutine and
// needs no locking.
type EvaluationContext struct {
	// ResourceCursor is the index of the next unclaimed auxiliary resource.
	ResourceCursor int

	// ArgsCursor is the offset of the next unread byte of the guard
	// argument payload.
	ArgsCursor int

	indices map[string]int
}

// NewEvaluationContext creates an empty evaluation context.
func NewEvaluationContext() *EvaluationContext {
	return &EvaluationContext{indices: make(map[string]int)}
}

// ClaimResource returns the next unclaimed resource from mc and advances
// the cursor. Fails with ErrMissingResource when the resources are
// exhausted.
func (ec *EvaluationContext) ClaimResource(mc *MintContext) (Resource, error) {
	if ec.ResourceCursor >= len(mc.Resources) {
		return Resource{}, fmt.Errorf("%w: index %d", ErrMissingResource, ec.ResourceCursor)
	}
	r := mc.Resources[ec.ResourceCursor]
	ec.ResourceCursor++
	return r, nil
}

// ReadArgs returns the next n bytes of the guard argument payload and
// advances the cursor. Fails with ErrMissingArguments when fewer than n
// bytes remain.
func (ec *EvaluationContext) ReadArgs(mc *MintContext, n int) ([]byte, error) {
	if n < 0 || ec.ArgsCursor+n > len(mc.Args) {
		return nil, fmt.Errorf("%w: want %d bytes at offset %d of %d", ErrMissingArguments, n, ec.ArgsCursor, len(mc.Args))
	}
	b := mc.Args[ec.ArgsCursor : ec.ArgsCursor+n]
	ec.ArgsCursor += n
	return b, nil
}

// SetIndex records the resource position claimed by a guard under a stable
// name, so the guard's action phases can retrieve it.
func (ec *EvaluationContext) SetIndex(name string, index int) {
	ec.indices[name] = index
}

// Index returns the resource position recorded under name.
func (ec *EvaluationContext) Index(name string) (int, bool) {
	i, ok := ec.indices[name]
	return i, ok
}
