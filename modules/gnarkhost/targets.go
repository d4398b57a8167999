package gnarkhost

import (
	"fmt"
	"math/big"

	"DeferredWitnessCircuit/modules/hash"
	"DeferredWitnessCircuit/modules/stream"

	"github.com/consensys/gnark/frontend"
)

// HashOutTarget is a digest as gnark variables.
type HashOutTarget struct {
	Elements [hash.NumHashOutElts]frontend.Variable
}

// MerkleCapTarget is a digest set as gnark variables.
type MerkleCapTarget []HashOutTarget

// MerkleProofTarget is an authentication path as gnark variables.
type MerkleProofTarget struct {
	Siblings []HashOutTarget
}

// NewMerkleCapTarget returns an unassigned cap target, for circuit shapes.
func NewMerkleCapTarget(capHeight int) MerkleCapTarget {
	return make(MerkleCapTarget, hash.CapSize(capHeight))
}

func NewMerkleProofTarget(length int) MerkleProofTarget {
	return MerkleProofTarget{Siblings: make([]HashOutTarget, length)}
}

// NewHashOutTarget assigns a concrete digest.
func NewHashOutTarget(h hash.HashOut) HashOutTarget {
	var t HashOutTarget
	for i, e := range h.Elements {
		t.Elements[i] = new(big.Int).Set(e)
	}
	return t
}

// Value reads back an assigned digest.
func (t HashOutTarget) Value() (hash.HashOut, error) {
	var h hash.HashOut
	for i, e := range t.Elements {
		v, err := toBigInt(e)
		if err != nil {
			return h, fmt.Errorf("digest element %d: %w", i, err)
		}
		h.Elements[i] = v
	}
	return h, nil
}

func MerkleCapTargetOf(c hash.MerkleCap) MerkleCapTarget {
	res := make(MerkleCapTarget, len(c))
	for i, h := range c {
		res[i] = NewHashOutTarget(h)
	}
	return res
}

func (t MerkleCapTarget) Value() (hash.MerkleCap, error) {
	res := make(hash.MerkleCap, len(t))
	for i, h := range t {
		v, err := h.Value()
		if err != nil {
			return nil, fmt.Errorf("cap digest %d: %w", i, err)
		}
		res[i] = v
	}
	return res, nil
}

func MerkleProofTargetOf(p hash.MerkleProof) MerkleProofTarget {
	return MerkleProofTarget{Siblings: MerkleCapTargetOf(p.Siblings)}
}

func (t MerkleProofTarget) Value() (hash.MerkleProof, error) {
	siblings, err := MerkleCapTarget(t.Siblings).Value()
	if err != nil {
		return hash.MerkleProof{}, err
	}
	return hash.MerkleProof{Siblings: siblings}, nil
}

// HashOut maps a digest variable declared on the bridge to its target.
func (b *Bridge) HashOut(v hash.HashOutVariable) (HashOutTarget, error) {
	var t HashOutTarget
	for i, s := range v.Elements {
		e, err := b.variable(s)
		if err != nil {
			return t, err
		}
		t.Elements[i] = e
	}
	return t, nil
}

// BindHashOut lays a digest target out as a digest variable.
func (b *Bridge) BindHashOut(t HashOutTarget) hash.HashOutVariable {
	return Bind(b, hash.HashOutType, t.Elements[:]...)
}

func (b *Bridge) MerkleCap(v hash.MerkleCapVariable) (MerkleCapTarget, error) {
	res := make(MerkleCapTarget, len(v))
	for i, h := range v {
		t, err := b.HashOut(h)
		if err != nil {
			return nil, err
		}
		res[i] = t
	}
	return res, nil
}

func (b *Bridge) BindMerkleCap(t MerkleCapTarget) hash.MerkleCapVariable {
	res := make(hash.MerkleCapVariable, len(t))
	for i, h := range t {
		res[i] = b.BindHashOut(h)
	}
	return res
}

func (b *Bridge) MerkleProof(v hash.MerkleProofVariable) (MerkleProofTarget, error) {
	siblings, err := b.MerkleCap(v.Siblings)
	if err != nil {
		return MerkleProofTarget{}, err
	}
	return MerkleProofTarget{Siblings: siblings}, nil
}

func (b *Bridge) BindMerkleProof(t MerkleProofTarget) hash.MerkleProofVariable {
	return hash.MerkleProofVariable{Siblings: b.BindMerkleCap(t.Siblings)}
}

// ReadHashOutTarget consumes one digest from a target stream.
func ReadHashOutTarget(s *stream.Cursor[frontend.Variable]) (HashOutTarget, error) {
	var t HashOutTarget
	elements, err := s.ReadN(hash.NumHashOutElts)
	if err != nil {
		return t, err
	}
	copy(t.Elements[:], elements)
	return t, nil
}

func readHashOutTargets(s *stream.Cursor[frontend.Variable], n int) ([]HashOutTarget, error) {
	res := make([]HashOutTarget, n)
	for i := range res {
		t, err := ReadHashOutTarget(s)
		if err != nil {
			return nil, fmt.Errorf("digest %d of %d: %w", i, n, err)
		}
		res[i] = t
	}
	return res, nil
}

// ReadMerkleCapTarget consumes 2^capHeight digests.
func ReadMerkleCapTarget(s *stream.Cursor[frontend.Variable], capHeight int) (MerkleCapTarget, error) {
	return readHashOutTargets(s, hash.CapSize(capHeight))
}

func ReadMerkleProofTarget(s *stream.Cursor[frontend.Variable], length int) (MerkleProofTarget, error) {
	siblings, err := readHashOutTargets(s, length)
	if err != nil {
		return MerkleProofTarget{}, err
	}
	return MerkleProofTarget{Siblings: siblings}, nil
}

// WriteMerkleCapTarget appends every digest of t and returns the number of
// digests written.
func WriteMerkleCapTarget(s *stream.Cursor[frontend.Variable], t MerkleCapTarget) int {
	for _, h := range t {
		s.Append(h.Elements[:]...)
	}
	return len(t)
}

func WriteMerkleProofTarget(s *stream.Cursor[frontend.Variable], t MerkleProofTarget) int {
	return WriteMerkleCapTarget(s, t.Siblings)
}

func toBigInt(v frontend.Variable) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("gnarkhost: nil value")
		}
		return new(big.Int).Set(x), nil
	case big.Int:
		return new(big.Int).Set(&x), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case string:
		r, ok := new(big.Int).SetString(x, 0)
		if !ok {
			return nil, fmt.Errorf("gnarkhost: cannot parse %q", x)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("gnarkhost: %T is not an assigned value", v)
	}
}
