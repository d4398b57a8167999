package hash

import (
	"fmt"

	"DeferredWitnessCircuit/modules/circuit"
	"DeferredWitnessCircuit/modules/stream"
	"DeferredWitnessCircuit/modules/vars"
)

// MerkleCap is the digest layer of a Merkle commitment at some cap height h,
// 2^h digests.
type MerkleCap []HashOut

// MerkleCapVariable is the symbolic counterpart of MerkleCap.
type MerkleCapVariable []HashOutVariable

func (c MerkleCapVariable) Slots() []circuit.Slot {
	res := make([]circuit.Slot, 0, len(c)*NumHashOutElts)
	for _, h := range c {
		res = append(res, h.Slots()...)
	}
	return res
}

// MerkleProof is an authentication path: sibling digests from leaf to cap.
type MerkleProof struct {
	Siblings []HashOut
}

// MerkleProofVariable is the symbolic counterpart of MerkleProof.
type MerkleProofVariable struct {
	Siblings []HashOutVariable
}

func (p MerkleProofVariable) Slots() []circuit.Slot {
	return MerkleCapVariable(p.Siblings).Slots()
}

// CapSize is the number of digests in a cap of the given height.
func CapSize(capHeight int) int {
	if capHeight < 0 || capHeight >= 31 {
		panic(fmt.Sprintf("hash: invalid cap height %d", capHeight))
	}
	return 1 << capHeight
}

func (c MerkleCap) Equal(other MerkleCap) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if !c[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

func (p MerkleProof) Equal(other MerkleProof) bool {
	return MerkleCap(p.Siblings).Equal(other.Siblings)
}

// InitMerkleCap allocates a cap of the given height with no value.
func InitMerkleCap(alloc circuit.Allocator, capHeight int) MerkleCapVariable {
	res := make(MerkleCapVariable, CapSize(capHeight))
	for i := range res {
		res[i] = vars.Init(alloc, HashOutType)
	}
	return res
}

// InitMerkleProof allocates an authentication path of length siblings.
func InitMerkleProof(alloc circuit.Allocator, length int) MerkleProofVariable {
	res := MerkleProofVariable{Siblings: make([]HashOutVariable, length)}
	for i := range res.Siblings {
		res.Siblings[i] = vars.Init(alloc, HashOutType)
	}
	return res
}

func readDigests(s *stream.VariableStream, n int) ([]HashOutVariable, error) {
	res := make([]HashOutVariable, n)
	for i := range res {
		h, err := stream.ReadVariable(s, HashOutType)
		if err != nil {
			return nil, fmt.Errorf("digest %d of %d: %w", i, n, err)
		}
		res[i] = h
	}
	return res, nil
}

func readDigestValues(s *stream.ValueStream, n int) ([]HashOut, error) {
	res := make([]HashOut, n)
	for i := range res {
		h, err := stream.ReadValue(s, HashOutType)
		if err != nil {
			return nil, fmt.Errorf("digest %d of %d: %w", i, n, err)
		}
		res[i] = h
	}
	return res, nil
}

// ReadMerkleCap reads 2^capHeight digests.
func ReadMerkleCap(s *stream.VariableStream, capHeight int) (MerkleCapVariable, error) {
	return readDigests(s, CapSize(capHeight))
}

// WriteMerkleCap appends every digest of c and returns the number of
// digests written.
func WriteMerkleCap(s *stream.VariableStream, c MerkleCapVariable) int {
	for _, h := range c {
		stream.WriteVariable(s, h)
	}
	return len(c)
}

// ReadMerkleProof reads an authentication path of the given length.
func ReadMerkleProof(s *stream.VariableStream, length int) (MerkleProofVariable, error) {
	siblings, err := readDigests(s, length)
	if err != nil {
		return MerkleProofVariable{}, err
	}
	return MerkleProofVariable{Siblings: siblings}, nil
}

// WriteMerkleProof appends the siblings of proof and returns their count.
func WriteMerkleProof(s *stream.VariableStream, proof MerkleProofVariable) int {
	return WriteMerkleCap(s, proof.Siblings)
}

// ReadMerkleCapValue decodes 2^capHeight concrete digests.
func ReadMerkleCapValue(s *stream.ValueStream, capHeight int) (MerkleCap, error) {
	return readDigestValues(s, CapSize(capHeight))
}

// WriteMerkleCapValue appends every digest of c and returns the number of
// digests written.
func WriteMerkleCapValue(s *stream.ValueStream, c MerkleCap) int {
	for _, h := range c {
		stream.WriteValue(s, HashOutType, h)
	}
	return len(c)
}

// ReadMerkleProofValue decodes a concrete authentication path.
func ReadMerkleProofValue(s *stream.ValueStream, length int) (MerkleProof, error) {
	siblings, err := readDigestValues(s, length)
	if err != nil {
		return MerkleProof{}, err
	}
	return MerkleProof{Siblings: siblings}, nil
}

func WriteMerkleProofValue(s *stream.ValueStream, proof MerkleProof) int {
	return WriteMerkleCapValue(s, proof.Siblings)
}
