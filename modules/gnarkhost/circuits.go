package gnarkhost

import (
	"DeferredWitnessCircuit/modules/eth/beacon"
	"DeferredWitnessCircuit/modules/hash"
	"DeferredWitnessCircuit/modules/stream"
	"DeferredWitnessCircuit/modules/vars"

	"github.com/consensys/gnark/frontend"
	"github.com/ethereum/go-ethereum/common"
)

// ValidatorsRootCircuit binds a beacon block root to the validators root
// fetched for it while the witness is solved.
type ValidatorsRootCircuit struct {
	BlockRoot      [common.HashLength]frontend.Variable `gnark:",public"`
	ValidatorsRoot [common.HashLength]frontend.Variable `gnark:",public"`

	Source beacon.ValidatorsRootSource `gnark:"-"`
	// Scope, if set, owns the generator registered by Define.
	Scope *Scope `gnark:"-"`
}

// Define declares the circuit constraints
func (c *ValidatorsRootCircuit) Define(api frontend.API) error {
	b := NewBridge(api, c.Scope)
	blockRoot := Bind(b, vars.Bytes32Type, c.BlockRoot[:]...)
	vars.Bytes32Type.AssertIsValid(b, blockRoot)

	validatorsRoot := beacon.GetValidatorsRoot(b, c.Source, blockRoot)
	fetched, err := b.Variables(validatorsRoot)
	if err != nil {
		return err
	}
	for i := range fetched {
		api.AssertIsEqual(fetched[i], c.ValidatorsRoot[i])
	}
	return b.Err()
}

// ValidatorsRootAssignment fills the public inputs of ValidatorsRootCircuit.
func ValidatorsRootAssignment(blockRoot, validatorsRoot common.Hash) *ValidatorsRootCircuit {
	var a ValidatorsRootCircuit
	for i := range blockRoot {
		a.BlockRoot[i] = int(blockRoot[i])
		a.ValidatorsRoot[i] = int(validatorsRoot[i])
	}
	return &a
}

// DigestSetCircuit checks that a flat element stream decodes to a digest
// set of the given height followed by an authentication path of the given
// length.
type DigestSetCircuit struct {
	CapHeight   int `gnark:"-"`
	ProofLength int `gnark:"-"`

	Stream []frontend.Variable
	Cap    MerkleCapTarget   `gnark:",public"`
	Proof  MerkleProofTarget `gnark:",public"`
}

func NewDigestSetCircuit(capHeight, proofLength int) *DigestSetCircuit {
	c := &DigestSetCircuit{
		CapHeight:   capHeight,
		ProofLength: proofLength,
		Cap:         NewMerkleCapTarget(capHeight),
		Proof:       NewMerkleProofTarget(proofLength),
	}
	c.Stream = make([]frontend.Variable, (len(c.Cap)+proofLength)*hash.NumHashOutElts)
	return c
}

// Assign lays digests and proof out into the stream of c.
func (c *DigestSetCircuit) Assign(digests MerkleCapTarget, proof MerkleProofTarget) {
	s := stream.NewCursor[frontend.Variable](nil)
	WriteMerkleCapTarget(s, digests)
	WriteMerkleProofTarget(s, proof)
	c.Stream = s.Elems
	c.Cap = digests
	c.Proof = proof
}

// Define declares the circuit constraints
func (c *DigestSetCircuit) Define(api frontend.API) error {
	s := stream.NewCursor(c.Stream)
	decodedCap, err := ReadMerkleCapTarget(s, c.CapHeight)
	if err != nil {
		return err
	}
	decodedProof, err := ReadMerkleProofTarget(s, c.ProofLength)
	if err != nil {
		return err
	}
	if err := s.Finalize(); err != nil {
		return err
	}

	for i, h := range decodedCap {
		for j := range h.Elements {
			api.AssertIsEqual(h.Elements[j], c.Cap[i].Elements[j])
		}
	}
	for i, h := range decodedProof.Siblings {
		for j := range h.Elements {
			api.AssertIsEqual(h.Elements[j], c.Proof.Siblings[i].Elements[j])
		}
	}
	return nil
}
