package gnarkhost

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"testing"

	"DeferredWitnessCircuit/modules/circuit"
	"DeferredWitnessCircuit/modules/eth/beacon"
	"DeferredWitnessCircuit/modules/fields"
	"DeferredWitnessCircuit/modules/hash"
	"DeferredWitnessCircuit/modules/logger"
	"DeferredWitnessCircuit/modules/stream"
	"DeferredWitnessCircuit/modules/vars"

	"github.com/PolyhedraZK/ExpanderCompilerCollection/ecgo"
	ecgoTest "github.com/PolyhedraZK/ExpanderCompilerCollection/ecgo/test"
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/test"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func init() {
	logger.Disable()
}

var (
	testBlockRoot      = common.HexToHash("0x4f1dd3c7e4fb5e4b1c0a4e2c57e9a2a3b1f0d1e9c36e0b4c2c5a7f8f0e1d2c3b")
	testValidatorsRoot = common.HexToHash("0x8a2a5d3e8fd4c6a1f2d9c1b0e7a6f5d4c3b2a190817263544536271819a0b1c2")
)

type countingSource struct {
	payload []byte
	calls   atomic.Int32
}

func (s *countingSource) Fetch(_ context.Context, blockRoot common.Hash) ([]byte, error) {
	s.calls.Add(1)
	if blockRoot != testBlockRoot {
		return nil, nil
	}
	return s.payload, nil
}

func randomCap(capHeight int, modulus *big.Int) hash.MerkleCap {
	res := make(hash.MerkleCap, hash.CapSize(capHeight))
	for i := range res {
		for j := range res[i].Elements {
			res[i].Elements[j] = new(big.Int).Mod(new(big.Int).SetUint64(rand.Uint64()), modulus)
		}
	}
	return res
}

func TestTargetConversionRoundTrip(t *testing.T) {
	bigIntComparer := cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })
	modulus := ecc.BN254.ScalarField()

	for capHeight := 0; capHeight <= 4; capHeight++ {
		want := randomCap(capHeight, modulus)
		got, err := MerkleCapTargetOf(want).Value()
		require.NoError(t, err)
		if diff := cmp.Diff(want, got, bigIntComparer); diff != "" {
			t.Fatalf("cap height %d (-want +got):\n%s", capHeight, diff)
		}
	}

	proof := hash.MerkleProof{Siblings: randomCap(3, modulus)}
	got, err := MerkleProofTargetOf(proof).Value()
	require.NoError(t, err)
	require.True(t, got.Equal(proof))

	target := HashOutTarget{Elements: [hash.NumHashOutElts]frontend.Variable{1, uint64(2), "3", big.NewInt(4)}}
	h, err := target.Value()
	require.NoError(t, err)
	require.True(t, h.Equal(hash.NewHashOut(1, 2, 3, 4)))

	_, err = NewMerkleCapTarget(1).Value()
	require.Error(t, err, "unassigned targets have no value")
}

func randomProof(length int, modulus *big.Int) hash.MerkleProof {
	siblings := make(hash.MerkleCap, 0, length)
	for len(siblings) < length {
		siblings = append(siblings, randomCap(0, modulus)...)
	}
	return hash.MerkleProof{Siblings: siblings}
}

func TestDigestSetCircuit(t *testing.T) {
	modulus := ecc.BN254.ScalarField()
	for _, tc := range []struct{ capHeight, proofLength int }{{0, 0}, {2, 1}, {3, 4}} {
		want := randomCap(tc.capHeight, modulus)
		proof := randomProof(tc.proofLength, modulus)

		assignment := NewDigestSetCircuit(tc.capHeight, tc.proofLength)
		assignment.Assign(MerkleCapTargetOf(want), MerkleProofTargetOf(proof))
		require.Len(t, assignment.Stream, (len(want)+tc.proofLength)*hash.NumHashOutElts)
		require.NoError(t, test.IsSolved(NewDigestSetCircuit(tc.capHeight, tc.proofLength), assignment, modulus))

		if tc.capHeight > 0 {
			swapped := MerkleCapTargetOf(want)
			swapped[0], swapped[1] = swapped[1], swapped[0]
			assignment.Cap = swapped
			require.Error(t, test.IsSolved(NewDigestSetCircuit(tc.capHeight, tc.proofLength), assignment, modulus), "order matters")
		}
	}
}

func TestDigestSetCircuitProofPath(t *testing.T) {
	modulus := ecc.BN254.ScalarField()
	want := randomCap(1, modulus)
	proof := randomProof(3, modulus)

	assignment := NewDigestSetCircuit(1, 3)
	assignment.Assign(MerkleCapTargetOf(want), MerkleProofTargetOf(proof))

	tampered := MerkleProofTargetOf(proof)
	tampered.Siblings[0], tampered.Siblings[2] = tampered.Siblings[2], tampered.Siblings[0]
	assignment.Proof = tampered
	require.Error(t, test.IsSolved(NewDigestSetCircuit(1, 3), assignment, modulus), "sibling order matters")

	assignment.Proof = MerkleProofTargetOf(proof)
	assignment.Cap = MerkleCapTargetOf(randomCap(1, modulus))
	require.Error(t, test.IsSolved(NewDigestSetCircuit(1, 3), assignment, modulus), "cap and proof share one stream")
}

func TestReadMerkleProofTarget(t *testing.T) {
	modulus := ecc.BN254.ScalarField()
	proof := randomProof(3, modulus)

	s := stream.NewCursor[frontend.Variable](nil)
	require.Equal(t, 3, WriteMerkleProofTarget(s, MerkleProofTargetOf(proof)))
	require.Len(t, s.Elems, 3*hash.NumHashOutElts)

	r := stream.NewCursor(s.Elems)
	got, err := ReadMerkleProofTarget(r, 3)
	require.NoError(t, err)
	require.NoError(t, r.Finalize())
	value, err := got.Value()
	require.NoError(t, err)
	require.True(t, value.Equal(proof))

	_, err = ReadMerkleProofTarget(stream.NewCursor(s.Elems), 4)
	require.Error(t, err, "reading past the end")

	r = stream.NewCursor(s.Elems)
	_, err = ReadMerkleProofTarget(r, 2)
	require.NoError(t, err)
	require.Error(t, r.Finalize(), "one sibling left unread")
}

func TestDigestSetCircuitM31(t *testing.T) {
	const capHeight, proofLength = 2, 3
	modulus := fields.ECCM31.FieldModulus()
	want := randomCap(capHeight, modulus)

	compilation, err := ecgo.Compile(modulus, NewDigestSetCircuit(capHeight, proofLength))
	require.NoError(t, err, "ggs compile circuit error")
	layeredCircuit := compilation.GetLayeredCircuit()

	assignment := NewDigestSetCircuit(capHeight, proofLength)
	assignment.Assign(MerkleCapTargetOf(want), MerkleProofTargetOf(randomProof(proofLength, modulus)))

	witness, err := compilation.GetInputSolver().SolveInput(assignment, 0)
	require.NoError(t, err, "ggs solving witness error")
	require.True(t, ecgoTest.CheckCircuit(layeredCircuit, witness), "ggs check circuit error")
}

func TestValidatorsRootCircuit(t *testing.T) {
	source := &countingSource{payload: testValidatorsRoot.Bytes()}
	c := &ValidatorsRootCircuit{Source: source}

	err := test.IsSolved(c, ValidatorsRootAssignment(testBlockRoot, testValidatorsRoot), ecc.BN254.ScalarField())
	require.NoError(t, err)
	require.Equal(t, int32(1), source.calls.Load())

	err = test.IsSolved(c, ValidatorsRootAssignment(testBlockRoot, common.Hash{}), ecc.BN254.ScalarField())
	require.Error(t, err)
}

func TestValidatorsRootCircuitWrongPayloadLength(t *testing.T) {
	source := &countingSource{payload: testValidatorsRoot.Bytes()[:20]}
	c := &ValidatorsRootCircuit{Source: source}

	err := test.IsSolved(c, ValidatorsRootAssignment(testBlockRoot, testValidatorsRoot), ecc.BN254.ScalarField())
	require.ErrorContains(t, err, "decode length mismatch")
}

func TestValidatorsRootCircuitR1CS(t *testing.T) {
	source := &countingSource{payload: testValidatorsRoot.Bytes()}
	c := &ValidatorsRootCircuit{Source: source}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, c)
	require.NoError(t, err)
	require.Zero(t, source.calls.Load(), "compiling makes no external call")

	witness, err := frontend.NewWitness(ValidatorsRootAssignment(testBlockRoot, testValidatorsRoot), ecc.BN254.ScalarField())
	require.NoError(t, err)
	require.NoError(t, ccs.IsSolved(witness))
	require.Equal(t, int32(1), source.calls.Load())
}

func TestScopeRelease(t *testing.T) {
	source := &countingSource{payload: testValidatorsRoot.Bytes()}
	scope := NewScope()
	c := &ValidatorsRootCircuit{Source: source, Scope: scope}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, c)
	require.NoError(t, err)
	require.NotZero(t, scope.Len())

	witness, err := frontend.NewWitness(ValidatorsRootAssignment(testBlockRoot, testValidatorsRoot), ecc.BN254.ScalarField())
	require.NoError(t, err)
	require.NoError(t, ccs.IsSolved(witness))

	scope.Release()
	require.Zero(t, scope.Len())
	require.Error(t, ccs.IsSolved(witness), "released generators are gone")
	require.Equal(t, int32(1), source.calls.Load())

	scope.Release()
}

// sharedGeneratorCircuit consumes one generator output along two paths.
type sharedGeneratorCircuit struct {
	BlockRoot [common.HashLength]frontend.Variable
	Expected  [common.HashLength]frontend.Variable

	Source beacon.ValidatorsRootSource `gnark:"-"`
}

func (c *sharedGeneratorCircuit) Define(api frontend.API) error {
	b := NewBridge(api, nil)
	blockRoot := Bind(b, vars.Bytes32Type, c.BlockRoot[:]...)
	g := beacon.NewValidatorsRootGenerator(b, c.Source, blockRoot)

	first := b.AddGenerator(g)
	for i := 0; i < 2; i++ {
		if idx := b.AddGenerator(g); idx != first {
			return fmt.Errorf("generator re-added at %d, first at %d", idx, first)
		}
		root, err := b.Variables(g.ValidatorsRoot)
		if err != nil {
			return err
		}
		for j := range root {
			api.AssertIsEqual(root[j], c.Expected[j])
		}
	}
	return b.Err()
}

func TestBridgeRunsGeneratorOnce(t *testing.T) {
	source := &countingSource{payload: testValidatorsRoot.Bytes()}
	assignment := &sharedGeneratorCircuit{}
	for i := range testBlockRoot {
		assignment.BlockRoot[i] = int(testBlockRoot[i])
		assignment.Expected[i] = int(testValidatorsRoot[i])
	}

	require.NoError(t, test.IsSolved(&sharedGeneratorCircuit{Source: source}, assignment, ecc.BN254.ScalarField()))
	require.Equal(t, int32(1), source.calls.Load())
}

// unboundCircuit registers a generator whose dependency has no gnark variable.
type unboundCircuit struct {
	X frontend.Variable
}

func (c *unboundCircuit) Define(api frontend.API) error {
	b := NewBridge(api, nil)
	blockRoot := vars.Init(b, vars.Bytes32Type)
	beacon.GetValidatorsRoot(b, &countingSource{}, blockRoot)
	api.AssertIsEqual(c.X, c.X)
	return b.Err()
}

func TestBridgeUnboundDependency(t *testing.T) {
	err := test.IsSolved(&unboundCircuit{}, &unboundCircuit{X: 1}, ecc.BN254.ScalarField())
	require.ErrorContains(t, err, circuit.ErrDependencyUnresolved.Error())
}

// digestRoundTripCircuit converts targets to bridge variables, lays them out
// through a symbolic stream and converts them back.
type digestRoundTripCircuit struct {
	Cap   MerkleCapTarget
	Proof MerkleProofTarget
}

func (c *digestRoundTripCircuit) Define(api frontend.API) error {
	b := NewBridge(api, nil)

	s := stream.NewVariableStream()
	hash.WriteMerkleCap(s, b.BindMerkleCap(c.Cap))
	hash.WriteMerkleProof(s, b.BindMerkleProof(c.Proof))

	capVar, err := hash.ReadMerkleCap(s, 1)
	if err != nil {
		return err
	}
	proofVar, err := hash.ReadMerkleProof(s, len(c.Proof.Siblings))
	if err != nil {
		return err
	}
	if err := s.Finalize(); err != nil {
		return err
	}

	capTarget, err := b.MerkleCap(capVar)
	if err != nil {
		return err
	}
	proofTarget, err := b.MerkleProof(proofVar)
	if err != nil {
		return err
	}
	for i := range capTarget {
		for j := range capTarget[i].Elements {
			api.AssertIsEqual(capTarget[i].Elements[j], c.Cap[i].Elements[j])
		}
	}
	for i := range proofTarget.Siblings {
		for j := range proofTarget.Siblings[i].Elements {
			api.AssertIsEqual(proofTarget.Siblings[i].Elements[j], c.Proof.Siblings[i].Elements[j])
		}
	}
	return b.Err()
}

func TestBridgeDigestRoundTrip(t *testing.T) {
	modulus := ecc.BN254.ScalarField()
	circuit := &digestRoundTripCircuit{Cap: NewMerkleCapTarget(1), Proof: NewMerkleProofTarget(3)}
	assignment := &digestRoundTripCircuit{
		Cap:   MerkleCapTargetOf(randomCap(1, modulus)),
		Proof: MerkleProofTargetOf(hash.MerkleProof{Siblings: randomCap(0, modulus)}),
	}
	assignment.Proof.Siblings = append(assignment.Proof.Siblings, MerkleCapTargetOf(randomCap(1, modulus))...)

	require.NoError(t, test.IsSolved(circuit, assignment, modulus))
}

func TestGeneratorHintRejectsUnknownKey(t *testing.T) {
	err := GeneratorHint(ecc.BN254.ScalarField(), []*big.Int{big.NewInt(1 << 40)}, nil)
	require.Error(t, err)

	err = GeneratorHint(ecc.BN254.ScalarField(), nil, nil)
	require.Error(t, err)
}
