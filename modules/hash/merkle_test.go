package hash

import (
	"context"
	"math/big"
	"testing"

	"DeferredWitnessCircuit/modules/circuit"
	"DeferredWitnessCircuit/modules/fields"
	"DeferredWitnessCircuit/modules/logger"
	"DeferredWitnessCircuit/modules/stream"
	"DeferredWitnessCircuit/modules/vars"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Disable()
}

var bigIntComparer = cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })

func digests(seeds []uint64) []HashOut {
	res := make([]HashOut, len(seeds))
	for i, seed := range seeds {
		for j := range res[i].Elements {
			res[i].Elements[j] = new(big.Int).SetUint64(seed + uint64(j))
		}
	}
	return res
}

func TestMerkleCapValueRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("cap of height h round trips in order", prop.ForAll(
		func(capHeight int, seed uint64) bool {
			seeds := make([]uint64, CapSize(capHeight))
			for i := range seeds {
				seeds[i] = seed*31 + uint64(i)*7
			}
			want := MerkleCap(digests(seeds))

			s := stream.NewValueStream()
			if WriteMerkleCapValue(s, want) != len(want) || s.Len() != len(want)*NumHashOutElts {
				return false
			}
			got, err := ReadMerkleCapValue(s, capHeight)
			return err == nil && s.Finalize() == nil && got.Equal(want)
		},
		gen.IntRange(0, 5),
		gen.UInt64Range(0, 1<<40),
	))

	properties.Property("authentication path keeps order and length", prop.ForAll(
		func(seeds []uint64) bool {
			want := MerkleProof{Siblings: digests(seeds)}

			s := stream.NewValueStream()
			if WriteMerkleProofValue(s, want) != len(seeds) {
				return false
			}
			got, err := ReadMerkleProofValue(s, len(seeds))
			return err == nil && s.Finalize() == nil &&
				len(got.Siblings) == len(seeds) && got.Equal(want)
		},
		gen.SliceOf(gen.UInt64Range(0, 1<<40)),
	))

	properties.TestingRun(t)
}

func TestMerkleVariableRoundTrip(t *testing.T) {
	b := circuit.NewBuilder(fields.ECCBN254)
	for capHeight := 0; capHeight <= 4; capHeight++ {
		want := InitMerkleCap(b, capHeight)
		s := stream.NewVariableStream()
		require.Equal(t, CapSize(capHeight), WriteMerkleCap(s, want), "digest count")
		require.Equal(t, CapSize(capHeight)*NumHashOutElts, s.Len())

		got, err := ReadMerkleCap(s, capHeight)
		require.NoError(t, err)
		require.NoError(t, s.Finalize())
		require.Equal(t, want, got)
	}

	for _, length := range []int{0, 1, 8, 20} {
		want := InitMerkleProof(b, length)
		s := stream.NewVariableStream()
		require.Equal(t, length, WriteMerkleProof(s, want))
		require.Equal(t, length*NumHashOutElts, s.Len())

		got, err := ReadMerkleProof(s, length)
		require.NoError(t, err)
		require.NoError(t, s.Finalize())
		require.Len(t, got.Siblings, length)
		require.Equal(t, want.Slots(), got.Slots())
	}
}

func TestMerkleStreamLengthMismatch(t *testing.T) {
	s := stream.NewValueStream()
	WriteMerkleCapValue(s, MerkleCap(digests([]uint64{1, 2, 3})))

	_, err := ReadMerkleCapValue(s, 2)
	require.ErrorIs(t, err, circuit.ErrDecodeLengthMismatch)

	s = stream.NewValueStream()
	WriteMerkleProofValue(s, MerkleProof{Siblings: digests([]uint64{1, 2, 3})})
	_, err = ReadMerkleProofValue(s, 2)
	require.NoError(t, err)
	require.ErrorIs(t, s.Finalize(), circuit.ErrDecodeLengthMismatch, "third sibling left over")
}

// capGenerator decodes a flat element payload into a cap, the way a
// generator handling fetched commitments would.
type capGenerator struct {
	payload []*big.Int
	cap     MerkleCapVariable
}

func (g *capGenerator) ID() string                   { return "CapGenerator" }
func (g *capGenerator) Dependencies() []circuit.Slot { return nil }
func (g *capGenerator) Outputs() []circuit.Slot      { return g.cap.Slots() }
func (g *capGenerator) Serialize() ([]byte, error) {
	return nil, circuit.WrapUnimplementedPersistence(g.ID())
}

func (g *capGenerator) RunOnce(_ context.Context, _ circuit.WitnessReader, out *circuit.GeneratedValues) error {
	values := stream.NewValueStream(g.payload...)
	decoded, err := ReadMerkleCapValue(values, 2)
	if err != nil {
		return err
	}
	if err := values.Finalize(); err != nil {
		return err
	}

	encoded := stream.NewValueStream()
	WriteMerkleCapValue(encoded, decoded)
	targets := stream.NewVariableStream()
	WriteMerkleCap(targets, g.cap)
	return stream.Assign(out, targets, encoded)
}

func TestMerkleCapResolvedThroughWitness(t *testing.T) {
	want := MerkleCap{
		NewHashOut(1, 2, 3, 4),
		NewHashOut(5, 6, 7, 8),
		NewHashOut(9, 10, 11, 12),
		NewHashOut(13, 14, 15, 16),
	}

	b := circuit.NewBuilder(fields.ECCBN254)
	declared := stream.NewVariableStream()
	WriteMerkleCap(declared, InitMerkleCap(b, 2))
	capVar, err := ReadMerkleCap(declared, 2)
	require.NoError(t, err)
	require.NoError(t, declared.Finalize())

	payload := stream.NewValueStream()
	WriteMerkleCapValue(payload, want)
	b.AddGenerator(&capGenerator{payload: payload.Elems, cap: capVar})

	c, err := b.Build()
	require.NoError(t, err)
	w := c.NewWitness()
	require.NoError(t, c.Resolve(context.Background(), w))

	got := make(MerkleCap, len(capVar))
	for i, h := range capVar {
		got[i], err = vars.Value(w, HashOutType, h)
		require.NoError(t, err)
	}
	if diff := cmp.Diff(want, got, bigIntComparer); diff != "" {
		t.Fatalf("decoded cap mismatch (-want +got):\n%s", diff)
	}
}

func TestMerkleCapGeneratorRejectsShortPayload(t *testing.T) {
	b := circuit.NewBuilder(fields.ECCBN254)
	capVar := InitMerkleCap(b, 2)

	payload := stream.NewValueStream()
	WriteMerkleCapValue(payload, MerkleCap(digests([]uint64{1, 2, 3})))
	b.AddGenerator(&capGenerator{payload: payload.Elems, cap: capVar})

	c, err := b.Build()
	require.NoError(t, err)
	w := c.NewWitness()
	require.ErrorIs(t, c.Resolve(context.Background(), w), circuit.ErrDecodeLengthMismatch)
	require.Zero(t, w.NbSet())
}
