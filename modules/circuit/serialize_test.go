package circuit

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"DeferredWitnessCircuit/modules/fields"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

func TestCircuitSerializationRoundTrip(t *testing.T) {
	b := NewBuilder(fields.ECCM31)
	in := b.AddInput(1)
	consts := b.AllocateSlots(3)
	b.AddGenerator(NewConstantGenerator(consts, []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(300)}))
	b.AssertRange(consts[2], 16)
	b.AssertEqual(in[0], consts[1])
	c, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)

	decoded, err := ReadCircuit(&buf)
	require.NoError(t, err)
	require.Equal(t, c.Field, decoded.Field)
	require.Equal(t, c.NbSlots, decoded.NbSlots)
	require.Equal(t, c.Inputs, decoded.Inputs)
	require.Equal(t, c.Constraints, decoded.Constraints)
	require.Len(t, decoded.Generators, 1)
	require.Equal(t, ConstantGeneratorID, decoded.Generators[0].ID())

	w := decoded.NewWitness()
	require.NoError(t, w.Set(in[0], big.NewInt(2)))
	require.NoError(t, decoded.Resolve(context.Background(), w))
	require.NoError(t, decoded.IsSolved(w))

	v, err := w.Get(consts[2])
	require.NoError(t, err)
	require.Equal(t, int64(300), v.Int64())
}

func TestCircuitSerializationUnimplementedGenerator(t *testing.T) {
	b := NewBuilder(fields.ECCBN254)
	b.AddGenerator(&addOneGenerator{outs: b.AllocateSlots(1)})
	c, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = c.WriteTo(&buf)
	require.ErrorIs(t, err, ErrUnimplementedPersistence)
	require.Zero(t, buf.Len(), "nothing is written when a generator cannot be persisted")
}

func TestReadCircuitRejectsUnknownGenerator(t *testing.T) {
	raw, err := cbor.Marshal(serializedCircuit{
		Magic:      MAGIC_NUM,
		Version:    FormatVersion.String(),
		Field:      uint64(fields.ECCBN254),
		NbSlots:    1,
		Generators: []serializedGenerator{{ID: "NoSuchGenerator"}},
	})
	require.NoError(t, err)

	_, err = ReadCircuit(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrUnknownGenerator)
}

func TestReadCircuitRejectsIncompatibleFormat(t *testing.T) {
	for name, doc := range map[string]serializedCircuit{
		"major bump": {Magic: MAGIC_NUM, Version: "2.0.0", Field: uint64(fields.ECCBN254)},
		"bad magic":  {Magic: 42, Version: FormatVersion.String(), Field: uint64(fields.ECCBN254)},
		"no version": {Magic: MAGIC_NUM, Field: uint64(fields.ECCBN254)},
	} {
		raw, err := cbor.Marshal(doc)
		require.NoError(t, err)

		_, err = ReadCircuit(bytes.NewReader(raw))
		require.ErrorIs(t, err, ErrIncompatibleFormat, name)
	}

	minor := FormatVersion
	minor.Minor++
	raw, err := cbor.Marshal(serializedCircuit{Magic: MAGIC_NUM, Version: minor.String(), Field: uint64(fields.ECCBN254)})
	require.NoError(t, err)
	_, err = ReadCircuit(bytes.NewReader(raw))
	require.NoError(t, err, "minor versions stay readable")
}

func TestReadCircuitRejectsInvalidCircuit(t *testing.T) {
	valid := func() serializedCircuit {
		return serializedCircuit{
			Magic:   MAGIC_NUM,
			Version: FormatVersion.String(),
			Field:   uint64(fields.ECCBN254),
			NbSlots: 2,
			Inputs:  []Slot{0, 1},
		}
	}

	for name, tc := range map[string]struct {
		mutate func(*serializedCircuit)
		want   error
	}{
		"unknown field": {func(d *serializedCircuit) { d.Field = 99 }, ErrIncompatibleFormat},
		"negative slot count": {func(d *serializedCircuit) {
			d.NbSlots = -1
			d.Inputs = nil
		}, ErrInvalidCircuitState},
		"input out of range": {func(d *serializedCircuit) { d.Inputs = []Slot{0, 2} }, ErrInvalidCircuitState},
		"unknown constraint kind": {func(d *serializedCircuit) {
			d.Constraints = []Constraint{{Kind: 7, A: 0}}
		}, ErrInvalidCircuitState},
		"zero bit range check": {func(d *serializedCircuit) {
			d.Constraints = []Constraint{{Kind: RangeCheck, A: 0, Bits: 0}}
		}, ErrInvalidCircuitState},
		"range check wider than field": {func(d *serializedCircuit) {
			d.Field = uint64(fields.ECCM31)
			d.Constraints = []Constraint{{Kind: RangeCheck, A: 0, Bits: 31}}
		}, ErrInvalidCircuitState},
	} {
		doc := valid()
		tc.mutate(&doc)
		raw, err := cbor.Marshal(doc)
		require.NoError(t, err)

		c, err := ReadCircuit(bytes.NewReader(raw))
		require.ErrorIs(t, err, tc.want, name)
		require.Nil(t, c, name)
	}

	raw, err := cbor.Marshal(valid())
	require.NoError(t, err)
	c, err := ReadCircuit(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 2, c.NewWitness().NbSlots())
}
