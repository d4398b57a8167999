package circuit

import (
	"context"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// ConstantGeneratorID identifies ConstantGenerator.
const ConstantGeneratorID = "ConstantGenerator"

func init() {
	RegisterGenerator(ConstantGeneratorID, decodeConstantGenerator)
}

// ConstantGenerator writes fixed values into its output slots.
type ConstantGenerator struct {
	Slots  []Slot
	Values []*big.Int
}

func NewConstantGenerator(slots []Slot, values []*big.Int) *ConstantGenerator {
	if len(slots) != len(values) {
		panic(fmt.Sprintf("circuit: %d constant values for %d slots", len(values), len(slots)))
	}
	return &ConstantGenerator{Slots: slots, Values: values}
}

func (g *ConstantGenerator) ID() string { return ConstantGeneratorID }

func (g *ConstantGenerator) Dependencies() []Slot { return nil }

func (g *ConstantGenerator) Outputs() []Slot { return g.Slots }

func (g *ConstantGenerator) RunOnce(_ context.Context, _ WitnessReader, out *GeneratedValues) error {
	for i, s := range g.Slots {
		if err := out.Set(s, g.Values[i]); err != nil {
			return err
		}
	}
	return nil
}

type constantGeneratorData struct {
	Slots  []Slot   `cbor:"1,keyasint"`
	Values [][]byte `cbor:"2,keyasint"`
}

func (g *ConstantGenerator) Serialize() ([]byte, error) {
	data := constantGeneratorData{
		Slots:  g.Slots,
		Values: make([][]byte, len(g.Values)),
	}
	for i, v := range g.Values {
		if v.Sign() < 0 {
			return nil, fmt.Errorf("circuit: negative constant %s for slot %d", v, g.Slots[i])
		}
		data.Values[i] = v.Bytes()
	}
	return cbor.Marshal(data)
}

func decodeConstantGenerator(raw []byte) (Generator, error) {
	var data constantGeneratorData
	if err := cbor.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("circuit: decode constant generator: %w", err)
	}
	if len(data.Slots) != len(data.Values) {
		return nil, WrapDecodeLengthMismatch("constant generator values", len(data.Slots), len(data.Values))
	}
	values := make([]*big.Int, len(data.Values))
	for i, b := range data.Values {
		values[i] = new(big.Int).SetBytes(b)
	}
	return NewConstantGenerator(data.Slots, values), nil
}
