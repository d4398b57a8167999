package beacon

import (
	"context"
	"math/big"

	"DeferredWitnessCircuit/modules/circuit"
	"DeferredWitnessCircuit/modules/datasource"
	"DeferredWitnessCircuit/modules/stream"
	"DeferredWitnessCircuit/modules/vars"

	"github.com/ethereum/go-ethereum/common"
)

// ValidatorsRootGeneratorID identifies ValidatorsRootGenerator.
const ValidatorsRootGeneratorID = "BeaconValidatorsGenerator"

func init() {
	// The generator holds a live data source; there is no persistent form yet.
	circuit.RegisterGenerator(ValidatorsRootGeneratorID, func([]byte) (circuit.Generator, error) {
		return nil, circuit.WrapUnimplementedPersistence(ValidatorsRootGeneratorID)
	})
}

// ValidatorsRootSource answers a beacon block root with the raw validators
// root of that block.
type ValidatorsRootSource = datasource.Source[common.Hash, []byte]

// ValidatorsRootGenerator fetches the validators root of the beacon block
// whose root is held by BlockRoot and writes it to ValidatorsRoot.
type ValidatorsRootGenerator struct {
	BlockRoot      vars.Bytes32Variable
	ValidatorsRoot vars.Bytes32Variable

	source ValidatorsRootSource
}

// NewValidatorsRootGenerator allocates the output variable. The generator
// still has to be added to the host.
func NewValidatorsRootGenerator(alloc circuit.Allocator, source ValidatorsRootSource, blockRoot vars.Bytes32Variable) *ValidatorsRootGenerator {
	return &ValidatorsRootGenerator{
		BlockRoot:      blockRoot,
		ValidatorsRoot: vars.Init(alloc, vars.Bytes32Type),
		source:         source,
	}
}

// GetValidatorsRoot declares the validators root of blockRoot in api.
func GetValidatorsRoot(api circuit.API, source ValidatorsRootSource, blockRoot vars.Bytes32Variable) vars.Bytes32Variable {
	g := NewValidatorsRootGenerator(api, source, blockRoot)
	api.AddGenerator(g)
	vars.Bytes32Type.AssertIsValid(api, g.ValidatorsRoot)
	return g.ValidatorsRoot
}

func (g *ValidatorsRootGenerator) ID() string {
	return ValidatorsRootGeneratorID
}

func (g *ValidatorsRootGenerator) Dependencies() []circuit.Slot {
	return g.BlockRoot.Slots()
}

func (g *ValidatorsRootGenerator) Outputs() []circuit.Slot {
	return g.ValidatorsRoot.Slots()
}

func (g *ValidatorsRootGenerator) RunOnce(ctx context.Context, witness circuit.WitnessReader, out *circuit.GeneratedValues) error {
	blockRoot, err := vars.Value(witness, vars.Bytes32Type, g.BlockRoot)
	if err != nil {
		return err
	}

	payload, err := g.source.Fetch(ctx, blockRoot)
	if err != nil {
		return circuit.WrapExternalFetchFailed(g.ID(), err)
	}

	values := stream.NewValueStream(bytesToElements(payload)...)
	validatorsRoot, err := stream.ReadValue(values, vars.Bytes32Type)
	if err != nil {
		return err
	}
	if err := values.Finalize(); err != nil {
		return err
	}
	return vars.Set(out, vars.Bytes32Type, g.ValidatorsRoot, validatorsRoot)
}

func (g *ValidatorsRootGenerator) Serialize() ([]byte, error) {
	return nil, circuit.WrapUnimplementedPersistence(g.ID())
}

func bytesToElements(b []byte) []*big.Int {
	res := make([]*big.Int, len(b))
	for i, x := range b {
		res[i] = big.NewInt(int64(x))
	}
	return res
}
