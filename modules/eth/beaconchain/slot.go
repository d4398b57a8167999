package beaconchain

import (
	"context"

	"DeferredWitnessCircuit/modules/circuit"
	"DeferredWitnessCircuit/modules/datasource"
	"DeferredWitnessCircuit/modules/vars"
)

const ExecutionSlotGeneratorID = "BeaconchainExecutionSlotGenerator"

func init() {
	circuit.RegisterGenerator(ExecutionSlotGeneratorID, func([]byte) (circuit.Generator, error) {
		return nil, circuit.WrapUnimplementedPersistence(ExecutionSlotGeneratorID)
	})
}

// SlotSource maps an execution block number to its consensus slot.
type SlotSource = datasource.Source[uint64, uint64]

// ExecutionSlotGenerator resolves the consensus slot of an execution block.
type ExecutionSlotGenerator struct {
	BlockNumber vars.U64Variable
	Slot        vars.U64Variable

	source SlotSource
}

func NewExecutionSlotGenerator(alloc circuit.Allocator, source SlotSource, blockNumber vars.U64Variable) *ExecutionSlotGenerator {
	return &ExecutionSlotGenerator{
		BlockNumber: blockNumber,
		Slot:        vars.Init(alloc, vars.U64Type),
		source:      source,
	}
}

// GetExecutionSlot declares the consensus slot of blockNumber in api.
func GetExecutionSlot(api circuit.API, source SlotSource, blockNumber vars.U64Variable) vars.U64Variable {
	g := NewExecutionSlotGenerator(api, source, blockNumber)
	api.AddGenerator(g)
	vars.U64Type.AssertIsValid(api, g.Slot)
	return g.Slot
}

func (g *ExecutionSlotGenerator) ID() string { return ExecutionSlotGeneratorID }

func (g *ExecutionSlotGenerator) Dependencies() []circuit.Slot { return g.BlockNumber.Slots() }

func (g *ExecutionSlotGenerator) Outputs() []circuit.Slot { return g.Slot.Slots() }

func (g *ExecutionSlotGenerator) RunOnce(ctx context.Context, witness circuit.WitnessReader, out *circuit.GeneratedValues) error {
	blockNumber, err := vars.Value(witness, vars.U64Type, g.BlockNumber)
	if err != nil {
		return err
	}
	slot, err := g.source.Fetch(ctx, blockNumber)
	if err != nil {
		return circuit.WrapExternalFetchFailed(g.ID(), err)
	}
	return vars.Set(out, vars.U64Type, g.Slot, slot)
}

func (g *ExecutionSlotGenerator) Serialize() ([]byte, error) {
	return nil, circuit.WrapUnimplementedPersistence(g.ID())
}
