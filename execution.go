package main

import (
	"fmt"
	"strconv"

	"DeferredWitnessCircuit/modules/circuit"
	"DeferredWitnessCircuit/modules/datasource"
	"DeferredWitnessCircuit/modules/eth/beaconchain"
	"DeferredWitnessCircuit/modules/vars"

	"github.com/spf13/cobra"
)

var (
	beaconchainURL  string
	beaconchainKey  string
	blockNumberArgs []string
)

func init() {
	rootCmd.AddCommand(executionSlotCmd)
	executionSlotCmd.PersistentFlags().StringVar(&beaconchainURL, "api-url", "", "The beaconcha.in API, defaults to $BEACONCHAIN_API_URL or "+beaconchain.DefaultAPIURL+".")
	executionSlotCmd.PersistentFlags().StringVar(&beaconchainKey, "api-key", "", "The beaconcha.in API key, defaults to $BEACONCHAIN_API_KEY.")
	executionSlotCmd.PersistentFlags().StringSliceVar(&blockNumberArgs, "block-number", nil, "Execution block numbers to resolve the consensus slot of.")

	executionSlotCmd.MarkPersistentFlagRequired("block-number")
}

var executionSlotCmd = &cobra.Command{
	Use:   "execution-slot",
	Short: "Resolve the consensus slot of execution blocks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ExecutionSlotImpl(cmd)
	},
}

func ExecutionSlotImpl(cmd *cobra.Command) error {
	apiURL := beaconchainURL
	if apiURL == "" {
		apiURL = envOr("BEACONCHAIN_API_URL", beaconchain.DefaultAPIURL)
	}
	apiKey := beaconchainKey
	if apiKey == "" {
		apiKey = envOr("BEACONCHAIN_API_KEY", "")
	}
	blockNumbers := make([]uint64, len(blockNumberArgs))
	for i, arg := range blockNumberArgs {
		n, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid block number %q: %w", arg, err)
		}
		blockNumbers[i] = n
	}

	// repeated block numbers are answered from the cache
	source, err := datasource.NewCached[uint64, uint64](
		cmd.Context(),
		beaconchain.NewAPIClient(apiURL, apiKey),
		func(n uint64) string { return strconv.FormatUint(n, 10) },
		datasource.DefaultCacheConfig(),
	)
	if err != nil {
		return err
	}
	defer source.Close()

	builder := circuit.NewBuilder(fieldEnum)
	inputs := make([]vars.U64Variable, len(blockNumbers))
	slots := make([]vars.U64Variable, len(blockNumbers))
	for i := range blockNumbers {
		inputs[i] = vars.Input(builder, vars.U64Type)
		slots[i] = beaconchain.GetExecutionSlot(builder, source, inputs[i])
	}

	c, err := builder.Build()
	if err != nil {
		return err
	}
	c.PrintStats()
	if err := writeCircuit(c); err != nil {
		return err
	}

	w := c.NewWitness()
	for i, n := range blockNumbers {
		if err := vars.Set(w, vars.U64Type, inputs[i], n); err != nil {
			return err
		}
	}
	if err := c.Resolve(cmd.Context(), w, resolveOptions()...); err != nil {
		return err
	}
	if err := c.IsSolved(w); err != nil {
		return err
	}

	for i, n := range blockNumbers {
		slot, err := vars.Value(w, vars.U64Type, slots[i])
		if err != nil {
			return err
		}
		fmt.Printf("%d %d\n", n, slot)
	}
	return nil
}
