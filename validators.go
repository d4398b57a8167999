package main

import (
	"context"
	"fmt"

	"DeferredWitnessCircuit/modules/circuit"
	"DeferredWitnessCircuit/modules/datasource"
	"DeferredWitnessCircuit/modules/eth/beacon"
	"DeferredWitnessCircuit/modules/logger"
	"DeferredWitnessCircuit/modules/vars"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	consensusRPC string
	blockRootHex string
)

func init() {
	rootCmd.AddCommand(validatorsCmd)
	validatorsCmd.PersistentFlags().StringVar(&consensusRPC, "consensus-rpc", "", "The consensus RPC endpoint, defaults to $CONSENSUS_RPC_URL.")
	validatorsCmd.PersistentFlags().StringVar(&blockRootHex, "block-root", "", "The beacon block root, 0x-prefixed hex.")

	validatorsCmd.MarkPersistentFlagRequired("block-root")
}

var validatorsCmd = &cobra.Command{
	Use:   "validators",
	Short: "Resolve the validators root of a beacon block",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ValidatorsRootImpl(cmd)
	},
}

func ValidatorsRootImpl(cmd *cobra.Command) error {
	source, blockRoot, err := validatorsFlags(cmd)
	if err != nil {
		return err
	}
	defer source.Close()

	validatorsRoot, err := resolveValidatorsRoot(cmd.Context(), source, blockRoot)
	if err != nil {
		return err
	}
	fmt.Println(validatorsRoot.Hex())
	return nil
}

// validatorsFlags returns a cached consensus client and the block root.
func validatorsFlags(cmd *cobra.Command) (*datasource.Cached[common.Hash, []byte], common.Hash, error) {
	rpc := consensusRPC
	if rpc == "" {
		rpc = envOr("CONSENSUS_RPC_URL", "")
	}
	if rpc == "" {
		return nil, common.Hash{}, fmt.Errorf("no consensus RPC, set --consensus-rpc or CONSENSUS_RPC_URL")
	}
	if !isHexHash(blockRootHex) {
		return nil, common.Hash{}, fmt.Errorf("invalid block root %q", blockRootHex)
	}

	source, err := datasource.NewCached[common.Hash, []byte](
		cmd.Context(),
		beacon.NewClient(rpc),
		common.Hash.Hex,
		datasource.DefaultCacheConfig(),
	)
	if err != nil {
		return nil, common.Hash{}, err
	}
	return source, common.HexToHash(blockRootHex), nil
}

func resolveValidatorsRoot(ctx context.Context, source beacon.ValidatorsRootSource, blockRoot common.Hash) (common.Hash, error) {
	builder := circuit.NewBuilder(fieldEnum)
	blockRootVar := vars.Input(builder, vars.Bytes32Type)
	validatorsRootVar := beacon.GetValidatorsRoot(builder, source, blockRootVar)

	c, err := builder.Build()
	if err != nil {
		return common.Hash{}, err
	}
	c.PrintStats()
	if err := writeCircuit(c); err != nil {
		return common.Hash{}, err
	}

	w := c.NewWitness()
	if err := vars.Set(w, vars.Bytes32Type, blockRootVar, blockRoot); err != nil {
		return common.Hash{}, err
	}

	log := logger.Logger()
	log.Info().Str("blockRoot", blockRoot.Hex()).Msg("resolving witness")
	if err := c.Resolve(ctx, w, resolveOptions()...); err != nil {
		return common.Hash{}, err
	}
	if err := c.IsSolved(w); err != nil {
		return common.Hash{}, err
	}
	return vars.Value(w, vars.Bytes32Type, validatorsRootVar)
}

func isHexHash(s string) bool {
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == common.HashLength
}
