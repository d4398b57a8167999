package main

import (
	"errors"
	"math/big"

	"DeferredWitnessCircuit/modules/fields"
	"DeferredWitnessCircuit/modules/gnarkhost"
	"DeferredWitnessCircuit/modules/hash"
	"DeferredWitnessCircuit/modules/logger"
	"DeferredWitnessCircuit/modules/stream"

	"github.com/PolyhedraZK/ExpanderCompilerCollection/ecgo"
	ecgoTest "github.com/PolyhedraZK/ExpanderCompilerCollection/ecgo/test"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
)

var (
	capHeight   int
	proofLength int
	sampleSeed  uint64
)

func init() {
	rootCmd.AddCommand(m31Cmd)
	m31Cmd.PersistentFlags().IntVar(&capHeight, "cap-height", 2, "The height of the sample digest set.")
	m31Cmd.PersistentFlags().IntVar(&proofLength, "proof-length", 3, "The number of siblings in the sample authentication path.")
	m31Cmd.PersistentFlags().Uint64Var(&sampleSeed, "seed", 1, "Seed of the sample digests.")
}

var m31Cmd = &cobra.Command{
	Use:   "mersenne31",
	Short: "Compile and check the digest set codec circuit over Mersenne31",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Mersenne31Impl()
	},
}

func sampleDigests(rng *rand.Rand, n int, modulus *big.Int) []hash.HashOut {
	res := make([]hash.HashOut, n)
	for i := range res {
		for j := range res[i].Elements {
			res[i].Elements[j] = new(big.Int).Mod(new(big.Int).SetUint64(rng.Uint64()), modulus)
		}
	}
	return res
}

func Mersenne31Impl() error {
	log := logger.Logger()
	modulus := fields.ECCM31.FieldModulus()

	// the digest set and its path go through the concrete codec first
	rng := rand.New(rand.NewSource(sampleSeed))
	values := stream.NewValueStream()
	hash.WriteMerkleCapValue(values, sampleDigests(rng, hash.CapSize(capHeight), modulus))
	hash.WriteMerkleProofValue(values, hash.MerkleProof{Siblings: sampleDigests(rng, proofLength, modulus)})
	digests, err := hash.ReadMerkleCapValue(values, capHeight)
	if err != nil {
		return err
	}
	proof, err := hash.ReadMerkleProofValue(values, proofLength)
	if err != nil {
		return err
	}
	if err := values.Finalize(); err != nil {
		return err
	}

	m31Compilation, err := ecgo.Compile(modulus, gnarkhost.NewDigestSetCircuit(capHeight, proofLength))
	if err != nil {
		return err
	}

	assignment := gnarkhost.NewDigestSetCircuit(capHeight, proofLength)
	assignment.Assign(gnarkhost.MerkleCapTargetOf(digests), gnarkhost.MerkleProofTargetOf(proof))

	log.Info().Int("capHeight", capHeight).Int("proofLength", proofLength).Int("nbElements", len(assignment.Stream)).Msg("solving witness")
	inputSolver := m31Compilation.GetInputSolver()
	witness, err := inputSolver.SolveInput(assignment, 0)
	if err != nil {
		return err
	}

	log.Info().Msg("checking satisfiability")
	layeredCircuit := m31Compilation.GetLayeredCircuit()
	if !ecgoTest.CheckCircuit(layeredCircuit, witness) {
		return errors.New("layered circuit not satisfied")
	}
	log.Info().Msg("layered circuit satisfied")
	return nil
}
