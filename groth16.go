package main

import (
	"fmt"
	"io"
	"os"

	"DeferredWitnessCircuit/modules/gnarkhost"
	"DeferredWitnessCircuit/modules/logger"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/spf13/cobra"
)

var (
	groth16CRSFile   string
	groth16VKFile    string
	groth16Mode      string
	groth16ProofFile string
)

var groth16Cmd = &cobra.Command{
	Use:   "groth16",
	Short: "Prove the validators root of a beacon block with Groth16",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Groth16Impl(cmd)
	},
}

func init() {
	validatorsCmd.AddCommand(groth16Cmd)
	groth16Cmd.PersistentFlags().StringVar(&groth16CRSFile, "groth16-crs", "", "The Groth16 CRS used to prove.")
	groth16Cmd.PersistentFlags().StringVar(&groth16VKFile, "groth16-vk", "", "The Groth16 VK used to verify.")
	groth16Cmd.PersistentFlags().StringVar(&groth16Mode, "groth16-mode", "", "The Groth16 work mode - one of prove/verify/setup.")
	groth16Cmd.PersistentFlags().StringVar(&groth16ProofFile, "groth16-proof", "", "The Groth16 proof file.")

	groth16Cmd.MarkPersistentFlagRequired("groth16-mode")
}

func Groth16Impl(cmd *cobra.Command) error {
	source, blockRoot, err := validatorsFlags(cmd)
	if err != nil {
		return err
	}
	defer source.Close()

	// resolved outside the proof first, the hint then hits the cache
	validatorsRoot, err := resolveValidatorsRoot(cmd.Context(), source, blockRoot)
	if err != nil {
		return err
	}

	log := logger.Logger()
	scope := gnarkhost.NewScope()
	defer scope.Release()
	validatorsCircuit := gnarkhost.ValidatorsRootCircuit{Source: source, Scope: scope}
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &validatorsCircuit)
	if err != nil {
		return err
	}
	log.Info().
		Int("nbConstraints", ccs.GetNbConstraints()).
		Int("nbInternal", ccs.GetNbInternalVariables()).
		Int("nbSecret", ccs.GetNbSecretVariables()).
		Int("nbPublic", ccs.GetNbPublicVariables()).
		Msg("compiled r1cs")

	witness, err := frontend.NewWitness(gnarkhost.ValidatorsRootAssignment(blockRoot, validatorsRoot), ecc.BN254.ScalarField())
	if err != nil {
		return err
	}
	log.Info().Msg("checking satisfiability")
	if err = ccs.IsSolved(witness); err != nil {
		return fmt.Errorf("r1cs not satisfied: %w", err)
	}

	switch groth16Mode {
	case "setup":
		log.Info().Msg("groth16 generating setup from scratch")
		pk, vk, err := groth16.Setup(ccs)
		if err != nil {
			return err
		}
		if err := writeFile(groth16CRSFile, pk); err != nil {
			return err
		}
		return writeFile(groth16VKFile, vk)
	case "prove":
		log.Info().Msg("groth16 reading CRS from file")
		pk := groth16.NewProvingKey(ecc.BN254)
		if err := readFile(groth16CRSFile, pk); err != nil {
			return err
		}
		proof, err := groth16.Prove(ccs, pk, witness)
		if err != nil {
			return fmt.Errorf("groth16 prove: %w", err)
		}
		return writeFile(groth16ProofFile, proof)
	case "verify":
		log.Info().Msg("groth16 reading vk from file")
		vk := groth16.NewVerifyingKey(ecc.BN254)
		if err := readFile(groth16VKFile, vk); err != nil {
			return err
		}
		proof := groth16.NewProof(ecc.BN254)
		if err := readFile(groth16ProofFile, proof); err != nil {
			return err
		}
		publicWitness, err := witness.Public()
		if err != nil {
			return err
		}
		if err := groth16.Verify(proof, vk, publicWitness); err != nil {
			return err
		}
		log.Info().Str("validatorsRoot", validatorsRoot.Hex()).Msg("proof verified")
		return nil
	default:
		return fmt.Errorf("unknown groth16 mode %q", groth16Mode)
	}
}

func writeFile(path string, v io.WriterTo) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = v.WriteTo(f)
	return err
}

func readFile(path string, v io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = v.ReadFrom(f)
	return err
}
