package main

import (
	"testing"

	"DeferredWitnessCircuit/modules/fields"

	"github.com/stretchr/testify/require"
)

func TestParseCLIField(t *testing.T) {
	for name, want := range map[string]fields.ECCFieldEnum{
		"bn254":      fields.ECCBN254,
		"m31":        fields.ECCM31,
		"Mersenne31": fields.ECCM31,
	} {
		got, err := parseCLIField(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}

	_, err := parseCLIField("gf2")
	require.ErrorContains(t, err, "too small")

	_, err = parseCLIField("goldilocks")
	require.Error(t, err)
}

func TestRootRejectsGF2(t *testing.T) {
	rootCmd.SetArgs([]string{"--field", "gf2", "mersenne31"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.ErrorContains(t, err, "too small")
}
