package config

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestChainParams(t *testing.T) {
	tests := []struct {
		network string
		want    *chaincfg.Params
	}{
		{"mainnet", &chaincfg.MainNetParams},
		{"testnet", &chaincfg.TestNet3Params},
		{"regtest", &chaincfg.RegressionNetParams},
		{"simnet", &chaincfg.SimNetParams},
	}

	for _, tt := range tests {
		cfg := &Config{Network: tt.network}
		got, err := cfg.ChainParams()
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}

func TestChainParamsRejectsUnknownNetwork(t *testing.T) {
	cfg := &Config{Network: "nonsense"}
	_, err := cfg.ChainParams()
	require.Error(t, err)
}
