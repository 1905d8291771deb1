package cmd

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/chain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeygen(t *testing.T) {
	var out bytes.Buffer
	keygenCmd.SetOut(&out)
	defer keygenCmd.SetOut(nil)

	require.NoError(t, runKeygen(keygenCmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "PRIVATE_KEY=0x"))

	w, err := chain.NewWallet(strings.TrimPrefix(lines[0], "PRIVATE_KEY="), big.NewInt(56))
	require.NoError(t, err)
	assert.Equal(t, "# address "+w.Address().Hex(), lines[1])
}
