package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/dmitrijs2005/atlaskeeper/internal/client/config"
	"github.com/dmitrijs2005/atlaskeeper/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestOpenWallet_MnemonicFromEnvironment(t *testing.T) {
	t.Setenv(MnemonicEnvName, "  "+testMnemonic+"  ")
	origSecret := getSecret
	getSecret = func(io.Writer, string) ([]byte, error) {
		t.Fatal("prompted although the environment has a mnemonic")
		return nil, nil
	}
	t.Cleanup(func() { getSecret = origSecret })

	w, err := openWallet(&config.Config{WalletKind: config.WalletMnemonic, AddressPrefix: "atl"}, io.Discard)
	require.NoError(t, err)

	want, err := wallet.FromMnemonic(testMnemonic, "", "atl")
	require.NoError(t, err)
	assert.Equal(t, want.Address(), w.Address())
}

func TestOpenWallet_GeneratesOnEmptyAnswer(t *testing.T) {
	t.Setenv(MnemonicEnvName, "")
	origSecret, origGenerate := getSecret, generateMnemonic
	getSecret = func(io.Writer, string) ([]byte, error) { return []byte("\n"), nil }
	generateMnemonic = func() (string, error) { return testMnemonic, nil }
	t.Cleanup(func() { getSecret, generateMnemonic = origSecret, origGenerate })

	var out bytes.Buffer
	w, err := openWallet(&config.Config{WalletKind: config.WalletMnemonic, AddressPrefix: "atl"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), testMnemonic)
	assert.NotEmpty(t, w.PublicKey())
}

func TestOpenWallet_Watch(t *testing.T) {
	signer, err := wallet.FromMnemonic(testMnemonic, "", "atl")
	require.NoError(t, err)

	w, err := openWallet(&config.Config{WalletKind: config.WalletWatch, WatchAddress: signer.Address()}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), w.Address())

	_, err = w.Sign([]byte("msg"))
	require.ErrorIs(t, err, wallet.ErrReadOnlyWallet)

	_, err = openWallet(&config.Config{WalletKind: config.WalletWatch, WatchAddress: "not-an-address"}, io.Discard)
	require.Error(t, err)

	_, err = openWallet(&config.Config{WalletKind: "ledger-nano"}, io.Discard)
	require.Error(t, err)
}
