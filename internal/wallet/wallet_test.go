package wallet

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the BIP39 reference vector mnemonic
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestFromMnemonic_Deterministic(t *testing.T) {
	a, err := FromMnemonic(testMnemonic, "", "")
	require.NoError(t, err)
	b, err := FromMnemonic(testMnemonic, "", "")
	require.NoError(t, err)

	assert.Equal(t, a.Address(), b.Address())
	assert.Equal(t, a.PublicKey(), b.PublicKey())
	assert.Len(t, a.PublicKey(), 33)
	assert.True(t, strings.HasPrefix(a.Address(), "atl1"), a.Address())

	hrp, data, err := bech32.Decode(a.Address())
	require.NoError(t, err)
	assert.Equal(t, "atl", hrp)
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	require.NoError(t, err)
	assert.Len(t, raw, 20)
}

func TestFromMnemonic_PassphraseAndPrefix(t *testing.T) {
	plain, err := FromMnemonic(testMnemonic, "", "atl")
	require.NoError(t, err)
	salted, err := FromMnemonic(testMnemonic, "extra", "atl")
	require.NoError(t, err)
	other, err := FromMnemonic(testMnemonic, "", "cosmos")
	require.NoError(t, err)

	assert.NotEqual(t, plain.Address(), salted.Address())
	assert.True(t, strings.HasPrefix(other.Address(), "cosmos1"))
	assert.Equal(t, plain.PublicKey(), other.PublicKey())
}

func TestFromMnemonic_Invalid(t *testing.T) {
	_, err := FromMnemonic("abandon abandon abandon", "", "")
	require.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestGenerate(t *testing.T) {
	m, err := Generate()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(m), 24)

	_, err = FromMnemonic(m, "", "")
	require.NoError(t, err)
}

func TestSignAndVerify(t *testing.T) {
	w, err := FromMnemonic(testMnemonic, "", "")
	require.NoError(t, err)

	msg := []byte("tx body bytes")
	sig, err := w.Sign(msg)
	require.NoError(t, err)
	assert.Len(t, sig, SignatureSize)

	require.NoError(t, VerifySignature(w.PublicKey(), msg, sig))
	assert.ErrorIs(t, VerifySignature(w.PublicKey(), []byte("other"), sig), ErrBadSignature)
	assert.ErrorIs(t, VerifySignature(w.PublicKey(), msg, sig[:10]), ErrBadSignature)

	other, err := FromMnemonic(testMnemonic, "x", "")
	require.NoError(t, err)
	assert.ErrorIs(t, VerifySignature(other.PublicKey(), msg, sig), ErrBadSignature)
}

func TestAddressFromPubKey(t *testing.T) {
	w, err := FromMnemonic(testMnemonic, "", "")
	require.NoError(t, err)

	addr, err := AddressFromPubKey("atl", w.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, w.Address(), addr)

	_, err = AddressFromPubKey("atl", []byte{1, 2, 3})
	require.Error(t, err)
}

func TestWatchWallet(t *testing.T) {
	w, err := FromMnemonic(testMnemonic, "", "")
	require.NoError(t, err)

	watch, err := NewWatchWallet(w.Address())
	require.NoError(t, err)
	assert.Equal(t, w.Address(), watch.Address())
	assert.Nil(t, watch.PublicKey())

	_, err = watch.Sign([]byte("x"))
	require.ErrorIs(t, err, ErrReadOnlyWallet)

	_, err = NewWatchWallet("not-an-address")
	require.ErrorIs(t, err, ErrInvalidAddress)
}
