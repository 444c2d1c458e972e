// Package wallet holds the account keys that authorize ledger transactions.
//
// Keys are secp256k1, derived from a BIP39 mnemonic along the BIP44 path
// m/44'/118'/0'/0/0. An address is the bech32 encoding of
// RIPEMD160(SHA256(compressed public key)) under a human readable prefix.
// Signatures are 65-byte compact signatures over SHA256(message), so the
// verifier can recover the public key from them.
package wallet

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/tyler-smith/go-bip39"
)

const (
	coinType = 118

	// SignatureSize is the length of a compact recoverable signature.
	SignatureSize = 65

	// mnemonicEntropy gives 24 words.
	mnemonicEntropy = 256
)

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrReadOnlyWallet  = errors.New("wallet cannot sign")
	ErrInvalidAddress  = errors.New("invalid address")
	ErrBadSignature    = errors.New("signature does not match public key")
)

// Wallet identifies the uploading account and signs on its behalf.
type Wallet interface {
	Address() string
	// PublicKey returns the 33-byte compressed key, or nil for watch-only wallets.
	PublicKey() []byte
	Sign(msg []byte) ([]byte, error)
}

// Generate returns a fresh 24-word mnemonic.
func Generate() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropy)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// MnemonicWallet signs with the first account key of a mnemonic.
type MnemonicWallet struct {
	priv    *btcec.PrivateKey
	pub     []byte
	address string
}

// FromMnemonic derives the account key of mnemonic. An empty prefix means
// common.DefaultAddressPrefix.
func FromMnemonic(mnemonic, passphrase, prefix string) (*MnemonicWallet, error) {
	if prefix == "" {
		prefix = common.DefaultAddressPrefix
	}

	seed, err := bip39.NewSeedWithErrorChecking(strings.TrimSpace(mnemonic), passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	defer common.WipeByteArray(seed)

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}

	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + 0,
		0,
		0,
	}
	for _, i := range path {
		key, err = key.Derive(i)
		if err != nil {
			return nil, fmt.Errorf("derive %d: %w", i, err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}

	pub := priv.PubKey().SerializeCompressed()
	address, err := AddressFromPubKey(prefix, pub)
	if err != nil {
		return nil, err
	}

	return &MnemonicWallet{priv: priv, pub: pub, address: address}, nil
}

func (w *MnemonicWallet) Address() string { return w.address }

func (w *MnemonicWallet) PublicKey() []byte { return bytes.Clone(w.pub) }

// Sign returns a compact signature over SHA256(msg).
func (w *MnemonicWallet) Sign(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	return ecdsa.SignCompact(w.priv, digest[:], true), nil
}

// WatchWallet knows an address but holds no key. It is enough to derive
// file identifiers; broadcasting with it fails.
type WatchWallet struct {
	address string
}

// NewWatchWallet validates address and returns a read-only wallet for it.
func NewWatchWallet(address string) (*WatchWallet, error) {
	if _, _, err := bech32.Decode(address); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return &WatchWallet{address: address}, nil
}

func (w *WatchWallet) Address() string { return w.address }

func (w *WatchWallet) PublicKey() []byte { return nil }

func (w *WatchWallet) Sign([]byte) ([]byte, error) { return nil, ErrReadOnlyWallet }

// AddressFromPubKey encodes the hash160 of a compressed public key.
func AddressFromPubKey(prefix string, pub []byte) (string, error) {
	if _, err := btcec.ParsePubKey(pub); err != nil {
		return "", fmt.Errorf("parse public key: %w", err)
	}
	conv, err := bech32.ConvertBits(btcutil.Hash160(pub), 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(prefix, conv)
}

// VerifySignature checks that sig is a compact signature over SHA256(msg)
// made by the key pub.
func VerifySignature(pub, msg, sig []byte) error {
	if len(sig) != SignatureSize {
		return fmt.Errorf("%w: length %d", ErrBadSignature, len(sig))
	}
	digest := sha256.Sum256(msg)
	recovered, _, err := ecdsa.RecoverCompact(sig, digest[:])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !bytes.Equal(recovered.SerializeCompressed(), pub) {
		return ErrBadSignature
	}
	return nil
}
