package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/atlaskeeper/internal/client/config"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/wallet"
)

// MnemonicEnvName lets scripts supply the mnemonic without a prompt.
const MnemonicEnvName = "ATLAS_MNEMONIC"

// getSecret and generateMnemonic are indirections used to facilitate testing.
var (
	getSecret        = GetSecret
	generateMnemonic = wallet.Generate
)

// openWallet builds the wallet selected by c.WalletKind. A mnemonic wallet
// reads its phrase from ATLAS_MNEMONIC or the terminal; an empty answer
// generates a new phrase and prints it once.
func openWallet(c *config.Config, w io.Writer) (wallet.Wallet, error) {
	switch c.WalletKind {
	case config.WalletWatch:
		ww, err := wallet.NewWatchWallet(c.WatchAddress)
		if err != nil {
			return nil, err
		}
		return ww, nil

	case config.WalletMnemonic:
		phrase := []byte(os.Getenv(MnemonicEnvName))
		if len(phrase) == 0 {
			var err error
			phrase, err = getSecret(w, "Enter wallet mnemonic (empty to generate a new one): ")
			if err != nil {
				return nil, fmt.Errorf("read mnemonic: %w", err)
			}
		}
		defer common.WipeByteArray(phrase)

		mnemonic := strings.Join(strings.Fields(string(phrase)), " ")
		if mnemonic == "" {
			generated, err := generateMnemonic()
			if err != nil {
				return nil, err
			}
			fmt.Fprintln(w, "New wallet mnemonic, write it down now:")
			fmt.Fprintln(w, generated)
			mnemonic = generated
		}

		mw, err := wallet.FromMnemonic(mnemonic, "", c.AddressPrefix)
		if err != nil {
			return nil, err
		}
		return mw, nil

	default:
		return nil, fmt.Errorf("unknown wallet kind %q", c.WalletKind)
	}
}
