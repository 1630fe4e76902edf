package main

import (
	"fmt"
	"path/filepath"

	"github.com/gscnet/blockcore/config"
	"github.com/gscnet/blockcore/internal/wallet"
	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/spf13/cobra"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the producer key",
	}
	cmd.AddCommand(newKeyNewCmd(a), newKeyAddressCmd(a), newKeyEncryptCmd(a))
	return cmd
}

func newKeyNewCmd(a *app) *cobra.Command {
	var (
		source string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a producer key (hex, encrypted or mnemonic file)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = filepath.Join(a.cfg.KeystoreDir(), "producer."+source)
			}

			var addr string
			switch config.KeySource(source) {
			case config.KeySourceMnemonic:
				m, err := wallet.GenerateMnemonic()
				if err != nil {
					return err
				}
				if err := wallet.SaveMnemonic(out, m); err != nil {
					return err
				}
				raw, err := wallet.MnemonicKey{Path: out}.PrivateKey()
				if err != nil {
					return err
				}
				addr, err = addressOf(raw)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Mnemonic: %s\n", m)
			case config.KeySourceHex, config.KeySourceEncrypted:
				key, err := crypto.GenerateKey()
				if err != nil {
					return err
				}
				defer key.Zero()
				if config.KeySource(source) == config.KeySourceHex {
					err = wallet.SaveHexKey(out, key.Serialize())
				} else {
					var pw []byte
					if pw, err = a.newPassword(); err != nil {
						return err
					}
					err = wallet.SaveEncryptedKey(out, key.Serialize(), pw, wallet.DefaultParams())
				}
				if err != nil {
					return err
				}
				addr = key.Address().String()
			default:
				return fmt.Errorf("unknown key source %q", source)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Address:  %s\nKey file: %s\n", addr, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "type", string(config.KeySourceEncrypted), "Key file type (hex, encrypted, mnemonic)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Key file path (default: <keystore>/producer.<type>)")
	return cmd
}

func newKeyAddressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the address of the configured producer key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := a.producerKey()
			if err != nil {
				return err
			}
			defer key.Zero()
			fmt.Fprintln(cmd.OutOrStdout(), key.Address())
			return nil
		},
	}
}

func newKeyEncryptCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "encrypt HEXKEYFILE",
		Short: "Encrypt a plain hex key file with a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := wallet.HexKeyFile{Path: args[0]}.PrivateKey()
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + ".enc"
			}
			pw, err := a.newPassword()
			if err != nil {
				return err
			}
			if err := wallet.SaveEncryptedKey(out, raw, pw, wallet.DefaultParams()); err != nil {
				return err
			}
			addr, err := addressOf(raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Address:  %s\nKey file: %s\n", addr, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Encrypted key file (default: HEXKEYFILE.enc)")
	return cmd
}

func addressOf(raw []byte) (string, error) {
	key, err := crypto.PrivateKeyFromBytes(raw)
	if err != nil {
		return "", err
	}
	defer key.Zero()
	return key.Address().String(), nil
}
