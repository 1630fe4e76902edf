package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gscnet/blockcore/config"
	"github.com/gscnet/blockcore/internal/chain"
	"github.com/gscnet/blockcore/internal/log"
	"github.com/gscnet/blockcore/internal/storage"
	"github.com/gscnet/blockcore/internal/wallet"
	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Environment variables read instead of prompting.
const (
	envPassword   = "GSCBLOCK_PASSWORD"
	envPassphrase = "GSCBLOCK_PASSPHRASE"
)

// app holds the state shared by every command of one invocation.
type app struct {
	flags config.Flags
	cfg   *config.Config
	stdin io.Reader
}

func newRootCmd() *cobra.Command {
	a := &app{stdin: os.Stdin}

	root := &cobra.Command{
		Use:           "gscblock",
		Short:         "Assemble, sign and verify blocks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}
	a.flags.Register(root.PersistentFlags())

	root.AddCommand(
		newAssembleCmd(a),
		newVerifyCmd(a),
		newInspectCmd(a),
		newKeyCmd(a),
		newStoreCmd(a),
	)
	return root
}

// loadConfig builds the effective configuration: defaults, config file,
// then flags.
func (a *app) loadConfig() error {
	cfg, err := config.Load(a.flags.NetworkType(), a.flags.DataDir, a.flags.Config)
	if err != nil {
		return err
	}
	config.ApplyFlags(cfg, &a.flags)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	a.cfg = cfg
	log.CLI.Debug().
		Str("network", string(cfg.Network)).
		Str("datadir", cfg.DataDir).
		Msg("Configuration loaded")
	return nil
}

// producerKey loads the configured producer key.
func (a *app) producerKey() (*crypto.PrivateKey, error) {
	var secret []byte
	switch a.cfg.Producer.KeySource {
	case config.KeySourceEncrypted:
		pw, err := a.readPassword("Key password: ")
		if err != nil {
			return nil, err
		}
		secret = pw
	case config.KeySourceMnemonic:
		secret = []byte(os.Getenv(envPassphrase))
	}

	provider, err := wallet.FromConfig(a.cfg.Producer, secret)
	if err != nil {
		return nil, err
	}
	raw, err := provider.PrivateKey()
	if err != nil {
		return nil, fmt.Errorf("load producer key: %w", err)
	}
	return crypto.PrivateKeyFromBytes(raw)
}

// openStore opens the block store for the configured network. The caller
// must close the returned DB.
func (a *app) openStore() (*chain.BlockStore, storage.DB, error) {
	db, err := storage.Open(a.cfg.Store, a.cfg.BlocksDir())
	if err != nil {
		return nil, nil, err
	}
	ns := storage.NewPrefixDB(db, []byte(string(a.cfg.Network)+"/"))
	return chain.NewBlockStore(ns), db, nil
}

// readPassword reads a password from the environment or the terminal.
func (a *app) readPassword(prompt string) ([]byte, error) {
	if pw, ok := os.LookupEnv(envPassword); ok {
		return []byte(pw), nil
	}
	f, ok := a.stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, errors.New("no terminal for password prompt; set " + envPassword)
	}
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// newPassword asks for a password twice and checks they match.
func (a *app) newPassword() ([]byte, error) {
	pw, err := a.readPassword("New password: ")
	if err != nil {
		return nil, err
	}
	if _, fromEnv := os.LookupEnv(envPassword); fromEnv {
		return pw, nil
	}
	again, err := a.readPassword("Repeat password: ")
	if err != nil {
		return nil, err
	}
	if string(pw) != string(again) {
		return nil, errors.New("passwords do not match")
	}
	if strings.TrimSpace(string(pw)) == "" {
		return nil, errors.New("empty password")
	}
	return pw, nil
}
