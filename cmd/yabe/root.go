package main

import (
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"yabe/app/config"
	"yabe/app/models"
	"yabe/app/repositories"
)

const cliVersion = "1.0.0"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configFile string
	cfg        *config.Config
	store      *repositories.Store
}

// run executes one yabe invocation and always closes the store it opened.
func run(args []string, stdin io.Reader, stdout io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)

	err := root.Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:           "yabe",
		Short:         "yabe manages the blog database",
		Version:       cliVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			models.PasswordCost = cfg.BcryptCost
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./yabe.yaml or ~/.yabe/yabe.yaml)")
	flags.String("db-path", "", "badger database directory")
	flags.Bool("in-memory", false, "use a throwaway in-memory database")
	flags.BoolP("verbose", "v", false, "print badger log output")
	v.BindPFlag(config.KeyDBPath, flags.Lookup("db-path"))
	v.BindPFlag(config.KeyInMemory, flags.Lookup("in-memory"))
	v.BindPFlag(config.KeyVerbose, flags.Lookup("verbose"))

	root.AddCommand(
		newInitCmd(a),
		newResetCmd(a),
		newLoadCmd(a),
		newStatsCmd(a),
		newFindCmd(a),
		newConnectCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
	)
	return root
}

// open opens the configured store on first use.
func (a *app) open() (*repositories.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	opts := repositories.Options{Path: a.cfg.DBPath, InMemory: a.cfg.InMemory}
	if a.cfg.Verbose {
		opts.Logger = log.New(os.Stderr, "badger ", log.LstdFlags)
	}
	if !opts.InMemory {
		if err := os.MkdirAll(opts.Path, 0755); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}

	store, err := repositories.Open(opts)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}
