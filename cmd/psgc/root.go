package main

import (
	"fmt"
	"io"

	"psgc_api_go/config"
	"psgc_api_go/db"
	"psgc_api_go/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app carries what every subcommand shares. loadConfig and openDB are
// replaced in tests.
type app struct {
	in  io.Reader
	out io.Writer
	err io.Writer

	loadConfig func() (*config.Config, error)
	openDB     func(cfg *config.Config) (*gorm.DB, error)

	cfg *config.Config
	log *logrus.Logger
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:         in,
		out:        out,
		err:        errOut,
		loadConfig: config.Read,
		openDB: func(cfg *config.Config) (*gorm.DB, error) {
			if err := db.Initialize(cfg); err != nil {
				return nil, err
			}
			return db.DB, nil
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "psgc",
		Short:         "Philippine Standard Geographic Code dataset tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return withCode(exitUsage, err)
			}
			a.cfg = cfg
			a.log = logging.New(cfg.LogLevel, cfg.LogFormat)
			a.log.SetOutput(a.err)
			return nil
		},
	}
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.err)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newConvertCmd(a))
	cmd.AddCommand(newCacheCmd(a))
	return cmd
}

// connect opens the configured database; failures map to the database exit code
func (a *app) connect() (*gorm.DB, error) {
	conn, err := a.openDB(a.cfg)
	if err != nil {
		return nil, withCode(exitDatabase, err)
	}
	return conn, nil
}

func execute(a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(a.err, "Error: %v\n", err)
		return exitCode(err)
	}
	return exitOK
}

// usageArgs reports positional argument errors with the usage exit code
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withCode(exitUsage, validate(cmd, args))
	}
}
