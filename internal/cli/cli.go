// Package cli contains the command line interface of bawstun.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/wgbh/bawstun/internal"
	"github.com/wgbh/bawstun/internal/config"
	"github.com/wgbh/bawstun/internal/object"
	"github.com/wgbh/bawstun/pkg/logger"
)

const defaultConfigPath = "~/.config/bawstun/config.yaml"

var log = logger.Get("CLI")

type (
	core interface {
		IngestPath(ctx context.Context, path string, filename string) (*object.RepositoryObject, error)
		IngestStream(ctx context.Context, r io.Reader, filename string) (*object.RepositoryObject, error)
		Characterize(ctx context.Context, id string) (*object.RepositoryObject, error)
		CharacterizeAll(ctx context.Context, ids []string) []error
		Update(ctx context.Context, id string, raw map[string]any) (*object.RepositoryObject, error)
		Object(ctx context.Context, id string) (*object.RepositoryObject, error)
		Objects(ctx context.Context) ([]string, error)
		Destroy(ctx context.Context, id string) error
		Watch(ctx context.Context, dir string) error
		Close() error
	}

	coreFactory func(*config.Config) (core, error)

	// app holds the state shared by every command: the configuration file
	// path, and (once loaded) the configuration.
	app struct {
		configPath string
		verbose    bool
		newCore    coreFactory
		config     *config.Config
	}
)

func defaultCoreFactory(cfg *config.Config) (core, error) {
	c, err := internal.New(cfg)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the complete command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultCoreFactory)
}

func newRootCommand(factory coreFactory) *cobra.Command {
	a := &app{newCore: factory}
	root := &cobra.Command{
		Use:           "bawstun",
		Short:         "Ingest, characterize and describe repository files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				logger.SetMinLoggingLevel(logger.VERBOSE.Level())
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "path to the YAML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")

	registerObjectCommands(root, a)
	registerDatabaseCommands(root, a)

	return root
}

// loadConfig reads the configuration file named by the --config flag.
func (a *app) loadConfig() error {
	if a.config != nil {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	a.config = cfg
	return nil
}

// withCore loads the configuration, constructs the core and runs the
// function provided, closing the core afterwards.
func (a *app) withCore(fn func(core) error) error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	c, err := a.newCore(a.config)
	if err != nil {
		return err
	}

	runErr := fn(c)
	if err := c.Close(); err != nil {
		log.Emit(logger.WARNING, "Failed to shutdown cleanly: %v\n", err)
		return errors.Join(runErr, err)
	}

	return runErr
}
