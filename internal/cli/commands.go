// Package cli implements the vfs command line
package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/brettbedarf/vfs/config"
	"github.com/brettbedarf/vfs/internal/util"
	"github.com/brettbedarf/vfs/store"
)

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	container  string
	configPath string
	verbose    int

	cfg *config.Config
}

func New() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:               "vfs",
		Short:             "Inspect and edit single-file container file systems",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.init(cmd)
		},
	}

	cmd.AddCommand(treeCmd(o))
	cmd.AddCommand(lsCmd(o))
	cmd.AddCommand(statCmd(o))
	cmd.AddCommand(duCmd(o))
	cmd.AddCommand(catCmd(o))
	cmd.AddCommand(findCmd(o))
	cmd.AddCommand(mkdirCmd(o))
	cmd.AddCommand(touchCmd(o))
	cmd.AddCommand(importCmd(o))
	cmd.AddCommand(exportCmd(o))
	cmd.AddCommand(rmCmd(o))
	cmd.AddCommand(mvCmd(o))
	cmd.AddCommand(metaCmd(o))
	cmd.AddCommand(applyCmd(o))
	cmd.AddCommand(mountCmd(o))

	cmd.PersistentFlags().StringVarP(&o.container, "container", "c", "", "path of the container file")
	cmd.PersistentFlags().StringVar(&o.configPath, "config", "", "path of a yaml or json config file")
	cmd.PersistentFlags().IntVarP(&o.verbose, "verbose", "v", config.WarnVerbose,
		"log verbosity between 1 (error) and 5 (trace)")
	return cmd
}

// init loads the config and sets up logging. An explicit --verbose wins over
// the config file.
func (o *rootOptions) init(cmd *cobra.Command) error {
	var err error
	if o.configPath != "" {
		o.cfg, err = config.NewConfigFromFile(o.configPath)
		if err != nil {
			return err
		}
	} else {
		o.cfg = config.NewDefaultConfig()
	}
	if o.configPath == "" || cmd.Flags().Changed("verbose") {
		o.cfg.LogLvl = util.VerbosityToLevel(o.verbose)
	}
	util.InitializeLoggerTo(cmd.ErrOrStderr(), o.cfg.LogLvl)
	return nil
}

func (o *rootOptions) open(opts ...store.Option) (*store.Store, error) {
	if o.container == "" {
		return nil, errors.New("--container is required")
	}
	return store.Open(o.container, o.cfg, opts...)
}

// withStore runs fn against the opened container without saving
func (o *rootOptions) withStore(fn func(s *store.Store) error) error {
	s, err := o.open()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// withMutation runs fn and then saves. The container is saved even when fn
// fails part way, so whatever it did complete is kept.
func (o *rootOptions) withMutation(fn func(s *store.Store) error) error {
	logger := util.GetLogger("cli.save")

	s, err := o.open()
	if err != nil {
		return err
	}
	defer s.Close()

	fnErr := fn(s)
	wrote, err := s.Save()
	if err != nil {
		return multierr.Append(fnErr, err)
	}
	logger.Debug().Bool("written", wrote).Str("container", s.Path()).Msg("Saved")
	return fnErr
}
