// Package cli wires a notebook pass into a one-shot command: discover the
// configuration, load the notebook, run the pass, save only on change and
// print a short report.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/nbtidy/internal/config"
	"github.com/kingrea/nbtidy/internal/logging"
	"github.com/kingrea/nbtidy/internal/notebook"
	"github.com/kingrea/nbtidy/internal/pass"
	"github.com/kingrea/nbtidy/internal/passes"
)

// Options carries the command-line flags.
type Options struct {
	ConfigPath string
	Verbose    bool
	DryRun     bool
	LogFile    string
	// WorkDir is where .nbtidy.yaml is looked up and the default notebook
	// path is resolved. Empty means the process working directory.
	WorkDir string
}

// NewCommand builds the command that runs the pass registered as passID.
func NewCommand(passID string) *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:           passID + " [notebook]",
		Short:         describe(passID),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			_, err := Execute(cmd.OutOrStdout(), passID, path, *opts)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.ConfigPath, "config", "", fmt.Sprintf("config file (default $%s or ./%s)", config.EnvPath, config.FileName))
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log every analysis step")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "analyse and report without writing the notebook")
	flags.StringVar(&opts.LogFile, "log-file", "", "also write logs to this file")
	return cmd
}

func describe(passID string) string {
	reg := newRegistry()
	p, err := reg.Resolve(passID, nil)
	if err != nil {
		return passID
	}
	return p.Info().Description
}

func newRegistry() *pass.Registry {
	reg := pass.NewRegistry()
	passes.RegisterBuiltins(reg)
	return reg
}

// Execute runs one pass over the notebook at path, or over the configured
// notebook when path is empty, and writes the report to out. The notebook is
// saved only when the pass changed it and DryRun is off.
func Execute(out io.Writer, passID, path string, opts Options) (pass.Result, error) {
	logger, err := logging.New(logging.Options{Verbose: opts.Verbose, File: opts.LogFile})
	if err != nil {
		return pass.Result{}, err
	}
	defer func() { _ = logger.Sync() }()

	dir := opts.WorkDir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return pass.Result{}, errors.Wrap(err, "cli: determine working directory")
		}
	}
	cfg, err := config.Discover(opts.ConfigPath, dir)
	if err != nil {
		return pass.Result{}, err
	}
	if path == "" {
		path = cfg.Notebook
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
	}
	log := logger.With(zap.String("command", passID))
	if cfg.Path != "" {
		log.Debug("config loaded", zap.String("config", cfg.Path))
	}

	p, err := newRegistry().Resolve(passID, cfg)
	if err != nil {
		return pass.Result{}, err
	}
	nb, err := notebook.Load(path)
	if err != nil {
		return pass.Result{}, err
	}
	result, err := p.Run(pass.NewContext(log, path), nb)
	if err != nil {
		return result, errors.Wrapf(err, "cli: run %s", passID)
	}

	rep := report{info: p.Info(), result: result, path: path}
	if result.Changed {
		if opts.DryRun {
			rep.skipped = true
			log.Info("dry run; notebook not written", zap.String("notebook", path))
		} else {
			if err := notebook.Save(nb, path); err != nil {
				return result, err
			}
			rep.saved = true
			log.Debug("notebook saved", zap.String("notebook", path))
		}
	}
	fmt.Fprintln(out, rep.render(out))
	return result, nil
}
