// markdocs generates Markdown documentation and a pydocmd navigation
// descriptor for a Python package.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/markdocs/internal/config"
	"github.com/phobologic/markdocs/internal/logging"
	"github.com/phobologic/markdocs/internal/provider"
	"github.com/phobologic/markdocs/internal/site"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	module      string
	docfile     string
	configPath  string
	stdout      bool
	jobs        int
	verbose     bool
	showVersion bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "markdocs [flags]",
		Short: "Generate Markdown documentation for a Python package",
		Long: `markdocs reads a Python package from source and writes one Markdown page per
module plus a pydocmd.yml navigation descriptor mirroring the package tree.

The package is never imported: classes, functions, docstrings and comments
are read statically.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.showVersion {
				_, _ = fmt.Fprintf(stdout, "markdocs %s\n", version)
				return nil
			}
			return generate(cmd, &opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&opts.module, "module", "m", "", "dotted name of the package to document (default: current directory name)")
	f.StringVarP(&opts.docfile, "docfile", "o", "", `output directory (default "../docs")`)
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default: markdocs.yaml in the working directory)")
	f.BoolVar(&opts.stdout, "stdout", false, "print the whole package as one document instead of writing pages")
	f.IntVarP(&opts.jobs, "jobs", "j", 0, "number of parallel parsers (default: GOMAXPROCS)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug diagnostics")
	f.BoolVarP(&opts.showVersion, "version", "V", false, "show version and exit")

	cmd.AddCommand(newInitCmd(stdout, stderr))
	return cmd
}

func generate(cmd *cobra.Command, opts *options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	log := logging.New(stderr, opts.verbose)
	p, err := provider.NewStatic(provider.Options{
		SearchPath: cfg.SearchPath,
		CacheSize:  cfg.CacheSize,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	if opts.stdout {
		doc, err := site.Preview(p, cfg.Module, log)
		if err != nil {
			return errors.Errorf("documenting %s: %w", cfg.Module, err)
		}
		_, _ = io.WriteString(stdout, doc)
		return nil
	}

	_, err = site.Generate(cmd.Context(), p, cfg, log)
	return err
}

// loadConfig layers defaults, the config file and explicitly set flags.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.New()
	path, err := config.Find(opts.configPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	f := cmd.Flags()
	if f.Changed("module") {
		cfg.Module = opts.module
	}
	if f.Changed("docfile") {
		cfg.Output = opts.docfile
	}
	if f.Changed("jobs") {
		cfg.Jobs = opts.jobs
	}

	if cfg.Module == "" {
		// Run from inside the package: its parent directory is the import root.
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Errorf("resolving working directory: %w", err)
		}
		cfg.Module = filepath.Base(wd)
		cfg.SearchPath = append(cfg.SearchPath, filepath.Dir(wd))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
