package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/markdocs/internal/config"
)

const starterHeader = `# markdocs configuration. Command line flags override these values.
`

// newInitCmd implements `markdocs init`, which writes a starter config file.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun, force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter markdocs.yaml",
		Long: `Write a markdocs.yaml holding the default settings. The module defaults to
the name of the directory the file is written to.

path defaults to ./markdocs.yaml. An existing file is kept unless --force is given.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			path := config.FileNames[0]
			if len(args) > 0 {
				path = args[0]
			}

			body, err := starterConfig(path)
			if err != nil {
				return err
			}

			if dryRun {
				_, _ = io.WriteString(stdout, body)
				return nil
			}

			if _, err := os.Stat(path); err == nil && !force {
				return errors.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				return errors.Errorf("writing %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(stderr, "wrote markdocs config to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the config without writing it")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// starterConfig renders the defaults for a config file written to path.
func starterConfig(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", path, err)
	}
	cfg := config.New()
	cfg.Module = filepath.Base(filepath.Dir(abs))
	cfg.SearchPath = []string{".."}
	// Left out so every machine uses its own core count.
	cfg.Jobs = 0

	data, err := cfg.Marshal()
	if err != nil {
		return "", err
	}
	return starterHeader + string(data), nil
}
