package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persistorai/wdtree/internal/config"
)

type initOptions struct {
	roots          []string
	language       string
	outputDir      string
	force          bool
	nonInteractive bool
}

func newInitCmd() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter wdtree configuration",
		Long:  "Setup wizard that creates ~/.wdtree/config.yaml (or --config)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			opts.nonInteractive = f.Changed("root") || f.Changed("language") || f.Changed("out")

			path := flagConfig
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}

			return runInit(os.Stdin, os.Stdout, path, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.roots, "root", nil, "Root entities (non-interactive mode)")
	cmd.Flags().StringVar(&opts.language, "language", "", "Label language (non-interactive mode)")
	cmd.Flags().StringVarP(&opts.outputDir, "out", "o", "", "Output directory (non-interactive mode)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing config file")
	return cmd
}

func runInit(in io.Reader, out io.Writer, path string, opts initOptions) error {
	if _, err := os.Stat(path); err == nil && !opts.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	c := config.Default()

	if !opts.nonInteractive {
		fmt.Fprintln(out, "\n  wdtree Setup")
		fmt.Fprintln(out, "  ────────────")
		fmt.Fprintln(out)

		reader := bufio.NewReader(in)
		ask := func(prompt, fallback string) string {
			fmt.Fprintf(out, "  %s [%s]: ", prompt, fallback)
			line, _ := reader.ReadString('\n')
			if line = strings.TrimSpace(line); line != "" {
				return line
			}
			return fallback
		}

		opts.roots = config.SplitList(ask("Root entities (comma separated)", "Q21198"))
		opts.language = ask("Label language", c.Language)
		opts.outputDir = ask("Output directory", c.OutputDir)
	}

	if len(opts.roots) > 0 {
		c.Roots = opts.roots
	}
	if opts.language != "" {
		c.Language = opts.language
	}
	if opts.outputDir != "" {
		c.OutputDir = opts.outputDir
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if err := config.Save(c, path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if opts.nonInteractive {
		fmt.Fprintf(out, "Config saved to %s\n", path)
	} else {
		fmt.Fprintf(out, "\n  ✓ Config saved to %s\n", path)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  Next steps:")
		fmt.Fprintln(out, "    wdtree doctor     # Check endpoints and settings")
		fmt.Fprintln(out, "    wdtree explore    # Explore the configured roots")
		fmt.Fprintln(out, "    wdtree --help     # See all commands")
		fmt.Fprintln(out)
	}

	return nil
}
