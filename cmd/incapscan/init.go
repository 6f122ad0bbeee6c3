package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/incapscan/internal/config"
)

//go:embed templates/incapscan.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented configuration file",
		Long: `Write the default configuration as a commented YAML file.

Every value in the file equals the built-in default, so the file only
changes behaviour once edited. It also carries commented examples for a
physician roster and extra CIE-10 reference durations.

The file is created with mode 0600 because it may hold an LLM API key.

Examples:
  # Write .incapscan in the current directory
  incapscan init

  # Write to another path, creating parent directories
  incapscan init -o /etc/incapscan/config.yaml

  # Replace an existing file
  incapscan init -f

  # Print the template instead of writing it
  incapscan init --stdout`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "Path of the file to write")
	cmd.Flags().BoolP("force", "f", false, "Replace the file if it exists")
	cmd.Flags().Bool("stdout", false, "Print the template to standard output")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	path, err := flags.GetString("output")
	if err != nil {
		return err
	}
	force, err := flags.GetBool("force")
	if err != nil {
		return err
	}
	toStdout, err := flags.GetBool("stdout")
	if err != nil {
		return err
	}

	if toStdout {
		_, err := cmd.OutOrStdout().Write(configTemplate)
		return err
	}

	if err := writeConfigTemplate(path, force); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nEdit it to set the OCR language, a physician roster or extra CIE-10 references.\n", path)
	return nil
}

// writeConfigTemplate writes the template to path. Without force an
// existing file is left untouched and an error is returned.
func writeConfigTemplate(path string, force bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(path, flag, 0600) //nolint:gosec // path is chosen by the operator
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s already exists (use -f to replace it)", path)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	_, werr := f.Write(configTemplate)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
