package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/paramgen/internal/cli/config"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new paramgen project",
		Long: `Initialize a new paramgen project with a configuration file and an
example schema.

This creates:
  - paramgen.yaml configuration file
  - schemas/synth.xml example schema
  - .gitignore excluding the local state directory`,
		Example: `  # Initialize in current directory
  paramgen init

  # Initialize in a new directory
  paramgen init my-synth

  # Force overwrite existing files
  paramgen init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	files, err := copyTemplate("minimal", dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("paramgen project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Describe your parameters in schemas/")
	r.Println("  2. Run 'paramgen lint' to check them")
	r.Println("  3. Run 'paramgen compile' to generate code into gen/")
	r.Println("  4. Run 'paramgen simulate' to try the update rules")

	return nil
}
