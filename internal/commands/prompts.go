package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/chatstream/internal/config"
	"github.com/diogo/chatstream/internal/models"
)

// NewPromptsCmd creates the example prompts command
func NewPromptsCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "List the example prompts shown in chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := deps.promptsPath()
			if err != nil {
				return err
			}
			prompts, err := config.LoadExamplePromptsFrom(path)
			if err != nil {
				return err
			}
			for i, p := range prompts {
				fmt.Fprintf(deps.Stdout, "%2d. %s\n", i+1, p)
			}
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in prompts to prompts.toml for editing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := deps.promptsPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveExamplePromptsTo(path, models.DefaultExamplePrompts()); err != nil {
				return err
			}
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Wrote "+path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing prompts file")
	cmd.AddCommand(initCmd)

	return cmd
}
