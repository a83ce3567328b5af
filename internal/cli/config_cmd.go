package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/mgpai22/ocrsub/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the ocrsub configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample configuration file",
	Long: `Write a commented sample configuration file.

Without a path the file goes to ~/.config/ocrsub/config.toml. Existing files
are left alone unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		if len(args) > 0 {
			if path, err = config.ExpandPath(args[0]); err != nil {
				return err
			}
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat config: %w", err)
		}

		if err := config.CreateSample(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file, .env files and
environment variables are applied. API keys are masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, exists, err := config.Load(configPath)
		if err != nil {
			return err
		}

		masked := *cfg
		masked.OCR.APIKey = maskSecret(masked.OCR.APIKey)

		data, err := toml.Marshal(masked)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# source: %s\n", configSource(path, exists))
		_, err = out.Write(data)
		return err
	},
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
