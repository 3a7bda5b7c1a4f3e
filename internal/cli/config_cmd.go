package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"indexchat/internal/config"
)

var (
	configInitForce bool
	configPrintTOML bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write .indexchat.toml with defaults",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print effective config with sources (API key redacted)",
	Args:  cobra.NoArgs,
	RunE:  runConfigPrint,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
	configPrintCmd.Flags().BoolVar(&configPrintTOML, "toml", false, "print as TOML instead of a table")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPrintCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	dir, err := filepath.Abs(globalFlags.Dir)
	if err != nil {
		return err
	}
	configPath := globalFlags.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigPath
	}
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(dir, configPath)
	}
	if err := config.WriteTemplate(configPath, configInitForce); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Wrote", configPath)
	fmt.Fprintln(out, "Set GEMINI_API_KEY in your environment or .env before running 'indexchat serve'.")
	return nil
}

func runConfigPrint(cmd *cobra.Command, _ []string) error {
	// Print even when the API key is not set.
	cfg, err := loadConfig(false, nil)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if configPrintTOML {
		data, err := config.EncodeTOML(cfg)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	s := newStyles(out, globalFlags.JSON)
	fmt.Fprintln(out, s.sectionHeader("Effective configuration"))
	fmt.Fprintln(out, s.separator(48))
	for _, f := range cfg.Fields() {
		value := f.Value
		if value == "" {
			value = "(unset)"
		}
		fmt.Fprintf(out, "%s  %s\n", s.kv(f.Key, value), s.dim("["+string(f.Source)+"]"))
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, s.warnPrefix(), err.Error())
	}
	return nil
}
