package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/modoterra/igractl/pkg/config"
	"github.com/modoterra/igractl/pkg/envfile"
	"github.com/modoterra/igractl/pkg/providers/docker"
)

var (
	initForce     bool
	initOrchestra string
)

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	configInitCmd.Flags().StringVar(&initOrchestra, "orchestra", config.DefaultOrchestra, "orchestra install directory")
	configCmd.AddCommand(configInitCmd, configValidateCmd, configShowCmd)

	envCmd.AddCommand(envShowCmd, envSetCmd)

	rootCmd.AddCommand(configCmd, envCmd)
}

// --- Config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage igra.yaml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default igra.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		}
		c := config.Default()
		c.Orchestra = initOrchestra
		if err := config.Save(c, configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate igra.yaml against the orchestra install",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}

		c, err := config.Load(path)
		if err != nil {
			return err
		}
		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

		errs := config.Validate(c)
		if len(errs) > 0 {
			fmt.Fprintf(errOut, "%s: %d error(s)\n", path, len(errs))
			for _, e := range errs {
				fmt.Fprintf(errOut, "  • %s\n", e)
			}
			return fmt.Errorf("%s is invalid", path)
		}

		for _, w := range composeWarnings(c) {
			fmt.Fprintf(errOut, "warning: %s\n", w)
		}
		fmt.Fprintf(out, "%s: valid (%d services)\n", path, len(c.Services))
		return nil
	},
}

// composeWarnings checks the configured services against docker-compose.yml.
func composeWarnings(c *config.Config) []string {
	if err := c.CheckInstalled(); err != nil {
		return []string{err.Error()}
	}
	cf, err := docker.LoadCompose(c.Orchestra)
	if err != nil {
		return []string{err.Error()}
	}

	var warnings []string
	for _, name := range cf.Missing(c.Services) {
		warnings = append(warnings, fmt.Sprintf("service %q is not defined in %s", name, docker.ComposeFileName))
	}
	if len(cf.ProfileServices(c.Profile)) == 0 {
		warnings = append(warnings, fmt.Sprintf("profile %q matches no compose service", c.Profile))
	}
	return warnings
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	},
}

// --- Env ---

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Read and edit the orchestra .env file",
}

var envShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the recognized .env settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		e, err := envfile.Load(c.EnvFile)
		if err != nil {
			return err
		}

		vals := e.Values()
		if e.HasAPIKey() {
			vals[envfile.KeyHealthAPIKey] = "(set)"
		} else {
			vals[envfile.KeyHealthAPIKey] = "(unset)"
		}
		keys := make([]string, 0, len(vals))
		for k := range vals {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, vals[k])
		}
		return nil
	},
}

var envSetCmd = &cobra.Command{
	Use:   "set <KEY> <VALUE>",
	Short: "Set a recognized key in the .env file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		e, err := envfile.Load(c.EnvFile)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s does not exist; copy the orchestra's example env first", c.EnvFile)
		}
		if err != nil {
			return err
		}
		if err := e.Set(args[0], args[1]); err != nil {
			return err
		}
		data, err := os.ReadFile(c.EnvFile)
		if err != nil {
			return err
		}
		if !hasKeyLine(string(data), args[0]) {
			return fmt.Errorf("%s has no %s= line to rewrite", c.EnvFile, args[0])
		}
		if err := envfile.Save(c.EnvFile, e); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
		return nil
	},
}

func hasKeyLine(content, key string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, key+"=") {
			return true
		}
	}
	return false
}
