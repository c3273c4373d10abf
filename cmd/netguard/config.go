package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/user/netguard/internal/util"
)

var configPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "config.yaml")
		}
		if err := util.WriteConfigFile(util.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Printf("Config written to: %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVarP(&configPath, "path", "p", "",
		"Where to write the file (default is <data_dir>/config.yaml)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
