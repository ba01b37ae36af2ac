package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qs3c/members_server/config"
	"github.com/qs3c/members_server/internal/app"
)

var (
	cfgFile string
	current *app.App
)

var rootCmd = &cobra.Command{
	Use:   "memberctl",
	Short: "Membership administration tool",
	Long: `memberctl runs administrative tasks against the members database:
schema migration, the daily lifecycle sweep, duplicate detection and merging,
and bootstrapping the first superadmin.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}
		if path == "" {
			path = "config.yaml"
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		current, err = app.New(cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current != nil {
			current.Close()
		}
	},
}

// Execute 运行命令，出错时以非零状态退出
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default config.yaml or $CONFIG_PATH)")
}
