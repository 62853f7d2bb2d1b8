package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pbaille/sfl/internal/config"
)

var version = "dev"

var (
	cfgFile string
	v       = config.NewViper()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "sfl",
		Short:         "Personal idea graph with automatic tagging and linking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().String("db", "", "database path (default ~/.sfl/sfl.db)")
	_ = v.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(tagsCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(v, cfgFile)
}
