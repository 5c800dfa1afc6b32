package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "zoom-relay",
		Short: "Relays GoHighLevel registration webhooks to Zoom Events",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile == "" {
				return nil
			}

			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), v)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (yaml, json, toml or .env)")
	rootCmd.Flags().String("port", "", "port to listen on (env PORT)")
	rootCmd.Flags().String("log-level", "", "debug, info, warn or error (env LOG_LEVEL)")

	cobra.CheckErr(v.BindPFlag("server.port", rootCmd.Flags().Lookup("port")))
	cobra.CheckErr(v.BindPFlag("log.level", rootCmd.Flags().Lookup("log-level")))

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
