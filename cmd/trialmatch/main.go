package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/malecare/trialmatch/config"
	srv "github.com/malecare/trialmatch/internal/server"
)

func main() {
	var root = &cobra.Command{Use: "trialmatch"}

	root.AddCommand(serveCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCMD() *cobra.Command {
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the trial-match chat API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)

			return srv.Run(cfg)
		},
	}
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return serve
}
