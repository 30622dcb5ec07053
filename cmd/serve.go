package main

import (
	"github.com/spf13/cobra"

	"github.com/studypath/studypath/config"
	srv "github.com/studypath/studypath/internal/server"
)

func serveCMD() *cobra.Command {
	var serveAddr string
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			addr := serveAddr
			if addr == "" {
				addr = cfg.General.Listen
			}
			return srv.Run(cfg, addr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return serve
}
