package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"meetway.dev/meetway/config"
	"meetway.dev/meetway/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API over a loaded feed",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	idx, err := loadIndex(cfg)
	if err != nil {
		return err
	}

	server := &httpapi.Server{
		Index:     idx,
		Constants: cfg.Search.Constants(),
		Origins:   cfg.Server.CORSOrigins,
	}

	addr := cfg.Server.ServerAddr()
	fmt.Printf("meetway listening on %s\n", addr)
	return http.ListenAndServe(addr, server.Router())
}
