package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meetway.dev/meetway/config"
	"meetway.dev/meetway/meet"
)

var stationsCmd = &cobra.Command{
	Use:   "stations <query>",
	Short: "Resolves a textual query to a canonical station",
	Args:  cobra.ExactArgs(1),
	RunE:  runStations,
}

func runStations(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	idx, err := loadIndex(cfg)
	if err != nil {
		return err
	}

	id, name, err := meet.NewResolver(idx).ResolveStation(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s\t%s\n", id, name)
	return nil
}
