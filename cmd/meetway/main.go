package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meetway.dev/meetway/config"
	"meetway.dev/meetway/parse"
	"meetway.dev/meetway/schedule"
	"meetway.dev/meetway/storage"
)

var rootCmd = &cobra.Command{
	Use:          "meetway",
	Short:        "Meetway meeting-point engine",
	Long:         "Finds the fairest place for a group of riders to meet on a static transit feed",
	SilenceUsage: true,
}

var feedPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&feedPath, "feed", "f", "", "Path to a GTFS static feed zip (required)")
	rootCmd.MarkPersistentFlagRequired("feed")
	rootCmd.AddCommand(meetCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(stationsCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadIndex reads feedPath from disk, ingests it into backend storage
// (selected by cfg.Storage.Backend), and builds a schedule.Index.
func loadIndex(cfg *config.Config) (*schedule.Index, error) {
	buf, err := os.ReadFile(feedPath)
	if err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}

	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(buf)
	hash := hex.EncodeToString(sum[:])

	has, err := store.Has(hash)
	if err != nil {
		return nil, err
	}
	if !has {
		writer, err := store.GetWriter(hash)
		if err != nil {
			return nil, fmt.Errorf("opening feed writer: %w", err)
		}
		if _, err := parse.ParseFeed(writer, buf); err != nil {
			return nil, fmt.Errorf("parsing feed: %w", err)
		}
	}

	reader, err := store.GetReader(hash)
	if err != nil {
		return nil, fmt.Errorf("opening feed reader: %w", err)
	}

	idx, err := schedule.NewIndex(reader)
	if err != nil {
		return nil, fmt.Errorf("building schedule index: %w", err)
	}
	return idx, nil
}

func openStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return storage.NewSQLiteStorage(storage.SQLiteConfig{
			OnDisk:    cfg.Storage.SQLiteOnDisk,
			Directory: cfg.Storage.SQLiteDir,
		})
	case "postgres":
		return storage.NewPSQLStorage(cfg.Storage.PostgresDSN, false)
	default:
		return storage.NewMemoryStorage(), nil
	}
}
