package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/san-kum/placesim/internal/config"
	"github.com/san-kum/placesim/internal/dataset"
	"github.com/san-kum/placesim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	env     config.Env
	dataDir string
	dbPath  string
)

// main wires the placesim commands. Defaults come from PLACESIM_* variables
// and flags override them.
func main() {
	log.SetPrefix("[PLACESIM] ")
	log.SetFlags(log.LstdFlags)

	var err error
	env, err = config.ParseEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:           "placesim",
		Short:         "campus placement season simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", env.DataDir, "dataset directory")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", env.DBPath, `run history database ("none" disables)`)

	rootCmd.AddCommand(
		serveCommand(),
		runCommand(),
		batchCommand(),
		scenarioCommand(),
		sweepCommand(),
		statsCommand(),
		presetsCommand(),
		listCommand(),
		showCommand(),
		exportCommand(),
		chartCommand(),
		deleteCommand(),
		remoteCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// settings applies the global flags on top of the environment.
func settings() config.Env {
	e := env
	if dataDir != e.DataDir {
		e.DataDir = dataDir
		// explicit file variables were relative to the old directory
		e.StudentsFile, e.CompaniesFile, e.OrderFile = "", "", ""
		e.ShortlistDir, e.ShortlistMap, e.DepScoreFile = "", "", ""
	}
	e.DBPath = dbPath
	return e
}

func loadDataset(ctx context.Context) (*dataset.Dataset, error) {
	data, err := dataset.Load(ctx, settings().Paths())
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return data, nil
}

func openStore(ctx context.Context) (*storage.Store, error) {
	e := settings()
	if !e.StorageEnabled() {
		return nil, fmt.Errorf("run history is disabled; set --db or PLACESIM_DB_PATH")
	}
	return storage.Open(ctx, e.DBPath)
}
