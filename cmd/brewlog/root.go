package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/brewspec/brewlog/internal/config"
	"github.com/brewspec/brewlog/internal/store"
)

const version = "0.4.0"

const asciiCup = `    ( (
     ) )
  .______.
  |      |]
  \      /
   ` + "`----'"

var dbPathFlag string

var rootCmd = &cobra.Command{
	Use:     "brewlog",
	Short:   "A local coffee brewing journal using the BrewSpec format",
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(asciiCup)
		fmt.Printf("\nbrewlog v%s\n\n", version)
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "",
		"Path to the brew database file (overrides BREWLOG_DB and config)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// openStore resolves configuration and opens the brew database, running
// schema initialization and migration. Every command goes through here so
// the database path is threaded explicitly rather than read ambiently.
func openStore() (*store.Store, *log.Logger, error) {
	cfg, err := config.Load(dbPathFlag)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return st, cfg.NewLogger(), nil
}

// fail prints an error message to stderr and exits with status 1. Every
// operation either fully completes or fully aborts; there is no partial
// success exit path.
func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
