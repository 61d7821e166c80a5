// Command tripcli is the entrypoint for this repository: a cobra CLI
// exposing a `serve` subcommand (the HTTP planning API) and a `route`
// subcommand (a one-shot point-to-point query against the same
// compiled graph, for local debugging without standing up a server).
//
// Grounded on tidbyt-gtfs/cmd/main.go's persistent-flags-plus-
// subcommands shape.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "tripcli",
	Short:        "Multimodal trip planning service",
	Long:         "Plans walking + scheduled transit itineraries over a compiled GTFS graph",
	SilenceUsage: true,
}

var (
	fixtureDir  string
	postgresDSN string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&fixtureDir, "fixtures", "f", "", "directory of GTFS-shaped CSV fixtures (overrides --dsn)")
	rootCmd.PersistentFlags().StringVarP(&postgresDSN, "dsn", "", "", "Postgres DSN for the persisted GTFS tables (defaults to DATABASE_URL)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
