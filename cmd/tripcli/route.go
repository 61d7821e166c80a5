package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/antigravity/transit-planner/internal/graphbuild"
	"github.com/antigravity/transit-planner/internal/gtfsstore"
	"github.com/antigravity/transit-planner/internal/overlay"
	"github.com/antigravity/transit-planner/internal/planner"
	"github.com/antigravity/transit-planner/internal/tripapi"
)

var (
	fromLat, fromLon float64
	toLat, toLon     float64
	fromStop, toStop string
	departAt         string
	arriveBy         bool
	profileQuery     bool
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Plan one itinerary against the compiled graph and print it",
	RunE:  runRoute,
}

func init() {
	routeCmd.Flags().Float64Var(&fromLat, "from-lat", 0, "origin latitude")
	routeCmd.Flags().Float64Var(&fromLon, "from-lon", 0, "origin longitude")
	routeCmd.Flags().StringVar(&fromStop, "from-stop", "", "origin GTFS stop id (overrides --from-lat/--from-lon)")
	routeCmd.Flags().Float64Var(&toLat, "to-lat", 0, "destination latitude")
	routeCmd.Flags().Float64Var(&toLon, "to-lon", 0, "destination longitude")
	routeCmd.Flags().StringVar(&toStop, "to-stop", "", "destination GTFS stop id (overrides --to-lat/--to-lon)")
	routeCmd.Flags().StringVar(&departAt, "at", "", "RFC3339 departure (or, with --arrive-by, arrival) instant; defaults to now")
	routeCmd.Flags().BoolVar(&arriveBy, "arrive-by", false, "treat --at as a latest-arrival bound instead of an earliest departure")
	routeCmd.Flags().BoolVar(&profileQuery, "profile", false, "run a profile query instead of a single point query")
}

// runRoute plans a single itinerary directly from a fixture directory,
// skipping the Postgres/HTTP machinery serve.go wires up: a one-shot
// debugging entrypoint against the same planner.Planner the server
// uses, grounded on tidbyt-gtfs's departuresCmd (load, query, print).
func runRoute(cmd *cobra.Command, args []string) error {
	if fixtureDir == "" {
		return fmt.Errorf("route requires --fixtures (a GTFS CSV directory) in this build")
	}

	feed, err := gtfsstore.LoadFixtureDir(fixtureDir, time.Now())
	if err != nil {
		return fmt.Errorf("loading fixtures: %w", err)
	}

	built, err := graphbuild.Build(feed)
	if err != nil {
		return fmt.Errorf("compiling graph: %w", err)
	}

	snapshot := overlay.NewSnapshot()
	snapshot.Store(overlay.Empty())

	p := planner.New(built.Base, built.Index, feed, snapshot)

	departure := time.Now()
	if departAt != "" {
		departure, err = time.Parse(time.RFC3339, departAt)
		if err != nil {
			return fmt.Errorf("parsing --at: %w", err)
		}
	}

	hints := tripapi.DefaultHints()
	hints.EarliestDepartureTime = departure
	hints.ArriveBy = arriveBy
	hints.ProfileQuery = profileQuery

	req := &tripapi.Request{
		Points: [2]tripapi.Point{originPoint(), destPoint()},
		Hints:  hints,
	}

	resp, err := p.Plan(req)
	if err != nil {
		return err
	}

	printResponse(resp)
	return nil
}

func originPoint() tripapi.Point {
	if fromStop != "" {
		return tripapi.Point{Kind: tripapi.Station, StopID: fromStop}
	}
	return tripapi.Point{Kind: tripapi.Coordinate, Lat: fromLat, Lon: fromLon}
}

func destPoint() tripapi.Point {
	if toStop != "" {
		return tripapi.Point{Kind: tripapi.Station, StopID: toStop}
	}
	return tripapi.Point{Kind: tripapi.Coordinate, Lat: toLat, Lon: toLon}
}

func printResponse(resp *tripapi.Response) {
	if len(resp.Itineraries) == 0 {
		fmt.Println("no itinerary found")
		return
	}
	for i, it := range resp.Itineraries {
		fmt.Printf("itinerary %d: %s, %d transfer(s), %.0fm\n", i+1, it.TotalTime, it.Transfers, it.TotalDistance)
		for _, leg := range it.Legs {
			fmt.Printf("  %-8s %s -> %s  %s - %s\n",
				leg.Kind, legLabel(leg.FromStopID, leg.FromLat, leg.FromLon), legLabel(leg.ToStopID, leg.ToLat, leg.ToLon),
				leg.StartTime.Format(time.Kitchen), leg.EndTime.Format(time.Kitchen))
		}
	}
}

func legLabel(stopID string, lat, lon float64) string {
	if stopID != "" {
		return stopID
	}
	return fmt.Sprintf("%.5f,%.5f", lat, lon)
}
