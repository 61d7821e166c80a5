package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/antigravity/transit-planner/internal/config"
	"github.com/antigravity/transit-planner/internal/graph"
	"github.com/antigravity/transit-planner/internal/graphbuild"
	"github.com/antigravity/transit-planner/internal/gtfsmodel"
	"github.com/antigravity/transit-planner/internal/gtfsstore"
	"github.com/antigravity/transit-planner/internal/httpapi"
	"github.com/antigravity/transit-planner/internal/overlay"
	"github.com/antigravity/transit-planner/internal/planner"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trip planning HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()

	feed, store, err := loadFeed(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("loading GTFS feed: %w", err)
	}
	log.Printf("✅ loaded GTFS feed: %d stops, %d trips", len(feed.Stops), len(feed.Trips))

	built, err := graphbuild.Build(feed)
	if err != nil {
		return fmt.Errorf("compiling graph: %w", err)
	}

	snapshot := overlay.NewSnapshot()
	snapshot.Store(overlay.Empty())

	dayOf := func(tripID, date string) graph.ServiceDay {
		t, err := time.Parse("20060102", date)
		if err != nil {
			return 0
		}
		return built.Base.Epoch.DayOf(t)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		sub := overlay.NewSubscriber(redisClient, snapshot)
		go func() {
			if err := sub.Run(cmd.Context()); err != nil {
				log.Printf("⚠️  overlay subscriber stopped: %v", err)
			}
		}()
	}

	if cfg.GTFSRTURL != "" {
		go pollRealtime(cmd.Context(), cfg, snapshot, dayOf, redisClient)
	}

	p := planner.New(built.Base, built.Index, feed, snapshot)
	srv := &httpapi.Server{Planner: p, Store: store}
	router := httpapi.NewRouter(srv)

	addr := ":" + cfg.HTTPPort
	log.Printf("🚀 server starting on %s", addr)
	return http.ListenAndServe(addr, router)
}

// pollRealtime fetches a GTFS-Realtime FeedMessage on an interval,
// decodes it relative to the compiled graph's epoch, and publishes the
// result both to the local snapshot and (when Redis is configured) to
// every other process subscribed to the same overlay channel.
func pollRealtime(ctx context.Context, cfg *config.Config, snapshot *overlay.Snapshot, dayOf overlay.ServiceDayOf, redisClient *redis.Client) {
	var publisher *overlay.Publisher
	if redisClient != nil {
		publisher = overlay.NewPublisher(redisClient)
	}

	ticker := time.NewTicker(cfg.GTFSRTPollInterval)
	defer ticker.Stop()

	fetch := func() {
		resp, err := http.Get(cfg.GTFSRTURL)
		if err != nil {
			log.Printf("⚠️  gtfs-rt fetch failed: %v", err)
			return
		}
		defer resp.Body.Close()
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Printf("⚠️  gtfs-rt read failed: %v", err)
			return
		}

		feed, err := overlay.DecodeFeedMessage(payload, dayOf)
		if err != nil {
			log.Printf("⚠️  gtfs-rt decode failed: %v", err)
			return
		}
		snapshot.Store(feed)

		if publisher != nil {
			if err := publisher.Publish(ctx, feed); err != nil {
				log.Printf("⚠️  gtfs-rt publish failed: %v", err)
			}
		}
	}

	fetch()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fetch()
		}
	}
}

// loadFeed reads the GTFS feed from the fixture directory flag when
// set, otherwise from the configured Postgres store.
func loadFeed(ctx context.Context, cfg *config.Config) (*gtfsmodel.Feed, *gtfsstore.Store, error) {
	if fixtureDir != "" {
		feed, err := gtfsstore.LoadFixtureDir(fixtureDir, time.Now())
		return feed, nil, err
	}

	dsn := cfg.PostgresDSN
	if postgresDSN != "" {
		dsn = postgresDSN
	}
	pool, err := gtfsstore.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	store := gtfsstore.New(pool)
	feed, err := store.LoadFeed(ctx, time.Now())
	if err != nil {
		return nil, nil, err
	}
	return feed, store, nil
}
