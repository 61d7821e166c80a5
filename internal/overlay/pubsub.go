package overlay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/antigravity/transit-planner/internal/graph"
)

// wireFeed is the JSON-serializable projection of a FeedOverlay
// published between planner processes. Extra edges reference node ids
// that are only meaningful within a single process's graph.Base, so
// they are not carried across the wire; each process keeps its own
// extra-edge set and only synchronizes cancellations and delays.
type wireFeed struct {
	Timestamp uint64                 `json:"timestamp"`
	Cancelled []TripInstance         `json:"cancelled"`
	Delays    map[string]Delay       `json:"delays"`
}

const channelName = "transit-planner:feed-overlay"

// Publisher pushes locally-decoded FeedOverlay snapshots to a Redis
// channel so that every planner process sharing the deployment stays
// in sync without independently polling the upstream GTFS-RT endpoint.
// Grounded on passbi_core/internal/cache/redis.go's singleton client
// pattern.
type Publisher struct {
	client *redis.Client
}

// NewPublisher wraps an already-configured redis.Client.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish serializes f and sends it on the shared channel.
func (p *Publisher) Publish(ctx context.Context, f *FeedOverlay) error {
	payload, err := json.Marshal(toWire(f))
	if err != nil {
		return fmt.Errorf("marshaling feed overlay: %w", err)
	}
	return p.client.Publish(ctx, channelName, payload).Err()
}

// Subscriber listens for overlays published by Publisher and stores
// each into a local Snapshot, preserving any locally-known Extra edges
// (which never travel over the wire, see wireFeed).
type Subscriber struct {
	client *redis.Client
	target *Snapshot
}

// NewSubscriber wraps an already-configured redis.Client and the
// Snapshot it should keep updated.
func NewSubscriber(client *redis.Client, target *Snapshot) *Subscriber {
	return &Subscriber{client: client, target: target}
}

// Run subscribes and blocks, applying every received overlay to the
// target Snapshot until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, channelName)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var w wireFeed
			if err := json.Unmarshal([]byte(msg.Payload), &w); err != nil {
				log.Printf("overlay: dropping malformed feed-overlay message: %v", err)
				continue
			}
			s.target.Store(fromWire(w, s.target.Load()))
		}
	}
}

func toWire(f *FeedOverlay) wireFeed {
	w := wireFeed{Timestamp: f.Timestamp, Delays: make(map[string]Delay, len(f.Delays))}
	for inst := range f.Cancelled {
		w.Cancelled = append(w.Cancelled, inst)
	}
	for key, d := range f.Delays {
		w.Delays[fmt.Sprintf("%s|%d|%d", key.TripID, key.Day, key.StopSeq)] = d
	}
	return w
}

func fromWire(w wireFeed, previous *FeedOverlay) *FeedOverlay {
	out := Empty()
	out.Timestamp = w.Timestamp
	for _, inst := range w.Cancelled {
		out.Cancelled[inst] = true
	}
	for k, d := range w.Delays {
		parts := strings.SplitN(k, "|", 3)
		if len(parts) != 3 {
			continue
		}
		day, err1 := strconv.ParseUint(parts[1], 10, 16)
		seq, err2 := strconv.ParseInt(parts[2], 10, 32)
		if err1 != nil || err2 != nil {
			continue
		}
		inst := TripInstance{TripID: parts[0], Day: graph.ServiceDay(day)}
		out.Delays[stopTimeKey{TripInstance: inst, StopSeq: int32(seq)}] = d
	}
	if previous != nil {
		out.Extra = previous.Extra
	}
	return out
}
