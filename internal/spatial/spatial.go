// Package spatial snaps a free coordinate to the nearest node of the
// walk network. The production index (a real k-d tree or R-tree over
// OSM-derived geometry) is an external collaborator out of scope for
// this repository; Index is the contract it must satisfy, and Grid is
// a reference implementation adequate for the bundled fixtures and
// tests.
//
// Grounded on impactsolutionsas-passbi_core/internal/graph/memory.go's
// FindNearestNodes (bucketed linear scan) and
// internal/routing/astar.go's haversineDistance.
package spatial

import (
	"math"
	"sort"

	"github.com/antigravity/transit-planner/internal/graph"
)

// Index snaps a coordinate to the nearest walk-network node within
// maxRadiusMeters, returning the node id, the distance in meters, and
// whether any node was found.
type Index interface {
	Nearest(lat, lon float64, maxRadiusMeters float64) (graph.NodeID, float64, bool)
}

// point is one entry registered with a Grid.
type point struct {
	Node     graph.NodeID
	Lat, Lon float64
}

// cellKey buckets a coordinate onto a cellSizeDegrees grid so Nearest
// only has to scan the 3x3 neighborhood of cells around the query
// point instead of every registered node.
type cellKey struct{ x, y int }

// Grid is a reference spatial index: a uniform grid of buckets over
// lat/lon, linear-scanned within the neighborhood of the query cell.
// Not a substitute for a real production spatial index (no R-tree,
// no projection correction near the poles), but exact and simple
// enough for graphbuild's fixtures and the seed test scenarios.
type Grid struct {
	cellSizeDegrees float64
	cells           map[cellKey][]point
}

// NewGrid creates an empty Grid with the given bucket size.
// cellSizeDegrees around 0.01 (roughly 1km at mid-latitudes) is a
// reasonable default for a city-scale network.
func NewGrid(cellSizeDegrees float64) *Grid {
	return &Grid{
		cellSizeDegrees: cellSizeDegrees,
		cells:           make(map[cellKey][]point),
	}
}

// Add registers a walk-network node at the given coordinate.
func (g *Grid) Add(node graph.NodeID, lat, lon float64) {
	k := g.keyOf(lat, lon)
	g.cells[k] = append(g.cells[k], point{Node: node, Lat: lat, Lon: lon})
}

func (g *Grid) keyOf(lat, lon float64) cellKey {
	return cellKey{
		x: int(math.Floor(lon / g.cellSizeDegrees)),
		y: int(math.Floor(lat / g.cellSizeDegrees)),
	}
}

// Nearest implements Index by scanning the query cell and its 8
// neighbors, growing the ring outward (at most two cells from the
// query cell) while nothing within maxRadiusMeters has been found.
func (g *Grid) Nearest(lat, lon float64, maxRadiusMeters float64) (graph.NodeID, float64, bool) {
	center := g.keyOf(lat, lon)

	type candidate struct {
		node graph.NodeID
		dist float64
	}
	var candidates []candidate

	for ring := 0; ring <= 2; ring++ {
		for dx := -ring; dx <= ring; dx++ {
			for dy := -ring; dy <= ring; dy++ {
				if ring > 0 && abs(dx) != ring && abs(dy) != ring {
					continue // interior already scanned at a smaller ring
				}
				k := cellKey{x: center.x + dx, y: center.y + dy}
				for _, p := range g.cells[k] {
					d := haversineDistance(lat, lon, p.Lat, p.Lon)
					if maxRadiusMeters <= 0 || d <= maxRadiusMeters {
						candidates = append(candidates, candidate{node: p.Node, dist: d})
					}
				}
			}
		}
		if len(candidates) > 0 {
			break
		}
	}

	if len(candidates) == 0 {
		return 0, 0, false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	return candidates[0].node, candidates[0].dist, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// haversineDistance calculates distance between two coordinates in
// meters.
func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}
