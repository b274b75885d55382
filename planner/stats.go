package planner

import (
	"time"

	"github.com/paulmach/orb/geo"
)

// FlightStats summarises a planned flight.
type FlightStats struct {
	Waypoints         int
	Photos            int // per-point photo triggers
	DistanceMeters    float64
	EstimatedDuration time.Duration
}

// Summarize measures the path length along the waypoints and estimates the
// flight time at the derived ground speed.
func Summarize(waypoints []Waypoint, spacing DerivedSpacing) FlightStats {
	stats := FlightStats{Waypoints: len(waypoints)}
	for i, wp := range waypoints {
		if wp.TakePhoto {
			stats.Photos++
		}
		if i > 0 {
			stats.DistanceMeters += geo.DistanceHaversine(waypoints[i-1].Coordinates, wp.Coordinates)
		}
	}
	if spacing.GroundSpeed > 0 {
		seconds := stats.DistanceMeters / spacing.GroundSpeed
		stats.EstimatedDuration = time.Duration(seconds * float64(time.Second))
	}
	return stats
}
