package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// minSimplifyRun is the shortest directional run the simplifier touches;
// shorter runs pass through unchanged.
const minSimplifyRun = 5

// headingTolerance is how far apart two headings (degrees) may be and still
// belong to the same directional run.
const headingTolerance = 1e-6

// TerrainPoint is a planar path point with sampled ground elevation.
type TerrainPoint struct {
	Point     orb.Point
	Elevation float64
	Heading   float64
}

// SimplifyTerrainPath reduces a dense terrain-following path to the points
// needed to keep linearly interpolated elevation within threshold metres of
// the sampled elevation. Each directional run keeps its first and last point.
func SimplifyTerrainPath(path []TerrainPoint, threshold float64) ([]TerrainPoint, error) {
	kept, err := simplifyIndexes(path, threshold)
	if err != nil {
		return nil, err
	}
	out := make([]TerrainPoint, len(kept))
	for i, idx := range kept {
		out[i] = path[idx]
	}
	return out, nil
}

// simplifyIndexes returns the indexes into path that SimplifyTerrainPath keeps.
func simplifyIndexes(path []TerrainPoint, threshold float64) ([]int, error) {
	if !isFinite(threshold) || threshold < 0 {
		return nil, fmt.Errorf("%w: threshold must be >= 0, got %g", ErrInvalidParameter, threshold)
	}

	var kept []int
	offset := 0
	for _, run := range splitRuns(path) {
		for _, i := range simplifyRun(run, threshold) {
			kept = append(kept, offset+i)
		}
		offset += len(run)
	}
	return kept, nil
}

// splitRuns groups consecutive points with the same heading.
func splitRuns(path []TerrainPoint) [][]TerrainPoint {
	var runs [][]TerrainPoint
	for i := 0; i < len(path); {
		j := i + 1
		for j < len(path) && math.Abs(path[j].Heading-path[i].Heading) <= headingTolerance {
			j++
		}
		runs = append(runs, path[i:j])
		i = j
	}
	return runs
}

// simplifyRun returns the sorted indexes of run points to keep. The worst
// point of every segment over threshold is injected each pass until a pass
// injects nothing.
func simplifyRun(run []TerrainPoint, threshold float64) []int {
	if len(run) < minSimplifyRun {
		all := make([]int, len(run))
		for i := range run {
			all[i] = i
		}
		return all
	}

	kept := []int{0, len(run) - 1}
	for {
		var injected []int
		for k := 0; k < len(kept)-1; k++ {
			if idx, dev := worstDeviation(run, kept[k], kept[k+1]); dev > threshold {
				injected = append(injected, idx)
			}
		}
		if len(injected) == 0 {
			return kept
		}
		kept = append(kept, injected...)
		sort.Ints(kept)
	}
}

// worstDeviation finds the point strictly between a and b that deviates most
// from the straight elevation profile between them.
func worstDeviation(run []TerrainPoint, a, b int) (int, float64) {
	start, end := run[a], run[b]
	span := planar.Distance(start.Point, end.Point)
	slope := 0.0
	if span > 0 {
		slope = (end.Elevation - start.Elevation) / span
	}

	worst, maxDev := -1, 0.0
	for i := a + 1; i < b; i++ {
		expected := start.Elevation + slope*planar.Distance(start.Point, run[i].Point)
		if dev := math.Abs(run[i].Elevation - expected); dev > maxDev {
			worst, maxDev = i, dev
		}
	}
	return worst, maxDev
}
