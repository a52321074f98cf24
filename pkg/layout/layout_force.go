package layout

import (
	"math"
	"math/rand"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// ForceDirectedLayout implements Fruchterman-Reingold placement from a
// seeded random start.
type ForceDirectedLayout struct {
	config Config
}

// Compute computes positions using force-directed algorithm
func (fdl *ForceDirectedLayout) Compute(snap graph.Snapshot) map[string]Position {
	ix := index(snap)
	n := len(ix.ids)
	cfg := fdl.config

	switch n {
	case 0:
		return map[string]Position{}
	case 1:
		return toMap(ix.ids, []Position{{X: cfg.Width / 2, Y: cfg.Height / 2}})
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	positions := make([]Position, n)
	for i := range positions {
		positions[i] = Position{
			X: rng.Float64()*(cfg.Width-2*cfg.Padding) + cfg.Padding,
			Y: rng.Float64()*(cfg.Height-2*cfg.Padding) + cfg.Padding,
		}
	}

	k := math.Sqrt((cfg.Width * cfg.Height) / float64(n)) // optimal distance
	temperature := cfg.Width / 10.0
	forces := make([]Position, n)

	for iter := 0; iter < cfg.Iterations; iter++ {
		clear(forces)

		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := positions[i].X - positions[j].X
				dy := positions[i].Y - positions[j].Y
				dist := math.Max(math.Sqrt(dx*dx+dy*dy), 0.01)

				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force
				forces[i].X += fx
				forces[i].Y += fy
				forces[j].X -= fx
				forces[j].Y -= fy
			}
		}

		for i := 0; i < n; i++ {
			for _, j := range ix.neighbors[i] {
				dx := positions[i].X - positions[j].X
				dy := positions[i].Y - positions[j].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					continue
				}

				force := (dist * dist) / k
				forces[i].X -= (dx / dist) * force
				forces[i].Y -= (dy / dist) * force
			}
		}

		cool := 1.0 - float64(iter)/float64(cfg.Iterations)
		for i := range positions {
			fx, fy := forces[i].X, forces[i].Y
			force := math.Sqrt(fx*fx + fy*fy)
			if force > 0 {
				step := math.Min(force, temperature) * cool
				positions[i].X += (fx / force) * step
				positions[i].Y += (fy / force) * step
			}
		}

		temperature *= 0.95
	}

	return toMap(ix.ids, normalizePositions(positions, cfg.Width, cfg.Height, cfg.Padding))
}
