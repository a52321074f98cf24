package layout

import (
	"math"

	"github.com/dd0wney/cluso-policygraph/pkg/graph"
)

// CircularLayout arranges nodes in a circle in id order, starting at three
// o'clock.
type CircularLayout struct {
	config Config
}

// Compute arranges nodes in a circle
func (cl *CircularLayout) Compute(snap graph.Snapshot) map[string]Position {
	ix := index(snap)
	if len(ix.ids) == 0 {
		return map[string]Position{}
	}

	centerX := cl.config.Width / 2
	centerY := cl.config.Height / 2
	radius := math.Min(centerX, centerY) - cl.config.Padding
	angleStep := 2 * math.Pi / float64(len(ix.ids))

	positions := make([]Position, len(ix.ids))
	for i := range ix.ids {
		angle := float64(i) * angleStep
		positions[i] = Position{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
		}
	}
	return toMap(ix.ids, positions)
}
