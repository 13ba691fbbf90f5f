// Package facematch decides which stored identity a face vector belongs to
// and enrolls faces that match none of them.
package facematch

import (
	"fmt"

	"github.com/kozaktomas/capture-kit/internal/config"
)

// Strategy selects how a vector is compared against the stored identities.
type Strategy string

const (
	// StrategyFirst returns the lowest-ID identity within tolerance.
	StrategyFirst Strategy = config.MatchFirst
	// StrategyNearest returns the closest identity within tolerance.
	StrategyNearest Strategy = config.MatchNearest
)

// ParseStrategy converts a config value to a Strategy. Empty means first.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyFirst:
		return StrategyFirst, nil
	case StrategyNearest:
		return StrategyNearest, nil
	default:
		return "", fmt.Errorf("unknown match strategy %q", s)
	}
}

// Match is a stored identity a vector was compared with.
type Match struct {
	ID       int
	Label    string
	Distance float64
}

// Result is the outcome of identifying one face.
type Result struct {
	Match
	Known bool // false when the face was enrolled as a new identity
}

// NearestSearcher finds approximate nearest identities by vector.
// database.HNSWIndex implements it.
type NearestSearcher interface {
	Search(query []float32, k int) ([]int, []float64, error)
}
