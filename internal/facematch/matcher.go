package facematch

import (
	"cmp"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/kozaktomas/capture-kit/internal/database"
)

// Matcher compares face vectors with the identities of a store.
type Matcher struct {
	source    database.IdentityReader
	index     NearestSearcher
	tolerance float64
	strategy  Strategy
	logger    *zap.Logger
}

// NewMatcher returns a matcher over source. A vector matches an identity when
// their Euclidean distance is at most tolerance.
func NewMatcher(source database.IdentityReader, tolerance float64, strategy Strategy, logger *zap.Logger) *Matcher {
	if tolerance <= 0 {
		tolerance = database.DefaultTolerance
	}
	if strategy == "" {
		strategy = StrategyFirst
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		source:    source,
		tolerance: tolerance,
		strategy:  strategy,
		logger:    logger,
	}
}

// WithIndex makes the nearest strategy query idx before falling back to a
// full scan. The first strategy never uses the index.
func (m *Matcher) WithIndex(idx NearestSearcher) *Matcher {
	m.index = idx
	return m
}

// Tolerance returns the distance threshold.
func (m *Matcher) Tolerance() float64 {
	return m.tolerance
}

// Strategy returns the configured strategy.
func (m *Matcher) Strategy() Strategy {
	return m.strategy
}

// Match finds the identity vec belongs to. The second return value is false
// when no identity is within tolerance.
func (m *Matcher) Match(vec []float32) (Match, bool) {
	if m.strategy == StrategyNearest {
		if m.index != nil {
			match, ok, err := m.matchIndex(vec)
			if err == nil {
				return match, ok
			}
			m.logger.Debug("index search failed, scanning all identities", zap.Error(err))
		}
		return m.matchNearest(vec)
	}
	return m.matchFirst(vec)
}

// matchFirst walks identities in ascending ID order and stops at the first
// one within tolerance.
func (m *Matcher) matchFirst(vec []float32) (Match, bool) {
	for _, ident := range m.source.List() {
		d := database.EuclideanDistance(ident.Vector, vec)
		if d <= m.tolerance {
			return Match{ID: ident.ID, Label: ident.Label, Distance: d}, true
		}
	}
	return Match{}, false
}

func (m *Matcher) matchNearest(vec []float32) (Match, bool) {
	best := Match{Distance: math.Inf(1)}
	found := false
	for _, ident := range m.source.List() {
		d := database.EuclideanDistance(ident.Vector, vec)
		if d <= m.tolerance && d < best.Distance {
			best = Match{ID: ident.ID, Label: ident.Label, Distance: d}
			found = true
		}
	}
	return best, found
}

func (m *Matcher) matchIndex(vec []float32) (Match, bool, error) {
	ids, distances, err := m.index.Search(vec, database.HNSWSearchK)
	if err != nil {
		return Match{}, false, err
	}

	bestIdx := -1
	for i, d := range distances {
		if d <= m.tolerance && (bestIdx < 0 || d < distances[bestIdx]) {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return Match{}, false, nil
	}

	ident, err := m.source.Get(ids[bestIdx])
	if err != nil {
		return Match{}, false, err
	}
	return Match{ID: ident.ID, Label: ident.Label, Distance: distances[bestIdx]}, true, nil
}

// Nearest returns up to limit identities ordered by distance to vec,
// regardless of tolerance.
func (m *Matcher) Nearest(vec []float32, limit int) []Match {
	var out []Match
	for _, ident := range m.source.List() {
		d := database.EuclideanDistance(ident.Vector, vec)
		if math.IsInf(d, 1) {
			continue
		}
		out = append(out, Match{ID: ident.ID, Label: ident.Label, Distance: d})
	}
	sortMatches(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// sortMatches orders by distance, then by ID for equal distances.
func sortMatches(ms []Match) {
	slices.SortFunc(ms, func(a, b Match) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
