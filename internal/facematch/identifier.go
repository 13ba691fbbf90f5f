package facematch

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kozaktomas/capture-kit/internal/database"
)

// Identifier matches face vectors and enrolls the ones nobody matches.
type Identifier struct {
	matcher *Matcher
	store   database.IdentityWriter
	logger  *zap.Logger
}

// NewIdentifier returns an identifier that enrolls unknown faces into store.
// The matcher should read from the same store so enrolled faces are matched
// on the next frame.
func NewIdentifier(matcher *Matcher, store database.IdentityWriter, logger *zap.Logger) *Identifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Identifier{matcher: matcher, store: store, logger: logger}
}

// Identify returns the identity vec matches. When none matches, vec is
// persisted as a new identity and returned with Known set to false.
func (i *Identifier) Identify(vec []float32) (Result, error) {
	if match, ok := i.matcher.Match(vec); ok {
		i.logger.Debug("face matched",
			zap.Int("id", match.ID),
			zap.Float64("distance", match.Distance))
		return Result{Match: match, Known: true}, nil
	}

	ident, err := i.store.Append(vec)
	if err != nil {
		return Result{}, fmt.Errorf("enrolling face: %w", err)
	}
	i.logger.Info("enrolled new face",
		zap.Int("id", ident.ID),
		zap.Int("identities", i.store.Count()))
	return Result{Match: Match{ID: ident.ID, Label: ident.Label}}, nil
}
