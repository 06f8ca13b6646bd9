package anim

import (
	"time"

	"go.uber.org/zap"
)

// Player is the playback collaborator: the opaque animation engine the
// controller drives. Implementations are stateless per call; the
// controller only sequences calls.
type Player interface {
	// HasAnimation reports whether the engine can play the named clip.
	HasAnimation(name string) bool
	// Play starts the named clip on its channel.
	Play(name string)
	// Advance steps playback by dt; Advance(0) forces immediate
	// application of the last Play with no blended residue.
	Advance(dt time.Duration)
	// CurrentAnimationLength returns the natural duration of the clip
	// started by the last Play, or 0 when looping/unknown.
	CurrentAnimationLength() time.Duration
}

// CatalogPlayer is the default Player: a declared clip inventory with
// per-clip durations. The real render process consumes play calls out of
// band; the catalog is the server's view of which assets exist.
type CatalogPlayer struct {
	logger  *zap.Logger
	clips   map[string]time.Duration
	current string
}

// NewCatalogPlayer builds a player over the given clip inventory.
func NewCatalogPlayer(clips map[string]time.Duration, logger *zap.Logger) *CatalogPlayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	copied := make(map[string]time.Duration, len(clips))
	for name, duration := range clips {
		copied[name] = duration
	}
	return &CatalogPlayer{logger: logger, clips: copied}
}

// HasAnimation reports whether the clip is in the catalog.
func (p *CatalogPlayer) HasAnimation(name string) bool {
	_, ok := p.clips[name]
	return ok
}

// Play marks the clip as current.
func (p *CatalogPlayer) Play(name string) {
	p.current = name
	p.logger.Debug("play animation", zap.String("clip", name))
}

// Advance steps playback; the catalog has no timeline, so this only
// traces the call.
func (p *CatalogPlayer) Advance(dt time.Duration) {
	p.logger.Debug("advance animation", zap.Duration("dt", dt))
}

// CurrentAnimationLength returns the declared duration of the current
// clip.
func (p *CatalogPlayer) CurrentAnimationLength() time.Duration {
	return p.clips[p.current]
}
