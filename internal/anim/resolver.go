package anim

import (
	"errors"
	"fmt"
	"strings"

	"github.com/saker-ai/avatar-server/internal/mapping"
)

var (
	// ErrMappingNotFound marks a logical token absent from its table.
	ErrMappingNotFound = errors.New("mapping not found")
	// ErrAnimationAssetMissing marks a mapped name the player does not
	// recognize even after the namespace fallback.
	ErrAnimationAssetMissing = errors.New("animation asset missing")
)

// Resolve maps a logical token to a name the player will accept.
//
// An empty qualified name in the table is the reset sentinel: resolution
// succeeds with "" and the player is never consulted. Otherwise the
// qualified name is tried as-is, then with everything up to and
// including the last "/" stripped.
func Resolve(player Player, table *mapping.Table, token string) (string, error) {
	qualified, ok := table.Lookup(token)
	if !ok {
		return "", fmt.Errorf("%w: %s %q", ErrMappingNotFound, table.Name(), token)
	}
	if qualified == "" {
		return "", nil
	}
	if player.HasAnimation(qualified) {
		return qualified, nil
	}
	if idx := strings.LastIndex(qualified, "/"); idx >= 0 {
		bare := qualified[idx+1:]
		if bare != "" && player.HasAnimation(bare) {
			return bare, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrAnimationAssetMissing, qualified)
}
