package anim

import (
	"errors"
	"testing"
	"time"

	"github.com/saker-ai/avatar-server/internal/mapping"
)

func TestResolveQualifiedName(t *testing.T) {
	player := &fakePlayer{clips: map[string]time.Duration{"Gestures/wave": 0}}
	table := mapping.New("locomotion", map[string]string{"wave": "Gestures/wave"})

	got, err := Resolve(player, table, "wave")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "Gestures/wave" {
		t.Fatalf("Resolve=%q, want %q", got, "Gestures/wave")
	}
}

func TestResolveBareFallback(t *testing.T) {
	player := &fakePlayer{clips: map[string]time.Duration{"wave": 0}}
	table := mapping.New("locomotion", map[string]string{"wave": "Gestures/wave"})

	got, err := Resolve(player, table, "wave")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "wave" {
		t.Fatalf("Resolve=%q, want bare %q", got, "wave")
	}
}

func TestResolveMappingNotFound(t *testing.T) {
	player := &fakePlayer{clips: map[string]time.Duration{}}
	table := mapping.New("locomotion", map[string]string{"idle": "Locomotion/idle"})

	_, err := Resolve(player, table, "moonwalk")
	if !errors.Is(err, ErrMappingNotFound) {
		t.Fatalf("Resolve error=%v, want ErrMappingNotFound", err)
	}
}

func TestResolveAssetMissing(t *testing.T) {
	player := &fakePlayer{clips: map[string]time.Duration{}}
	table := mapping.New("locomotion", map[string]string{"wave": "Gestures/wave"})

	_, err := Resolve(player, table, "wave")
	if !errors.Is(err, ErrAnimationAssetMissing) {
		t.Fatalf("Resolve error=%v, want ErrAnimationAssetMissing", err)
	}
}

func TestResolveResetSentinel(t *testing.T) {
	player := &fakePlayer{clips: map[string]time.Duration{}}
	table := mapping.New("gaze", map[string]string{"user": ""})

	got, err := Resolve(player, table, "user")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "" {
		t.Fatalf("Resolve=%q, want empty sentinel", got)
	}
	if len(player.plays) != 0 {
		t.Fatalf("player plays=%v, want none for sentinel", player.plays)
	}
}
