package anim

import (
	"time"

	"go.uber.org/zap"

	"github.com/saker-ai/avatar-server/internal/mapping"
)

// State holds the current logical value of each animation channel.
type State struct {
	Clip    string
	Emotion string
	Look    string
}

// Tables bundles the three per-domain mapping tables.
type Tables struct {
	Locomotion *mapping.Table
	Expression *mapping.Table
	Gaze       *mapping.Table
}

// Scheduler defers work onto the controller's owning loop. The callback
// runs on that loop, never concurrently with an apply.
type Scheduler interface {
	Schedule(delay time.Duration, run func())
}

// Options tunes the controller.
type Options struct {
	// ResetClip is played with immediate application before every
	// expression change so no blended residue remains.
	ResetClip string
	// BlinkClip is the clip Blink plays when the player knows it.
	BlinkClip string
	// BlinkHold is how long Blink waits before restoring the current
	// expression.
	BlinkHold time.Duration
	// OneShots lists locomotion tokens that auto-revert to idle after
	// their natural duration.
	OneShots []string
}

const (
	defaultResetClip = "[Global]/RESET"
	defaultBlinkClip = "[Global]/blink"
	defaultBlinkHold = 150 * time.Millisecond
)

func defaultOneShots() []string {
	return []string{"wave", "jump", "blow_kiss", "clap", "bow", "nod", "shake_head"}
}

// Controller owns the three animation channels and sequences calls to
// the playback collaborator. All methods must run on a single loop; the
// controller holds no locks.
type Controller struct {
	player    Player
	tables    Tables
	sched     Scheduler
	logger    *zap.Logger
	resetClip string
	blinkClip string
	blinkHold time.Duration
	oneShots  map[string]struct{}

	state State
	// clipGen counts locomotion applies. A deferred revert captures the
	// generation at scheduling time and skips itself when a later apply
	// has taken over the channel.
	clipGen uint64
}

// NewController builds a controller and applies the startup pose: idle
// locomotion and neutral expression.
func NewController(player Player, tables Tables, opts Options, sched Scheduler, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	resetClip := opts.ResetClip
	if resetClip == "" {
		resetClip = defaultResetClip
	}
	blinkClip := opts.BlinkClip
	if blinkClip == "" {
		blinkClip = defaultBlinkClip
	}
	blinkHold := opts.BlinkHold
	if blinkHold <= 0 {
		blinkHold = defaultBlinkHold
	}
	oneShots := opts.OneShots
	if len(oneShots) == 0 {
		oneShots = defaultOneShots()
	}
	oneShotSet := make(map[string]struct{}, len(oneShots))
	for _, token := range oneShots {
		oneShotSet[token] = struct{}{}
	}

	c := &Controller{
		player:    player,
		tables:    tables,
		sched:     sched,
		logger:    logger,
		resetClip: resetClip,
		blinkClip: blinkClip,
		blinkHold: blinkHold,
		oneShots:  oneShotSet,
		state:     State{Clip: "idle", Emotion: "neutral", Look: ""},
	}

	if err := c.ApplyLocomotion("idle"); err != nil {
		logger.Warn("startup idle locomotion failed", zap.Error(err))
	}
	if err := c.ApplyExpression("neutral"); err != nil {
		logger.Warn("startup neutral expression failed", zap.Error(err))
	}
	return c
}

// State returns a snapshot of the three channels.
func (c *Controller) State() State {
	return c.state
}

// ApplyLocomotion resolves token against the locomotion table and plays
// it. One-shot tokens with a positive clip duration schedule a revert to
// idle after exactly that duration; the revert is skipped if another
// apply has since changed the clip. Resolution failure leaves the
// channel untouched.
func (c *Controller) ApplyLocomotion(token string) error {
	name, err := Resolve(c.player, c.tables.Locomotion, token)
	if err != nil {
		return err
	}
	if name != "" {
		c.player.Play(name)
	}
	c.state.Clip = token
	c.clipGen++

	if _, oneShot := c.oneShots[token]; !oneShot {
		return nil
	}
	duration := c.player.CurrentAnimationLength()
	if duration <= 0 {
		return nil
	}
	gen := c.clipGen
	c.sched.Schedule(duration, func() {
		if c.clipGen != gen {
			// A later command owns the channel; the revert is stale.
			return
		}
		if err := c.ApplyLocomotion("idle"); err != nil {
			c.logger.Warn("one-shot revert to idle failed", zap.Error(err))
		}
	})
	c.logger.Debug("one-shot revert scheduled",
		zap.String("token", token),
		zap.Duration("duration", duration),
	)
	return nil
}

// ApplyExpression plays the reset clip (when the player knows it) and
// then the resolved expression, each with immediate application. On
// resolution failure the reset has already happened but the emotion
// channel is left unchanged.
func (c *Controller) ApplyExpression(token string) error {
	if c.resetClip != "" && c.player.HasAnimation(c.resetClip) {
		c.player.Play(c.resetClip)
		c.player.Advance(0)
	}
	name, err := Resolve(c.player, c.tables.Expression, token)
	if err != nil {
		return err
	}
	if name != "" {
		c.player.Play(name)
		c.player.Advance(0)
	}
	c.state.Emotion = token
	return nil
}

// ApplyGaze resolves token against the gaze table. The empty sentinel
// sets the channel without any playback call; otherwise the resolved
// name is played with immediate application.
func (c *Controller) ApplyGaze(token string) error {
	name, err := Resolve(c.player, c.tables.Gaze, token)
	if err != nil {
		return err
	}
	if name == "" {
		c.state.Look = token
		return nil
	}
	c.player.Play(name)
	c.player.Advance(0)
	c.state.Look = token
	return nil
}

// Blink plays the blink clip when the player knows it and, after the
// blink hold, restores the current expression's animation if it still
// resolves. Not part of the command protocol.
func (c *Controller) Blink() {
	if c.blinkClip == "" || !c.player.HasAnimation(c.blinkClip) {
		return
	}
	c.player.Play(c.blinkClip)
	c.sched.Schedule(c.blinkHold, func() {
		name, err := Resolve(c.player, c.tables.Expression, c.state.Emotion)
		if err != nil || name == "" {
			return
		}
		c.player.Play(name)
		c.player.Advance(0)
	})
}
