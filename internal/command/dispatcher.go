package command

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/saker-ai/avatar-server/internal/anim"
	"github.com/saker-ai/avatar-server/internal/metrics"
	"github.com/saker-ai/avatar-server/internal/protocol"
)

// Dispatcher turns one decoded command frame into controller calls and
// an aggregated response. Dispatch must run on the controller's event
// loop.
type Dispatcher struct {
	controller *anim.Controller
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewDispatcher wires a dispatcher to the controller.
func NewDispatcher(controller *anim.Controller, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{controller: controller, logger: logger, metrics: m}
}

// Dispatch processes one raw frame. A nil response with nil error means
// the command was fire-and-forget (no commandId). A non-nil error means
// the frame could not be decoded; the caller logs and drops it, since
// there is no commandId to address a reply to.
func (d *Dispatcher) Dispatch(frame []byte) (*protocol.Response, error) {
	var cmd protocol.Command
	if err := json.Unmarshal(frame, &cmd); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}

	if cmd.Type == protocol.TypeAvatarControl && cmd.Params != nil {
		inner := *cmd.Params
		if inner.CommandID == "" {
			inner.CommandID = cmd.CommandID
		}
		cmd = inner
	}

	resp := protocol.Response{Status: protocol.StatusSuccess, CommandID: cmd.CommandID}

	// Fields are processed independently in a fixed order; one field's
	// failure never blocks the others.
	if cmd.Clip != "" {
		if err := d.controller.ApplyLocomotion(cmd.Clip); err != nil {
			resp.Status = protocol.StatusPartial
			resp.Result.AnimationError = "Animation not found: " + cmd.Clip
			d.logger.Warn("locomotion apply failed",
				zap.String("clip", cmd.Clip),
				zap.Error(err),
			)
		} else {
			resp.Result.Animation = cmd.Clip
		}
	}

	if cmd.Emotion != "" {
		if err := d.controller.ApplyExpression(cmd.Emotion); err != nil {
			// Emotion failures are reported but do not downgrade the
			// overall status; only clip failures do.
			resp.Result.EmotionError = "Emotion not found: " + cmd.Emotion
			d.logger.Warn("expression apply failed",
				zap.String("emotion", cmd.Emotion),
				zap.Error(err),
			)
		} else {
			resp.Result.Emotion = cmd.Emotion
		}
	}

	if cmd.LookAt != "" {
		if err := d.controller.ApplyGaze(cmd.LookAt); err != nil {
			// Gaze failures are always non-fatal warnings.
			resp.Result.LookAtWarning = "Look target not found: " + cmd.LookAt
			d.logger.Debug("gaze apply failed",
				zap.String("look_at", cmd.LookAt),
				zap.Error(err),
			)
		} else {
			resp.Result.LookAt = cmd.LookAt
		}
	}

	d.metrics.CommandProcessed(string(resp.Status))

	if cmd.CommandID == "" {
		return nil, nil
	}
	return &resp, nil
}
