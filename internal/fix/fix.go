// Package fix dispatches remediation actions by id. Fixes are the only part
// of the system that mutates host state; probes stay observational.
package fix

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Outcome is the business result of one fix attempt. A failed underlying
// command is still a valid outcome, not a protocol fault; the message
// carries the command's error text verbatim so the user can self-diagnose.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Output  string `json:"output,omitempty"`
}

// Params are the optional caller-provided arguments for one fix.
type Params map[string]any

func (p Params) String(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// Action applies one remediation. A returned error is captured by the
// dispatcher; actions never need to build failure outcomes themselves.
type Action func(ctx context.Context, params Params) (Outcome, error)

// ErrUnknownFix is returned for ids with no registered action.
var ErrUnknownFix = errors.New("unknown fix")

// Dispatcher maps fix ids to actions. Like the probe registry it is built
// once at startup and rejects duplicates there.
type Dispatcher struct {
	logger  *zap.Logger
	actions map[string]Action
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger, actions: make(map[string]Action)}
}

func (d *Dispatcher) Register(id string, action Action) error {
	if id == "" || action == nil {
		return fmt.Errorf("fix registration for %q is incomplete", id)
	}
	if _, dup := d.actions[id]; dup {
		return fmt.Errorf("duplicate fix id %q", id)
	}
	d.actions[id] = action
	return nil
}

// Has reports whether an auto-fix id resolves, for validating check reports.
func (d *Dispatcher) Has(id string) bool {
	_, ok := d.actions[id]
	return ok
}

// Apply runs exactly one fix. Unknown ids fail before anything touches the
// host; an action error becomes a failed outcome with the error text.
func (d *Dispatcher) Apply(ctx context.Context, id string, params Params) (Outcome, error) {
	action, ok := d.actions[id]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownFix, id)
	}
	d.logger.Info("fix_apply", zap.String("fix", id))
	out, err := action(ctx, params)
	if err != nil {
		d.logger.Warn("fix_failed", zap.String("fix", id), zap.Error(err))
		return Outcome{Success: false, Message: err.Error()}, nil
	}
	d.logger.Info("fix_done", zap.String("fix", id), zap.Bool("success", out.Success))
	return out, nil
}
