// Package runner executes validated script commands against a volume.
package runner

import (
	goerrors "github.com/go-errors/errors"

	diskalloc "github.com/lance6716/disk-allocator"
	"github.com/lance6716/disk-allocator/internal/logger"
	"github.com/lance6716/disk-allocator/internal/script"
)

// Outcome is the result of one command. Err is nil when the volume accepted
// it.
type Outcome struct {
	Command script.Command
	Result  diskalloc.Result
	Err     error
}

type Runner struct {
	m         diskalloc.Manager
	afterStep func(Outcome)
}

type Option func(*Runner)

// WithAfterStep registers fn to be called after every command.
func WithAfterStep(fn func(Outcome)) Option {
	return func(r *Runner) {
		r.afterStep = fn
	}
}

func New(m diskalloc.Manager, opts ...Option) *Runner {
	r := &Runner{m: m}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes cmds in order. A rejected command never stops the run.
func (r *Runner) Run(cmds []script.Command) []Outcome {
	outcomes := make([]Outcome, 0, len(cmds))
	for _, cmd := range cmds {
		o := r.Execute(cmd)
		outcomes = append(outcomes, o)
		if r.afterStep != nil {
			r.afterStep(o)
		}
	}
	return outcomes
}

// Execute runs a single command. A panic inside the volume is turned into the
// outcome's error, with its stack trace logged.
func (r *Runner) Execute(cmd script.Command) (o Outcome) {
	o.Command = cmd
	fields := map[string]interface{}{
		"line":    cmd.Line,
		"op":      cmd.Op.String(),
		"file_id": cmd.FileID,
	}

	defer func() {
		if p := recover(); p != nil {
			err := goerrors.Wrap(p, 2)
			fields["stack"] = err.ErrorStack()
			logger.LogError("Command panicked", err, fields)
			o.Err = err
		}
	}()

	logger.LogDebug("Executing command", fields)
	switch cmd.Op {
	case script.OpAdd:
		fields["entries"] = len(cmd.Payload)
		o.Result, o.Err = r.m.Add(cmd.FileID, cmd.Payload)
	case script.OpRead:
		o.Result, o.Err = r.m.Read(cmd.FileID)
	case script.OpDelete:
		o.Result, o.Err = r.m.Delete(cmd.FileID)
	default:
		o.Err = goerrors.Errorf("unsupported operation %d", int(cmd.Op))
	}

	fields["accesses"] = o.Result.Accesses
	if o.Err != nil {
		logger.LogWarn("Command rejected", withError(fields, o.Err))
		return o
	}
	fields["blocks"] = o.Result.Blocks
	logger.LogDebug("Command completed", fields)
	return o
}

func withError(fields map[string]interface{}, err error) map[string]interface{} {
	fields["error"] = err.Error()
	return fields
}
