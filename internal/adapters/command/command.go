// Package command runs the external collaborators of the pipeline as
// operating-system processes.
//
// Each collaborator is configured as an argv template. Placeholders in the
// form {name} are substituted per invocation:
//
//	{glider} {mission} {kind} {input} {output} {steps} {batch} {dataset} {dir}
//
// For example:
//
//	step_command = ["python3", "process_pyglider.py", "{glider}", "{mission}", "{kind}", "{input}", "{output}", "--steps", "{steps}"]
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/pkg/log"
)

// tailLines is how much of a failed command's output is kept.
const tailLines = 20

// waitDelay bounds how long Run waits for the output pipes to close after
// the process has been killed.
const waitDelay = 2 * time.Second

// Error reports a failed external command.
type Error struct {
	Argv     []string
	ExitCode int
	Output   string
	Err      error
}

func (e *Error) Error() string {
	name := ""
	if len(e.Argv) > 0 {
		name = e.Argv[0]
	}
	if e.ExitCode > 0 {
		return fmt.Sprintf("%s exited with status %d", name, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Vars holds placeholder values for one invocation.
type Vars map[string]string

// missionVars returns the placeholders every collaborator understands.
func missionVars(key domain.MissionKey) Vars {
	return Vars{
		"glider":  strconv.Itoa(key.GliderID),
		"mission": strconv.Itoa(key.MissionID),
	}
}

// Expand substitutes {name} placeholders in every element of tmpl.
// Unknown placeholders are left as they are.
func Expand(tmpl []string, vars Vars) []string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	out := make([]string, len(tmpl))
	for i, arg := range tmpl {
		out[i] = r.Replace(arg)
	}
	return out
}

// JoinSteps renders stage switches as "1,1,0,1".
func JoinSteps(steps []int) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

// Runner executes argv and returns a *Error on failure.
type Runner struct {
	logger log.Logger
}

// NewRunner creates a Runner.
func NewRunner(logger log.Logger) *Runner {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Runner{logger: logger}
}

// Run executes argv with combined stdout/stderr captured. On failure the last
// lines of output are logged and kept on the returned error. The process is
// killed if ctx is canceled, together with any process it started.
func (r *Runner) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 || argv[0] == "" {
		return &Error{Argv: argv, Err: errors.New("empty command")}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	setProcessGroup(cmd)
	cmd.WaitDelay = waitDelay
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	r.logger.Debug("running command", log.Strings("argv", argv))
	err := cmd.Run()
	if err == nil {
		return nil
	}

	cerr := &Error{Argv: argv, Err: err, Output: tail(out.String(), tailLines)}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cerr.ExitCode = exitErr.ExitCode()
	}

	r.logger.Error("command failed", log.Strings("argv", argv), log.Int("exit_code", cerr.ExitCode), log.Err(err))
	for _, l := range strings.Split(cerr.Output, "\n") {
		if l != "" {
			r.logger.Error("  " + l)
		}
	}
	return cerr
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
