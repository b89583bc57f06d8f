package command

import (
	"context"
	"strconv"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/pkg/log"
)

// Step implements ports.ProcessingStep by running an external command once
// per request.
type Step struct {
	argv   []string
	runner *Runner
}

// NewStep creates a Step from an argv template.
func NewStep(argv []string, logger log.Logger) *Step {
	return &Step{argv: argv, runner: NewRunner(logger)}
}

// Process expands the template for req and runs it.
func (s *Step) Process(ctx context.Context, req domain.StepRequest) error {
	vars := missionVars(req.Mission)
	vars["kind"] = string(req.Kind)
	vars["input"] = req.InputDir
	vars["output"] = req.OutputDir
	vars["steps"] = JoinSteps(req.Options.Steps)
	vars["batch"] = strconv.Itoa(req.Batch)

	return s.runner.Run(ctx, Expand(s.argv, vars))
}
