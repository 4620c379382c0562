package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Run provisions the whole toolchain into the environment and then invokes
// generate to write the activation layer. Tools run concurrently; the first
// failure cancels the siblings still in flight. Any failure, including a
// generation failure, removes the environment root so no partial tree
// survives the run.
func Run(ctx context.Context, pc *Context, tools []ToolSpec, generate func(root string) error) ([]Outcome, error) {
	for _, spec := range tools {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}

	lock, err := acquireLock(pc.Env.Root)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	if err := pc.Env.Scaffold(); err != nil {
		return nil, err
	}
	record, err := writeRunRecord(pc.Env, tools)
	if err != nil {
		return nil, rollback(pc.Env, err)
	}
	logrus.WithFields(logrus.Fields{
		"run":   record.ID,
		"root":  pc.Env.Root,
		"tools": len(tools),
	}).Info("provisioning environment")

	outcomes := make([]Outcome, len(tools))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range tools {
		g.Go(func() error {
			outcome := ProvisionTool(gctx, pc, spec)
			outcomes[i] = outcome
			if outcome.Status == StatusFailed {
				return outcome.Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, rollback(pc.Env, err)
	}

	if err := generate(pc.Env.Root); err != nil {
		return outcomes, rollback(pc.Env, fmt.Errorf("generate configuration: %w", err))
	}
	return outcomes, nil
}

// rollback removes the environment and returns cause, joined with the
// removal error if cleanup itself failed.
func rollback(env *Environment, cause error) error {
	logrus.WithError(cause).Warn("provisioning failed, removing environment")
	if err := env.Remove(); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
