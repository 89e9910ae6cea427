package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/tyemirov/taskrun/internal/taskcfg"
	"github.com/tyemirov/taskrun/internal/taskrun"
)

const (
	echoTaskIdentifierConstant    = "echo"
	gitSyncTaskIdentifierConstant = "git-sync"
	echoMessageConstant           = "resolved task parameters"
	gitSyncMessageConstant        = "delegating to configured git actions"
	parametersFieldNameConstant   = "params"
)

// RegisterBuiltinHandlers installs the handlers shipped with the binary.
// They double as working references for the handler contract: echo logs its
// resolved parameters, git-sync performs only the task's git actions.
func RegisterBuiltinHandlers(registry *taskrun.HandlerRegistry) error {
	if registrationError := registry.Register(echoTaskIdentifierConstant, taskrun.HandlerFunc(runEchoTask)); registrationError != nil {
		return registrationError
	}
	return registry.Register(gitSyncTaskIdentifierConstant, taskrun.HandlerFunc(runGitSyncTask))
}

func runEchoTask(_ context.Context, parameters any, _ *taskcfg.Document, taskLogger *zap.Logger) error {
	taskLogger.Info(echoMessageConstant, zap.Any(parametersFieldNameConstant, parameters))
	return nil
}

// runGitSyncTask succeeds immediately; the executor runs the git actions
// configured on the task after the handler returns.
func runGitSyncTask(_ context.Context, _ any, _ *taskcfg.Document, taskLogger *zap.Logger) error {
	taskLogger.Info(gitSyncMessageConstant)
	return nil
}
