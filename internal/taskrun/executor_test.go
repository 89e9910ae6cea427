package taskrun_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tyemirov/taskrun/internal/taskcfg"
	"github.com/tyemirov/taskrun/internal/taskrun"
)

type stubGitActionRunner struct {
	runError error
	invoked  bool
}

func (runner *stubGitActionRunner) Run(context.Context, taskcfg.TaskDefinition, *taskcfg.Document) error {
	runner.invoked = true
	return runner.runError
}

func buildExecutorDocument(testInstance *testing.T) *taskcfg.Document {
	testInstance.Helper()
	document, parseError := taskcfg.ParseDocument([]byte("project:\n  name: demo\n"))
	require.NoError(testInstance, parseError)
	return document
}

func TestNewTaskExecutorValidation(testInstance *testing.T) {
	_, missingRegistryError := taskrun.NewTaskExecutor(nil, nil, zap.NewNop())
	require.ErrorIs(testInstance, missingRegistryError, taskrun.ErrExecutorRegistryNotConfigured)

	_, missingLoggerError := taskrun.NewTaskExecutor(taskrun.NewHandlerRegistry(), nil, nil)
	require.ErrorIs(testInstance, missingLoggerError, taskrun.ErrExecutorLoggerNotConfigured)

	executor, creationError := taskrun.NewTaskExecutor(taskrun.NewHandlerRegistry(), nil, zap.NewNop())
	require.NoError(testInstance, creationError)
	require.NotNil(testInstance, executor)
}

func TestTaskExecutorMissingHandlerFailsTask(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zap.DebugLevel)
	registry := taskrun.NewHandlerRegistry()
	require.NoError(testInstance, registry.Register("known", noopHandler()))

	executor, creationError := taskrun.NewTaskExecutor(registry, nil, zap.New(observedCore))
	require.NoError(testInstance, creationError)

	executed := executor.Execute(context.Background(), taskcfg.TaskDefinition{Identifier: "unknown"}, buildExecutorDocument(testInstance))
	require.False(testInstance, executed)

	failureEntries := observedLogs.FilterMessage("task handler not registered").All()
	require.Len(testInstance, failureEntries, 1)
	entryFields := failureEntries[0].ContextMap()
	require.Equal(testInstance, "unknown", entryFields["task"])
	require.Equal(testInstance, "failure", entryFields["event_level"])
	require.Equal(testInstance, []any{"known"}, entryFields["registered_handlers"])
}

func TestTaskExecutorHandlerErrorFailsTask(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zap.DebugLevel)
	registry := taskrun.NewHandlerRegistry()
	handlerFailure := errors.New("handler exploded")
	require.NoError(testInstance, registry.Register("build", taskrun.HandlerFunc(func(context.Context, any, *taskcfg.Document, *zap.Logger) error {
		return handlerFailure
	})))

	executor, creationError := taskrun.NewTaskExecutor(registry, nil, zap.New(observedCore))
	require.NoError(testInstance, creationError)

	executed := executor.Execute(context.Background(), taskcfg.TaskDefinition{Identifier: "build"}, buildExecutorDocument(testInstance))
	require.False(testInstance, executed)

	failureEntries := observedLogs.FilterMessage("task execution failed").All()
	require.Len(testInstance, failureEntries, 1)
	require.Equal(testInstance, "failure", failureEntries[0].ContextMap()["event_level"])
}

func TestTaskExecutorRecoversHandlerPanic(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zap.DebugLevel)
	registry := taskrun.NewHandlerRegistry()
	require.NoError(testInstance, registry.Register("build", taskrun.HandlerFunc(func(context.Context, any, *taskcfg.Document, *zap.Logger) error {
		panic("unexpected state")
	})))

	executor, creationError := taskrun.NewTaskExecutor(registry, nil, zap.New(observedCore))
	require.NoError(testInstance, creationError)

	executed := executor.Execute(context.Background(), taskcfg.TaskDefinition{Identifier: "build"}, buildExecutorDocument(testInstance))
	require.False(testInstance, executed)

	require.Len(testInstance, observedLogs.FilterMessage("task handler panicked").All(), 1)
	require.Len(testInstance, observedLogs.FilterMessage("task execution failed").All(), 1)
}

func TestTaskExecutorGitActionFailureFailsTask(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zap.DebugLevel)
	registry := taskrun.NewHandlerRegistry()
	require.NoError(testInstance, registry.Register("sync", noopHandler()))

	gitRunner := &stubGitActionRunner{runError: errors.New("push rejected")}
	executor, creationError := taskrun.NewTaskExecutor(registry, gitRunner, zap.New(observedCore))
	require.NoError(testInstance, creationError)

	executed := executor.Execute(context.Background(), taskcfg.TaskDefinition{Identifier: "sync"}, buildExecutorDocument(testInstance))
	require.False(testInstance, executed)
	require.True(testInstance, gitRunner.invoked)
	require.Len(testInstance, observedLogs.FilterMessage("task git actions failed").All(), 1)
}

func TestTaskExecutorSuccessLogsCompletionEvent(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zap.DebugLevel)
	registry := taskrun.NewHandlerRegistry()
	require.NoError(testInstance, registry.Register("build", noopHandler()))

	gitRunner := &stubGitActionRunner{}
	executor, creationError := taskrun.NewTaskExecutor(registry, gitRunner, zap.New(observedCore))
	require.NoError(testInstance, creationError)

	executed := executor.Execute(context.Background(), taskcfg.TaskDefinition{Identifier: "build"}, buildExecutorDocument(testInstance))
	require.True(testInstance, executed)
	require.True(testInstance, gitRunner.invoked)

	successEntries := observedLogs.FilterMessage("task completed").All()
	require.Len(testInstance, successEntries, 1)
	require.Equal(testInstance, zap.InfoLevel, successEntries[0].Level)
	entryFields := successEntries[0].ContextMap()
	require.Equal(testInstance, "build", entryFields["task"])
	require.Equal(testInstance, "success", entryFields["event_level"])
}
