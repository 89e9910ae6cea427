package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tyemirov/taskrun/internal/handlers"
	"github.com/tyemirov/taskrun/internal/taskrun"
)

func TestRegisterBuiltinHandlers(testInstance *testing.T) {
	registry := taskrun.NewHandlerRegistry()
	require.NoError(testInstance, handlers.RegisterBuiltinHandlers(registry))
	require.Equal(testInstance, []string{"echo", "git-sync"}, registry.Identifiers())
}

func TestRegisterBuiltinHandlersRejectsSecondRegistration(testInstance *testing.T) {
	registry := taskrun.NewHandlerRegistry()
	require.NoError(testInstance, handlers.RegisterBuiltinHandlers(registry))
	require.Error(testInstance, handlers.RegisterBuiltinHandlers(registry))
}

func TestEchoHandlerLogsResolvedParameters(testInstance *testing.T) {
	registry := taskrun.NewHandlerRegistry()
	require.NoError(testInstance, handlers.RegisterBuiltinHandlers(registry))

	echoHandler, handlerRegistered := registry.Lookup("echo")
	require.True(testInstance, handlerRegistered)

	observedCore, observedLogs := observer.New(zap.DebugLevel)
	parameters := map[string]any{"target": "demo"}
	require.NoError(testInstance, echoHandler.Run(context.Background(), parameters, nil, zap.New(observedCore)))

	entries := observedLogs.FilterMessage("resolved task parameters").All()
	require.Len(testInstance, entries, 1)
	require.Equal(testInstance, parameters, entries[0].ContextMap()["params"])
}

func TestGitSyncHandlerSucceedsWithoutParameters(testInstance *testing.T) {
	registry := taskrun.NewHandlerRegistry()
	require.NoError(testInstance, handlers.RegisterBuiltinHandlers(registry))

	gitSyncHandler, handlerRegistered := registry.Lookup("git-sync")
	require.True(testInstance, handlerRegistered)
	require.NoError(testInstance, gitSyncHandler.Run(context.Background(), nil, nil, zap.NewNop()))
}
