package taskrun_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/taskrun/internal/taskcfg"
	"github.com/tyemirov/taskrun/internal/taskrun"
)

func noopHandler() taskrun.Handler {
	return taskrun.HandlerFunc(func(context.Context, any, *taskcfg.Document, *zap.Logger) error {
		return nil
	})
}

func TestHandlerRegistryRegisterValidation(testInstance *testing.T) {
	testCases := []struct {
		name           string
		taskIdentifier string
		handler        taskrun.Handler
		expectError    bool
	}{
		{name: "valid_registration", taskIdentifier: "build", handler: noopHandler(), expectError: false},
		{name: "identifier_trimmed", taskIdentifier: "  deploy  ", handler: noopHandler(), expectError: false},
		{name: "missing_identifier", taskIdentifier: "   ", handler: noopHandler(), expectError: true},
		{name: "missing_handler", taskIdentifier: "build", handler: nil, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			registry := taskrun.NewHandlerRegistry()
			registrationError := registry.Register(testCase.taskIdentifier, testCase.handler)
			if testCase.expectError {
				require.Error(testInstance, registrationError)
				return
			}
			require.NoError(testInstance, registrationError)
		})
	}
}

func TestHandlerRegistryRejectsDuplicateRegistration(testInstance *testing.T) {
	registry := taskrun.NewHandlerRegistry()
	require.NoError(testInstance, registry.Register("build", noopHandler()))
	require.Error(testInstance, registry.Register("build", noopHandler()))
	require.Error(testInstance, registry.Register(" build ", noopHandler()))
}

func TestHandlerRegistryLookup(testInstance *testing.T) {
	registry := taskrun.NewHandlerRegistry()
	require.NoError(testInstance, registry.Register("build", noopHandler()))

	handler, handlerRegistered := registry.Lookup("build")
	require.True(testInstance, handlerRegistered)
	require.NotNil(testInstance, handler)

	trimmedHandler, trimmedRegistered := registry.Lookup("  build  ")
	require.True(testInstance, trimmedRegistered)
	require.NotNil(testInstance, trimmedHandler)

	_, unknownRegistered := registry.Lookup("missing")
	require.False(testInstance, unknownRegistered)
}

func TestHandlerRegistryIdentifiersSorted(testInstance *testing.T) {
	registry := taskrun.NewHandlerRegistry()
	require.NoError(testInstance, registry.Register("zeta", noopHandler()))
	require.NoError(testInstance, registry.Register("alpha", noopHandler()))
	require.NoError(testInstance, registry.Register("mid", noopHandler()))

	require.Equal(testInstance, []string{"alpha", "mid", "zeta"}, registry.Identifiers())
}
