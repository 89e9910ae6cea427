package taskrun

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/taskrun/internal/taskcfg"
)

const (
	handlerIdentifierMissingMessageConstant = "handler identifier must be provided"
	handlerMissingTemplateConstant          = "handler for %q must be provided"
	duplicateHandlerTemplateConstant        = "duplicate handler registration for %q"
)

// Handler implements one task's behavior. Handlers receive the resolved task
// parameters, the full configuration document, and a logger scoped to the
// task. Returning an error marks the task failed.
type Handler interface {
	Run(executionContext context.Context, parameters any, document *taskcfg.Document, taskLogger *zap.Logger) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(executionContext context.Context, parameters any, document *taskcfg.Document, taskLogger *zap.Logger) error

// Run invokes the wrapped function.
func (handlerFunction HandlerFunc) Run(executionContext context.Context, parameters any, document *taskcfg.Document, taskLogger *zap.Logger) error {
	return handlerFunction(executionContext, parameters, document, taskLogger)
}

// HandlerRegistry resolves task handlers by task identifier. It replaces the
// historical convention of loading handler code from a per-task directory:
// the set of handlers is unknown to the orchestration core, but the lookup
// contract is fixed.
type HandlerRegistry struct {
	handlers map[string]Handler
}

// NewHandlerRegistry constructs an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]Handler)}
}

// Register associates a handler with a task identifier.
func (registry *HandlerRegistry) Register(taskIdentifier string, handler Handler) error {
	trimmedIdentifier := strings.TrimSpace(taskIdentifier)
	if len(trimmedIdentifier) == 0 {
		return errors.New(handlerIdentifierMissingMessageConstant)
	}
	if handler == nil {
		return fmt.Errorf(handlerMissingTemplateConstant, trimmedIdentifier)
	}
	if _, exists := registry.handlers[trimmedIdentifier]; exists {
		return fmt.Errorf(duplicateHandlerTemplateConstant, trimmedIdentifier)
	}
	registry.handlers[trimmedIdentifier] = handler
	return nil
}

// Lookup returns the handler registered for the task identifier.
func (registry *HandlerRegistry) Lookup(taskIdentifier string) (Handler, bool) {
	handler, exists := registry.handlers[strings.TrimSpace(taskIdentifier)]
	return handler, exists
}

// Identifiers returns the registered task identifiers in sorted order.
func (registry *HandlerRegistry) Identifiers() []string {
	identifiers := make([]string, 0, len(registry.handlers))
	for identifier := range registry.handlers {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)
	return identifiers
}
