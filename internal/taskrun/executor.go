package taskrun

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tyemirov/taskrun/internal/taskcfg"
)

const (
	executorLoggerMissingMessageConstant   = "task executor logger not configured"
	executorRegistryMissingMessageConstant = "task executor handler registry not configured"
	handlerNotRegisteredMessageConstant    = "task handler not registered"
	handlerPanicMessageConstant            = "task handler panicked"
	taskFailedMessageConstant              = "task execution failed"
	gitActionsFailedMessageConstant        = "task git actions failed"
	taskSucceededMessageConstant           = "task completed"
	handlerPanicErrorTemplateConstant      = "task handler panicked: %v"
	taskIdentifierFieldNameConstant        = "task"
	eventLevelFieldNameConstant            = "event_level"
	knownHandlersFieldNameConstant         = "registered_handlers"
)

// EventLevel tags task lifecycle log events beyond plain zap levels; success
// is the distinguished level emitted when a task finishes cleanly.
type EventLevel string

// Task event levels.
const (
	EventLevelSuccess EventLevel = "success"
	EventLevelFailure EventLevel = "failure"
)

var (
	// ErrExecutorLoggerNotConfigured indicates the executor logger dependency was missing.
	ErrExecutorLoggerNotConfigured = errors.New(executorLoggerMissingMessageConstant)
	// ErrExecutorRegistryNotConfigured indicates the handler registry dependency was missing.
	ErrExecutorRegistryNotConfigured = errors.New(executorRegistryMissingMessageConstant)
)

// GitActionRunner executes the git actions attached to a task.
type GitActionRunner interface {
	Run(executionContext context.Context, task taskcfg.TaskDefinition, document *taskcfg.Document) error
}

// TaskExecutor resolves and invokes task handlers, containing their failures.
// Every failure mode surfaces as a boolean result; no handler error, panic, or
// git action failure escapes past this boundary.
type TaskExecutor struct {
	registry   *HandlerRegistry
	gitActions GitActionRunner
	logger     *zap.Logger
}

// NewTaskExecutor constructs a TaskExecutor. The git action runner may be nil
// when git actions are not wired into the run.
func NewTaskExecutor(registry *HandlerRegistry, gitActions GitActionRunner, logger *zap.Logger) (*TaskExecutor, error) {
	if registry == nil {
		return nil, ErrExecutorRegistryNotConfigured
	}
	if logger == nil {
		return nil, ErrExecutorLoggerNotConfigured
	}
	return &TaskExecutor{registry: registry, gitActions: gitActions, logger: logger}, nil
}

// Execute runs the resolved task and reports success. The task's handler is
// resolved from the registry; a missing registration is a failure of this task
// only. The logger is scoped with the task identifier for the whole call.
func (executor *TaskExecutor) Execute(executionContext context.Context, task taskcfg.TaskDefinition, document *taskcfg.Document) bool {
	taskLogger := executor.logger.With(zap.String(taskIdentifierFieldNameConstant, task.Identifier))

	handler, handlerRegistered := executor.registry.Lookup(task.Identifier)
	if !handlerRegistered {
		taskLogger.Error(handlerNotRegisteredMessageConstant,
			zap.String(eventLevelFieldNameConstant, string(EventLevelFailure)),
			zap.Strings(knownHandlersFieldNameConstant, executor.registry.Identifiers()),
		)
		return false
	}

	if handlerError := executor.invokeHandler(executionContext, handler, task, document, taskLogger); handlerError != nil {
		taskLogger.Error(taskFailedMessageConstant,
			zap.String(eventLevelFieldNameConstant, string(EventLevelFailure)),
			zap.Error(handlerError),
		)
		return false
	}

	if executor.gitActions != nil {
		if gitError := executor.gitActions.Run(executionContext, task, document); gitError != nil {
			taskLogger.Error(gitActionsFailedMessageConstant,
				zap.String(eventLevelFieldNameConstant, string(EventLevelFailure)),
				zap.Error(gitError),
			)
			return false
		}
	}

	taskLogger.Info(taskSucceededMessageConstant,
		zap.String(eventLevelFieldNameConstant, string(EventLevelSuccess)),
	)
	return true
}

func (executor *TaskExecutor) invokeHandler(executionContext context.Context, handler Handler, task taskcfg.TaskDefinition, document *taskcfg.Document, taskLogger *zap.Logger) (handlerError error) {
	defer func() {
		if panicValue := recover(); panicValue != nil {
			taskLogger.Error(handlerPanicMessageConstant,
				zap.Any("panic", panicValue),
				zap.Stack("stack"),
			)
			handlerError = fmt.Errorf(handlerPanicErrorTemplateConstant, panicValue)
		}
	}()

	return handler.Run(executionContext, task.Params, document, taskLogger)
}
