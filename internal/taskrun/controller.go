package taskrun

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tyemirov/taskrun/internal/prompt"
	"github.com/tyemirov/taskrun/internal/taskcfg"
)

const (
	controllerLoggerMissingMessageConstant   = "run controller logger not configured"
	controllerExecutorMissingMessageConstant = "run controller task executor not configured"
	controllerPrompterMissingMessageConstant = "run controller confirmation prompter not configured"
	noTasksSelectedMessageConstant           = "no tasks selected; nothing to do"
	taskSkippedMessageConstant               = "task skipped at operator request"
	runAbortedMessageConstant                = "run aborted at operator request"
	runHaltedMessageConstant                 = "halting run after task failure"
	runFinishedMessageConstant               = "run finished"
	runHaltedErrorTemplateConstant           = "task %q failed; run halted"
	confirmationPromptTemplateConstant       = "Run task %q%s? [Y/n] "
	confirmationDescriptionTemplateConstant  = " (%s)"
	selectedTaskCountFieldNameConstant       = "selected_tasks"
	executedTaskCountFieldNameConstant       = "executed_tasks"
	skippedTaskCountFieldNameConstant        = "skipped_tasks"
)

// RunState identifies the controller's position in the run lifecycle.
type RunState string

// Run controller states.
const (
	RunStateIdle       RunState = "idle"
	RunStateSelecting  RunState = "selecting"
	RunStateConfirming RunState = "confirming"
	RunStateResolving  RunState = "resolving"
	RunStateExecuting  RunState = "executing"
	RunStateFinished   RunState = "finished"
	RunStateHalted     RunState = "halted"
)

// TaskResultStatus describes one task's outcome within a run.
type TaskResultStatus string

// Task result statuses.
const (
	TaskResultExecuted TaskResultStatus = "executed"
	TaskResultSkipped  TaskResultStatus = "skipped"
	TaskResultFailed   TaskResultStatus = "failed"
)

// TaskResult records one task's outcome in configuration order.
type TaskResult struct {
	TaskIdentifier string
	Status         TaskResultStatus
}

// RunOutcome is the ordered record of per-task results for a completed run.
type RunOutcome struct {
	Results           []TaskResult
	Halted            bool
	AbortedByOperator bool
}

// RunOptions carries the operator's per-run choices.
type RunOptions struct {
	// TaskIdentifiers restricts the run to the listed task ids when non-empty.
	TaskIdentifiers []string
	// AssumeYes bypasses every confirmation prompt.
	AssumeYes bool
}

// RunHaltedError reports the task whose failure halted the run.
type RunHaltedError struct {
	TaskIdentifier string
}

// Error describes the halt.
func (haltedError RunHaltedError) Error() string {
	return fmt.Sprintf(runHaltedErrorTemplateConstant, haltedError.TaskIdentifier)
}

var (
	// ErrControllerLoggerNotConfigured indicates the controller logger dependency was missing.
	ErrControllerLoggerNotConfigured = errors.New(controllerLoggerMissingMessageConstant)
	// ErrControllerExecutorNotConfigured indicates the task executor dependency was missing.
	ErrControllerExecutorNotConfigured = errors.New(controllerExecutorMissingMessageConstant)
	// ErrControllerPrompterNotConfigured indicates the confirmation prompter dependency was missing.
	ErrControllerPrompterNotConfigured = errors.New(controllerPrompterMissingMessageConstant)
)

// TaskRunExecutor executes a single resolved task and reports success.
type TaskRunExecutor interface {
	Execute(executionContext context.Context, task taskcfg.TaskDefinition, document *taskcfg.Document) bool
}

// RunController sequences selection, confirmation, placeholder resolution, and
// execution across the configured tasks, halting on the first failure. The
// sequencing is deliberately simple: strictly ordered, non-resumable, and
// never parallel.
type RunController struct {
	executor TaskRunExecutor
	prompter prompt.ConfirmationPrompter
	logger   *zap.Logger
	state    RunState
}

// NewRunController constructs a RunController with the provided collaborators.
func NewRunController(executor TaskRunExecutor, prompter prompt.ConfirmationPrompter, logger *zap.Logger) (*RunController, error) {
	if executor == nil {
		return nil, ErrControllerExecutorNotConfigured
	}
	if prompter == nil {
		return nil, ErrControllerPrompterNotConfigured
	}
	if logger == nil {
		return nil, ErrControllerLoggerNotConfigured
	}
	return &RunController{executor: executor, prompter: prompter, logger: logger, state: RunStateIdle}, nil
}

// State reports the controller's current lifecycle state.
func (controller *RunController) State() RunState {
	return controller.state
}

// Run drives the whole task sequence. A declined confirmation skips only that
// task; an abandoned prompt ends the run cleanly; a failed task halts the run
// with a RunHaltedError so the process can exit non-zero.
func (controller *RunController) Run(executionContext context.Context, document *taskcfg.Document, options RunOptions) (RunOutcome, error) {
	controller.state = RunStateSelecting
	selectedTasks := SelectTasks(document.Tasks, options.TaskIdentifiers)
	if len(selectedTasks) == 0 {
		controller.state = RunStateFinished
		controller.logger.Info(noTasksSelectedMessageConstant)
		return RunOutcome{}, nil
	}

	outcome := RunOutcome{Results: make([]TaskResult, 0, len(selectedTasks))}

	for _, task := range selectedTasks {
		if !options.AssumeYes {
			controller.state = RunStateConfirming
			confirmation, confirmationError := controller.prompter.Confirm(buildConfirmationPrompt(task))
			if confirmationError != nil {
				controller.state = RunStateFinished
				controller.logger.Info(runAbortedMessageConstant, zap.String(taskIdentifierFieldNameConstant, task.Identifier))
				outcome.AbortedByOperator = true
				return outcome, nil
			}
			if !confirmation.Confirmed {
				controller.logger.Info(taskSkippedMessageConstant, zap.String(taskIdentifierFieldNameConstant, task.Identifier))
				outcome.Results = append(outcome.Results, TaskResult{TaskIdentifier: task.Identifier, Status: TaskResultSkipped})
				continue
			}
		}

		controller.state = RunStateResolving
		resolvedTask := task
		resolvedTask.Params = taskcfg.ResolvePlaceholders(task.Params, document.Root())

		controller.state = RunStateExecuting
		if executed := controller.executor.Execute(executionContext, resolvedTask, document); !executed {
			controller.state = RunStateHalted
			outcome.Results = append(outcome.Results, TaskResult{TaskIdentifier: task.Identifier, Status: TaskResultFailed})
			outcome.Halted = true
			controller.logger.Error(runHaltedMessageConstant, zap.String(taskIdentifierFieldNameConstant, task.Identifier))
			return outcome, RunHaltedError{TaskIdentifier: task.Identifier}
		}

		outcome.Results = append(outcome.Results, TaskResult{TaskIdentifier: task.Identifier, Status: TaskResultExecuted})
	}

	controller.state = RunStateFinished
	controller.logger.Info(runFinishedMessageConstant,
		zap.Int(selectedTaskCountFieldNameConstant, len(selectedTasks)),
		zap.Int(executedTaskCountFieldNameConstant, outcome.CountByStatus(TaskResultExecuted)),
		zap.Int(skippedTaskCountFieldNameConstant, outcome.CountByStatus(TaskResultSkipped)),
	)
	return outcome, nil
}

// CountByStatus tallies results carrying the provided status.
func (outcome RunOutcome) CountByStatus(status TaskResultStatus) int {
	count := 0
	for _, result := range outcome.Results {
		if result.Status == status {
			count++
		}
	}
	return count
}

func buildConfirmationPrompt(task taskcfg.TaskDefinition) string {
	descriptionSuffix := ""
	if len(task.Description) > 0 {
		descriptionSuffix = fmt.Sprintf(confirmationDescriptionTemplateConstant, task.Description)
	}
	return fmt.Sprintf(confirmationPromptTemplateConstant, task.Identifier, descriptionSuffix)
}
