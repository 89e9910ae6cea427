package gitactions

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/taskrun/internal/execshell"
	"github.com/tyemirov/taskrun/internal/taskcfg"
)

const (
	gitAddSubcommandConstant             = "add"
	gitCommitSubcommandConstant          = "commit"
	gitCommitMessageFlagConstant         = "-m"
	gitPushSubcommandConstant            = "push"
	executorNotConfiguredMessageConstant = "git executor not configured"
	loggerNotConfiguredMessageConstant   = "git pipeline logger not configured"
	stepCompletedMessageConstant         = "git step completed"
	stepFieldNameConstant                = "step"
	standardOutputFieldNameConstant      = "stdout"
	workingDirectoryFieldNameConstant    = "working_directory"
	gitActionErrorTemplateConstant       = "git %s action failed"
	gitActionErrorWithCauseConstant      = "git %s action failed: %s"
	escapedQuoteReplacementConstant      = "\\\""
	doubleQuoteConstant                  = "\""
)

// GitStepName identifies one ordered step of the pipeline.
type GitStepName string

// Pipeline steps in execution order.
const (
	GitStepAdd    GitStepName = GitStepName(gitAddSubcommandConstant)
	GitStepCommit GitStepName = GitStepName(gitCommitSubcommandConstant)
	GitStepPush   GitStepName = GitStepName(gitPushSubcommandConstant)
)

// GitCommandExecutor exposes the subset of execshell functionality required by the pipeline.
type GitCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

var (
	// ErrExecutorNotConfigured indicates the pipeline was constructed without a git executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrLoggerNotConfigured indicates the pipeline was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
)

// GitActionError summarizes a failed pipeline step for the task boundary.
type GitActionError struct {
	Step  GitStepName
	Cause error
}

// Error describes the step failure.
func (actionError GitActionError) Error() string {
	if actionError.Cause == nil {
		return fmt.Sprintf(gitActionErrorTemplateConstant, actionError.Step)
	}
	return fmt.Sprintf(gitActionErrorWithCauseConstant, actionError.Step, actionError.Cause)
}

// Unwrap exposes the underlying error.
func (actionError GitActionError) Unwrap() error {
	return actionError.Cause
}

// Pipeline performs the ordered add, commit, and push actions for a task.
type Pipeline struct {
	executor GitCommandExecutor
	logger   *zap.Logger
}

// NewPipeline constructs a Pipeline from the provided executor and logger.
func NewPipeline(executor GitCommandExecutor, logger *zap.Logger) (*Pipeline, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &Pipeline{executor: executor, logger: logger}, nil
}

// Run executes the git actions configured on the task in the fixed order
// add, commit, push. Absent steps are skipped, and the first failing step
// aborts the remainder. Commit configured as `true` reuses the task
// description and fails before any subprocess when the description is empty.
func (pipeline *Pipeline) Run(executionContext context.Context, task taskcfg.TaskDefinition, document *taskcfg.Document) error {
	if task.Git == nil {
		return nil
	}

	workingDirectory, workingDirectoryError := pipeline.resolveWorkingDirectory(document)
	if workingDirectoryError != nil {
		return workingDirectoryError
	}

	commitMessage, commitRequested, commitError := task.Git.CommitMessage(task.Identifier, task.Description)
	if commitError != nil {
		return commitError
	}

	if addPaths := task.Git.AddPaths(); len(addPaths) > 0 {
		addArguments := append([]string{gitAddSubcommandConstant}, addPaths...)
		if stepError := pipeline.executeStep(executionContext, GitStepAdd, addArguments, workingDirectory); stepError != nil {
			return stepError
		}
	}

	if commitRequested {
		commitArguments := []string{gitCommitSubcommandConstant, gitCommitMessageFlagConstant, escapeCommitMessage(commitMessage)}
		if stepError := pipeline.executeStep(executionContext, GitStepCommit, commitArguments, workingDirectory); stepError != nil {
			return stepError
		}
	}

	if task.Git.Push {
		if stepError := pipeline.executeStep(executionContext, GitStepPush, []string{gitPushSubcommandConstant}, workingDirectory); stepError != nil {
			return stepError
		}
	}

	return nil
}

func (pipeline *Pipeline) executeStep(executionContext context.Context, step GitStepName, arguments []string, workingDirectory string) error {
	executionResult, executionError := pipeline.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: workingDirectory,
	})
	if executionError != nil {
		return GitActionError{Step: step, Cause: executionError}
	}

	trimmedOutput := strings.TrimSpace(executionResult.StandardOutput)
	if len(trimmedOutput) > 0 {
		pipeline.logger.Info(stepCompletedMessageConstant,
			zap.String(stepFieldNameConstant, string(step)),
			zap.String(workingDirectoryFieldNameConstant, workingDirectory),
			zap.String(standardOutputFieldNameConstant, trimmedOutput),
		)
	}
	return nil
}

func (pipeline *Pipeline) resolveWorkingDirectory(document *taskcfg.Document) (string, error) {
	basePath := document.ProjectBasePath()
	if len(basePath) == 0 {
		return "", nil
	}
	return filepath.Abs(basePath)
}

// escapeCommitMessage escapes embedded double quotes for parity with the
// historical shell interpolation. Arguments travel as a discrete argv, so this
// is a compatibility measure, not a shell-injection defense.
func escapeCommitMessage(message string) string {
	return strings.ReplaceAll(message, doubleQuoteConstant, escapedQuoteReplacementConstant)
}
