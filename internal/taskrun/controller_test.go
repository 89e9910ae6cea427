package taskrun_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/taskrun/internal/prompt"
	"github.com/tyemirov/taskrun/internal/taskcfg"
	"github.com/tyemirov/taskrun/internal/taskrun"
)

const controllerDocumentContentConstant = `project:
  name: demo
tasks:
  - id: first
    description: First step
    params:
      target: "${project.name}"
  - id: second
  - id: third
`

type scriptedExecutor struct {
	failingIdentifiers map[string]bool
	executedTasks      []taskcfg.TaskDefinition
}

func (executor *scriptedExecutor) Execute(_ context.Context, task taskcfg.TaskDefinition, _ *taskcfg.Document) bool {
	executor.executedTasks = append(executor.executedTasks, task)
	return !executor.failingIdentifiers[task.Identifier]
}

type scriptedPrompter struct {
	responses    []prompt.ConfirmationResult
	abortErrors  []error
	prompts      []string
	responseNext int
}

func (prompter *scriptedPrompter) Confirm(promptText string) (prompt.ConfirmationResult, error) {
	prompter.prompts = append(prompter.prompts, promptText)
	index := prompter.responseNext
	prompter.responseNext++
	if index < len(prompter.abortErrors) && prompter.abortErrors[index] != nil {
		return prompt.ConfirmationResult{}, prompter.abortErrors[index]
	}
	if index < len(prompter.responses) {
		return prompter.responses[index], nil
	}
	return prompt.ConfirmationResult{Confirmed: true}, nil
}

func buildControllerDocument(testInstance *testing.T) *taskcfg.Document {
	testInstance.Helper()
	document, parseError := taskcfg.ParseDocument([]byte(controllerDocumentContentConstant))
	require.NoError(testInstance, parseError)
	return document
}

func executedIdentifiers(executor *scriptedExecutor) []string {
	identifiers := make([]string, 0, len(executor.executedTasks))
	for _, task := range executor.executedTasks {
		identifiers = append(identifiers, task.Identifier)
	}
	return identifiers
}

func TestNewRunControllerValidation(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	prompter := &scriptedPrompter{}

	_, missingExecutorError := taskrun.NewRunController(nil, prompter, zap.NewNop())
	require.ErrorIs(testInstance, missingExecutorError, taskrun.ErrControllerExecutorNotConfigured)

	_, missingPrompterError := taskrun.NewRunController(executor, nil, zap.NewNop())
	require.ErrorIs(testInstance, missingPrompterError, taskrun.ErrControllerPrompterNotConfigured)

	_, missingLoggerError := taskrun.NewRunController(executor, prompter, nil)
	require.ErrorIs(testInstance, missingLoggerError, taskrun.ErrControllerLoggerNotConfigured)

	controller, creationError := taskrun.NewRunController(executor, prompter, zap.NewNop())
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, taskrun.RunStateIdle, controller.State())
}

func TestRunHaltsOnFirstFailure(testInstance *testing.T) {
	executor := &scriptedExecutor{failingIdentifiers: map[string]bool{"second": true}}
	controller, creationError := taskrun.NewRunController(executor, &scriptedPrompter{}, zap.NewNop())
	require.NoError(testInstance, creationError)

	outcome, runError := controller.Run(context.Background(), buildControllerDocument(testInstance), taskrun.RunOptions{AssumeYes: true})
	require.Error(testInstance, runError)

	var haltedError taskrun.RunHaltedError
	require.ErrorAs(testInstance, runError, &haltedError)
	require.Equal(testInstance, "second", haltedError.TaskIdentifier)

	require.True(testInstance, outcome.Halted)
	require.Equal(testInstance, []string{"first", "second"}, executedIdentifiers(executor))
	require.Equal(testInstance, []taskrun.TaskResult{
		{TaskIdentifier: "first", Status: taskrun.TaskResultExecuted},
		{TaskIdentifier: "second", Status: taskrun.TaskResultFailed},
	}, outcome.Results)
	require.Equal(testInstance, taskrun.RunStateHalted, controller.State())
}

func TestRunAssumeYesBypassesPrompts(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	prompter := &scriptedPrompter{}
	controller, creationError := taskrun.NewRunController(executor, prompter, zap.NewNop())
	require.NoError(testInstance, creationError)

	outcome, runError := controller.Run(context.Background(), buildControllerDocument(testInstance), taskrun.RunOptions{AssumeYes: true})
	require.NoError(testInstance, runError)

	require.Empty(testInstance, prompter.prompts)
	require.Equal(testInstance, []string{"first", "second", "third"}, executedIdentifiers(executor))
	require.False(testInstance, outcome.Halted)
	require.False(testInstance, outcome.AbortedByOperator)
	require.Equal(testInstance, 3, outcome.CountByStatus(taskrun.TaskResultExecuted))
	require.Equal(testInstance, taskrun.RunStateFinished, controller.State())
}

func TestRunDeclinedConfirmationSkipsOnlyThatTask(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	prompter := &scriptedPrompter{responses: []prompt.ConfirmationResult{
		{Confirmed: true},
		{Confirmed: false},
		{Confirmed: true},
	}}
	controller, creationError := taskrun.NewRunController(executor, prompter, zap.NewNop())
	require.NoError(testInstance, creationError)

	outcome, runError := controller.Run(context.Background(), buildControllerDocument(testInstance), taskrun.RunOptions{})
	require.NoError(testInstance, runError)

	require.Equal(testInstance, []string{"first", "third"}, executedIdentifiers(executor))
	require.Equal(testInstance, []taskrun.TaskResult{
		{TaskIdentifier: "first", Status: taskrun.TaskResultExecuted},
		{TaskIdentifier: "second", Status: taskrun.TaskResultSkipped},
		{TaskIdentifier: "third", Status: taskrun.TaskResultExecuted},
	}, outcome.Results)
}

func TestRunPromptAbortEndsRunCleanly(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	prompter := &scriptedPrompter{
		responses:   []prompt.ConfirmationResult{{Confirmed: true}},
		abortErrors: []error{nil, prompt.ErrPromptAborted},
	}
	controller, creationError := taskrun.NewRunController(executor, prompter, zap.NewNop())
	require.NoError(testInstance, creationError)

	outcome, runError := controller.Run(context.Background(), buildControllerDocument(testInstance), taskrun.RunOptions{})
	require.NoError(testInstance, runError)

	require.True(testInstance, outcome.AbortedByOperator)
	require.False(testInstance, outcome.Halted)
	require.Equal(testInstance, []string{"first"}, executedIdentifiers(executor))
	require.Equal(testInstance, taskrun.RunStateFinished, controller.State())
}

func TestRunEmptySelectionFinishesWithoutWork(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	prompter := &scriptedPrompter{}
	controller, creationError := taskrun.NewRunController(executor, prompter, zap.NewNop())
	require.NoError(testInstance, creationError)

	outcome, runError := controller.Run(context.Background(), buildControllerDocument(testInstance), taskrun.RunOptions{
		TaskIdentifiers: []string{"absent"},
	})
	require.NoError(testInstance, runError)

	require.Empty(testInstance, outcome.Results)
	require.Empty(testInstance, prompter.prompts)
	require.Empty(testInstance, executor.executedTasks)
	require.Equal(testInstance, taskrun.RunStateFinished, controller.State())
}

func TestRunSelectionRestrictsTasks(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	controller, creationError := taskrun.NewRunController(executor, &scriptedPrompter{}, zap.NewNop())
	require.NoError(testInstance, creationError)

	_, runError := controller.Run(context.Background(), buildControllerDocument(testInstance), taskrun.RunOptions{
		TaskIdentifiers: []string{"third", "first"},
		AssumeYes:       true,
	})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, []string{"first", "third"}, executedIdentifiers(executor))
}

func TestRunResolvesPlaceholdersBeforeExecution(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	controller, creationError := taskrun.NewRunController(executor, &scriptedPrompter{}, zap.NewNop())
	require.NoError(testInstance, creationError)

	document := buildControllerDocument(testInstance)
	_, runError := controller.Run(context.Background(), document, taskrun.RunOptions{
		TaskIdentifiers: []string{"first"},
		AssumeYes:       true,
	})
	require.NoError(testInstance, runError)

	require.Len(testInstance, executor.executedTasks, 1)
	resolvedParameters, parametersAreMapping := executor.executedTasks[0].Params.(map[string]any)
	require.True(testInstance, parametersAreMapping)
	require.Equal(testInstance, "demo", resolvedParameters["target"])

	originalParameters, originalAreMapping := document.Tasks[0].Params.(map[string]any)
	require.True(testInstance, originalAreMapping)
	require.Equal(testInstance, "${project.name}", originalParameters["target"])
}

func TestRunConfirmationPromptText(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	prompter := &scriptedPrompter{}
	controller, creationError := taskrun.NewRunController(executor, prompter, zap.NewNop())
	require.NoError(testInstance, creationError)

	_, runError := controller.Run(context.Background(), buildControllerDocument(testInstance), taskrun.RunOptions{
		TaskIdentifiers: []string{"first", "second"},
	})
	require.NoError(testInstance, runError)

	require.Equal(testInstance, []string{
		"Run task \"first\" (First step)? [Y/n] ",
		"Run task \"second\"? [Y/n] ",
	}, prompter.prompts)
}
