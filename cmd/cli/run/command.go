// Package run wires the task execution command: it loads the task document,
// assembles the handler registry and git action pipeline, and drives the run
// controller.
package run

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/taskrun/internal/execshell"
	"github.com/tyemirov/taskrun/internal/gitactions"
	"github.com/tyemirov/taskrun/internal/handlers"
	"github.com/tyemirov/taskrun/internal/prompt"
	"github.com/tyemirov/taskrun/internal/taskcfg"
	"github.com/tyemirov/taskrun/internal/taskrun"
	"github.com/tyemirov/taskrun/internal/utils"
	flagutils "github.com/tyemirov/taskrun/internal/utils/flags"
)

const (
	commandUseConstant                    = "run [tasks-file]"
	commandShortDescriptionConstant       = "Execute the tasks defined in a task configuration file"
	commandLongDescriptionConstant        = "run loads a YAML/JSON task configuration, resolves ${dotted.path} placeholders against it, and executes each selected task in configuration order. Each task asks for confirmation unless --yes is provided; the first failing task halts the run."
	commandExampleConstant                = "taskrun run ./tasks.yaml\n  taskrun run ./tasks.yaml --tasks build,deploy --yes"
	tasksFlagNameConstant                 = "tasks"
	tasksFlagUsageConstant                = "Comma-separated task identifiers to run (default: every enabled task)."
	assumeYesFlagNameConstant             = "yes"
	tasksFilePathRequiredMessageConstant  = "task configuration path required; provide a positional argument or configure tasks_file"
	loadDocumentErrorTemplateConstant     = "unable to load task configuration: %w"
	defaultTasksFileNameConstant          = "tasks.yaml"
	summaryOutputTemplateConstant         = "%s\n"
	registerHandlersErrorTemplateConstant = "unable to register built-in handlers: %w"
)

// LoggerProvider supplies the structured logger shared across the command.
type LoggerProvider func() *zap.Logger

// CommandConfiguration captures the run command defaults sourced from the
// application configuration file.
type CommandConfiguration struct {
	TasksFile string `mapstructure:"tasks_file"`
	AssumeYes bool   `mapstructure:"assume_yes"`
}

// DefaultCommandConfiguration returns the built-in run command defaults.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{TasksFile: defaultTasksFileNameConstant}
}

// Sanitize normalizes configured values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	configuration.TasksFile = strings.TrimSpace(configuration.TasksFile)
	return configuration
}

// CommandBuilder assembles the run command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	HandlerRegistry       *taskrun.HandlerRegistry
	GitExecutor           gitactions.GitCommandExecutor
	PrompterFactory       func(command *cobra.Command) prompt.ConfirmationPrompter
	// LoggerSettingsProvider rebuilds the logger when the task document
	// carries its own settings section; a nil return keeps the current logger.
	LoggerSettingsProvider func(logLevel string, logFormat string) *zap.Logger
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		Example:       commandExampleConstant,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          builder.run,
	}

	command.Flags().String(tasksFlagNameConstant, "", tasksFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	tasksFilePath := configuration.TasksFile
	if len(arguments) > 0 {
		tasksFilePath = strings.TrimSpace(arguments[0])
	}
	if len(tasksFilePath) == 0 {
		return errors.New(tasksFilePathRequiredMessageConstant)
	}

	document, loadError := taskcfg.LoadDocument(tasksFilePath)
	if loadError != nil {
		return fmt.Errorf(loadDocumentErrorTemplateConstant, loadError)
	}

	if builder.LoggerSettingsProvider != nil {
		if overrideLogger := builder.LoggerSettingsProvider(document.Settings.LogLevel, document.Settings.LogFormat); overrideLogger != nil {
			logger = overrideLogger
		}
	}

	registry, registryError := builder.resolveRegistry()
	if registryError != nil {
		return registryError
	}

	gitPipeline, pipelineError := builder.resolveGitPipeline(logger)
	if pipelineError != nil {
		return pipelineError
	}

	taskExecutor, executorError := taskrun.NewTaskExecutor(registry, gitPipeline, logger)
	if executorError != nil {
		return executorError
	}

	controller, controllerError := taskrun.NewRunController(taskExecutor, builder.resolvePrompter(command), logger)
	if controllerError != nil {
		return controllerError
	}

	options, optionsError := builder.resolveRunOptions(command, configuration)
	if optionsError != nil {
		return optionsError
	}

	outcome, runError := controller.Run(command.Context(), document, options)
	if summaryLine := taskrun.RenderSummaryLine(outcome); len(summaryLine) > 0 {
		fmt.Fprintf(command.OutOrStdout(), summaryOutputTemplateConstant, summaryLine)
	}
	return runError
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider != nil {
		if logger := builder.LoggerProvider(); logger != nil {
			return logger
		}
	}
	return zap.NewNop()
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveRegistry() (*taskrun.HandlerRegistry, error) {
	if builder.HandlerRegistry != nil {
		return builder.HandlerRegistry, nil
	}

	registry := taskrun.NewHandlerRegistry()
	if registrationError := handlers.RegisterBuiltinHandlers(registry); registrationError != nil {
		return nil, fmt.Errorf(registerHandlersErrorTemplateConstant, registrationError)
	}
	return registry, nil
}

func (builder *CommandBuilder) resolveGitPipeline(logger *zap.Logger) (*gitactions.Pipeline, error) {
	gitExecutor := builder.GitExecutor
	if gitExecutor == nil {
		shellExecutor, shellExecutorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
		if shellExecutorError != nil {
			return nil, shellExecutorError
		}
		gitExecutor = shellExecutor
	}
	return gitactions.NewPipeline(gitExecutor, logger)
}

func (builder *CommandBuilder) resolvePrompter(command *cobra.Command) prompt.ConfirmationPrompter {
	if builder.PrompterFactory != nil {
		if prompter := builder.PrompterFactory(command); prompter != nil {
			return prompter
		}
	}
	return prompt.NewIOConfirmationPrompter(command.InOrStdin(), command.OutOrStdout())
}

// resolveRunOptions layers the assume-yes sources: configured default, then
// root execution flags captured in the command context, then the flag itself.
func (builder *CommandBuilder) resolveRunOptions(command *cobra.Command, configuration CommandConfiguration) (taskrun.RunOptions, error) {
	options := taskrun.RunOptions{AssumeYes: configuration.AssumeYes}

	selectionValue, _, selectionError := flagutils.StringFlag(command, tasksFlagNameConstant)
	if selectionError != nil && !errors.Is(selectionError, flagutils.ErrFlagNotDefined) {
		return taskrun.RunOptions{}, selectionError
	}
	options.TaskIdentifiers = taskrun.ParseTaskSelection(selectionValue)

	contextAccessor := utils.NewCommandContextAccessor()
	if executionFlags, executionFlagsAvailable := contextAccessor.ExecutionFlags(command.Context()); executionFlagsAvailable && executionFlags.AssumeYesSet {
		options.AssumeYes = executionFlags.AssumeYes
	}

	assumeYesValue, assumeYesChanged, assumeYesError := flagutils.BoolFlag(command, assumeYesFlagNameConstant)
	if assumeYesError != nil && !errors.Is(assumeYesError, flagutils.ErrFlagNotDefined) {
		return taskrun.RunOptions{}, assumeYesError
	}
	if assumeYesChanged {
		options.AssumeYes = assumeYesValue
	}

	return options, nil
}
