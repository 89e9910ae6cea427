package taskcfg

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

const (
	documentPathRequiredMessageConstant      = "task document path must be provided"
	documentLoadErrorTemplateConstant        = "failed to load task document: %w"
	documentParseErrorTemplateConstant       = "failed to parse task document: %w"
	documentDecodeErrorTemplateConstant      = "failed to decode task document: %w"
	taskIdentifierMissingMessageConstant     = "task definition missing id"
	taskIdentifierInvalidTemplateConstant    = "task id %q must contain only letters, digits, dots, underscores, and hyphens"
	duplicateTaskIdentifierTemplateConstant  = "duplicate task id %q"
	commitDescriptionMissingTemplateConstant = "task %q requests commit with the task description but no description is configured"
	projectBasePathConfigurationKeyConstant  = "base_path"
	mapstructureDecoderTagNameConstant       = "mapstructure"
)

var taskIdentifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Document is the immutable configuration document shared across a run.
// The raw tree is retained so placeholder lookups observe every key exactly
// as written in the source file.
type Document struct {
	Project  map[string]any
	Settings SettingsConfiguration
	Tasks    []TaskDefinition

	rawTree map[string]any
}

// SettingsConfiguration carries the logging configuration from the document.
type SettingsConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// TaskDefinition describes one configured unit of work.
type TaskDefinition struct {
	Identifier  string            `mapstructure:"id"`
	Description string            `mapstructure:"description"`
	Enabled     *bool             `mapstructure:"enabled"`
	Params      any               `mapstructure:"params"`
	Git         *GitConfiguration `mapstructure:"git"`
}

// IsEnabled reports whether the task participates in runs; tasks are enabled unless explicitly disabled.
func (definition TaskDefinition) IsEnabled() bool {
	if definition.Enabled == nil {
		return true
	}
	return *definition.Enabled
}

// GitConfiguration describes the optional git actions attached to a task.
type GitConfiguration struct {
	Add    any  `mapstructure:"add"`
	Commit any  `mapstructure:"commit"`
	Push   bool `mapstructure:"push"`
}

// AddPaths normalizes the add step into a path list; an empty result means the step is absent.
func (configuration GitConfiguration) AddPaths() []string {
	switch value := configuration.Add.(type) {
	case string:
		trimmed := strings.TrimSpace(value)
		if len(trimmed) == 0 {
			return nil
		}
		return []string{trimmed}
	case []string:
		return normalizePathList(value)
	case []any:
		paths := make([]string, 0, len(value))
		for _, entry := range value {
			text, isString := entry.(string)
			if !isString {
				continue
			}
			paths = append(paths, text)
		}
		return normalizePathList(paths)
	default:
		return nil
	}
}

// MissingCommitDescriptionError indicates commit:true was configured without a task description.
type MissingCommitDescriptionError struct {
	TaskIdentifier string
}

// Error describes the configuration mistake.
func (missingError MissingCommitDescriptionError) Error() string {
	return fmt.Sprintf(commitDescriptionMissingTemplateConstant, missingError.TaskIdentifier)
}

// CommitMessage resolves the commit step; the boolean reports whether a commit was requested.
// A literal `true` commit value selects the task description and fails when none is configured.
func (configuration GitConfiguration) CommitMessage(taskIdentifier string, taskDescription string) (string, bool, error) {
	switch value := configuration.Commit.(type) {
	case nil:
		return "", false, nil
	case string:
		trimmed := strings.TrimSpace(value)
		if len(trimmed) == 0 {
			return "", false, nil
		}
		return trimmed, true, nil
	case bool:
		if !value {
			return "", false, nil
		}
		trimmedDescription := strings.TrimSpace(taskDescription)
		if len(trimmedDescription) == 0 {
			return "", false, MissingCommitDescriptionError{TaskIdentifier: taskIdentifier}
		}
		return trimmedDescription, true, nil
	default:
		return "", false, nil
	}
}

func normalizePathList(candidates []string) []string {
	paths := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		paths = append(paths, trimmed)
	}
	if len(paths) == 0 {
		return nil
	}
	return paths
}

// Root exposes the raw configuration tree for placeholder resolution.
func (document *Document) Root() map[string]any {
	if document == nil {
		return nil
	}
	return document.rawTree
}

// ProjectBasePath returns the configured project base path when present.
func (document *Document) ProjectBasePath() string {
	if document == nil {
		return ""
	}
	rawValue, exists := document.Project[projectBasePathConfigurationKeyConstant]
	if !exists {
		return ""
	}
	basePath, isString := rawValue.(string)
	if !isString {
		return ""
	}
	return strings.TrimSpace(basePath)
}

type documentSections struct {
	Project  map[string]any        `mapstructure:"project"`
	Settings SettingsConfiguration `mapstructure:"settings"`
	Tasks    []TaskDefinition      `mapstructure:"tasks"`
}

// LoadDocument reads and validates the task document from disk. YAML and JSON sources are accepted.
func LoadDocument(filePath string) (*Document, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return nil, errors.New(documentPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return nil, fmt.Errorf(documentLoadErrorTemplateConstant, readError)
	}

	return ParseDocument(contentBytes)
}

// ParseDocument parses and validates task document content.
func ParseDocument(contentBytes []byte) (*Document, error) {
	rawTree := map[string]any{}
	if unmarshalError := yaml.Unmarshal(contentBytes, &rawTree); unmarshalError != nil {
		return nil, fmt.Errorf(documentParseErrorTemplateConstant, unmarshalError)
	}

	sections := documentSections{}
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          mapstructureDecoderTagNameConstant,
		Result:           &sections,
		WeaklyTypedInput: true,
	})
	if decoderError != nil {
		return nil, decoderError
	}
	if decodeError := decoder.Decode(rawTree); decodeError != nil {
		return nil, fmt.Errorf(documentDecodeErrorTemplateConstant, decodeError)
	}

	if validationError := validateTaskIdentifiers(sections.Tasks); validationError != nil {
		return nil, validationError
	}

	document := &Document{
		Project:  sections.Project,
		Settings: sections.Settings,
		Tasks:    sections.Tasks,
		rawTree:  rawTree,
	}
	return document, nil
}

func validateTaskIdentifiers(definitions []TaskDefinition) error {
	seenIdentifiers := make(map[string]struct{}, len(definitions))
	for definitionIndex := range definitions {
		identifier := strings.TrimSpace(definitions[definitionIndex].Identifier)
		if len(identifier) == 0 {
			return errors.New(taskIdentifierMissingMessageConstant)
		}
		if !taskIdentifierPattern.MatchString(identifier) {
			return fmt.Errorf(taskIdentifierInvalidTemplateConstant, identifier)
		}
		if _, exists := seenIdentifiers[identifier]; exists {
			return fmt.Errorf(duplicateTaskIdentifierTemplateConstant, identifier)
		}
		seenIdentifiers[identifier] = struct{}{}
		definitions[definitionIndex].Identifier = identifier
	}
	return nil
}
