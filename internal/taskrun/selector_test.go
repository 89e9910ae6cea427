package taskrun_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/taskrun/internal/taskcfg"
	"github.com/tyemirov/taskrun/internal/taskrun"
)

func TestParseTaskSelection(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty_input", input: "", expected: nil},
		{name: "single_identifier", input: "build", expected: []string{"build"}},
		{name: "multiple_identifiers", input: "build,deploy", expected: []string{"build", "deploy"}},
		{name: "whitespace_trimmed", input: " build , deploy ", expected: []string{"build", "deploy"}},
		{name: "empty_segments_dropped", input: "build,,deploy,", expected: []string{"build", "deploy"}},
		{name: "only_separators", input: ",, ,", expected: nil},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, taskrun.ParseTaskSelection(testCase.input))
		})
	}
}

func TestSelectTasks(testInstance *testing.T) {
	disabled := false
	definitions := []taskcfg.TaskDefinition{
		{Identifier: "first"},
		{Identifier: "second", Enabled: &disabled},
		{Identifier: "third"},
		{Identifier: "fourth"},
	}

	testCases := []struct {
		name                 string
		requestedIdentifiers []string
		expectedIdentifiers  []string
	}{
		{
			name:                 "no_selection_keeps_enabled_in_order",
			requestedIdentifiers: nil,
			expectedIdentifiers:  []string{"first", "third", "fourth"},
		},
		{
			name:                 "subset_preserves_configuration_order",
			requestedIdentifiers: []string{"fourth", "first"},
			expectedIdentifiers:  []string{"first", "fourth"},
		},
		{
			name:                 "disabled_tasks_excluded_even_when_requested",
			requestedIdentifiers: []string{"second", "third"},
			expectedIdentifiers:  []string{"third"},
		},
		{
			name:                 "unknown_identifiers_ignored",
			requestedIdentifiers: []string{"missing"},
			expectedIdentifiers:  []string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			selected := taskrun.SelectTasks(definitions, testCase.requestedIdentifiers)

			selectedIdentifiers := make([]string, 0, len(selected))
			for _, definition := range selected {
				selectedIdentifiers = append(selectedIdentifiers, definition.Identifier)
			}
			require.Equal(testInstance, testCase.expectedIdentifiers, selectedIdentifiers)
		})
	}
}
