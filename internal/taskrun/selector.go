package taskrun

import (
	"strings"

	"github.com/tyemirov/taskrun/internal/taskcfg"
)

const taskSelectionSeparatorConstant = ","

// ParseTaskSelection splits a comma-separated task id list into normalized identifiers.
func ParseTaskSelection(rawSelection string) []string {
	segments := strings.Split(rawSelection, taskSelectionSeparatorConstant)
	identifiers := make([]string, 0, len(segments))
	for _, segment := range segments {
		trimmed := strings.TrimSpace(segment)
		if len(trimmed) == 0 {
			continue
		}
		identifiers = append(identifiers, trimmed)
	}
	if len(identifiers) == 0 {
		return nil
	}
	return identifiers
}

// SelectTasks filters the configured definitions down to the runnable set.
// Disabled tasks are excluded unconditionally. When requestedIdentifiers is
// non-empty only matching tasks are kept. Configuration order is always
// preserved regardless of the order identifiers were requested in.
func SelectTasks(definitions []taskcfg.TaskDefinition, requestedIdentifiers []string) []taskcfg.TaskDefinition {
	requestedSet := make(map[string]struct{}, len(requestedIdentifiers))
	for _, identifier := range requestedIdentifiers {
		trimmed := strings.TrimSpace(identifier)
		if len(trimmed) == 0 {
			continue
		}
		requestedSet[trimmed] = struct{}{}
	}

	selected := make([]taskcfg.TaskDefinition, 0, len(definitions))
	for _, definition := range definitions {
		if !definition.IsEnabled() {
			continue
		}
		if len(requestedSet) > 0 {
			if _, requested := requestedSet[definition.Identifier]; !requested {
				continue
			}
		}
		selected = append(selected, definition)
	}
	return selected
}
