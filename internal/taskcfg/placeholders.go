package taskcfg

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

const placeholderPathSeparatorConstant = "."

// placeholderPattern matches ${dotted.path} references lazily up to the first closing brace.
var placeholderPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// ResolvePlaceholders substitutes ${dotted.path} references in value against the
// configuration tree. Strings are interpolated, sequences and mappings are
// resolved recursively, and every other type passes through unchanged. A
// reference whose path cannot be fully walked is left textually intact so
// unresolved references stay visible. The input is never mutated; resolved
// sequences and mappings are fresh copies.
//
// The configuration tree is assumed to be exactly that, a tree: a document
// parsed from YAML or JSON cannot contain self-references, so no cycle
// detection is performed.
func ResolvePlaceholders(value any, configurationRoot map[string]any) any {
	switch typedValue := value.(type) {
	case string:
		return resolvePlaceholderString(typedValue, configurationRoot)
	case []any:
		resolvedSequence := make([]any, len(typedValue))
		for elementIndex, element := range typedValue {
			resolvedSequence[elementIndex] = ResolvePlaceholders(element, configurationRoot)
		}
		return resolvedSequence
	case map[string]any:
		resolvedMapping := make(map[string]any, len(typedValue))
		for key, element := range typedValue {
			resolvedMapping[key] = ResolvePlaceholders(element, configurationRoot)
		}
		return resolvedMapping
	default:
		return value
	}
}

func resolvePlaceholderString(candidate string, configurationRoot map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(candidate, func(placeholderText string) string {
		dottedPath := placeholderText[2 : len(placeholderText)-1]
		resolvedValue, found := lookupPath(dottedPath, configurationRoot)
		if !found {
			return placeholderText
		}
		return stringifyValue(resolvedValue)
	})
}

func lookupPath(dottedPath string, configurationRoot map[string]any) (any, bool) {
	segments := strings.Split(dottedPath, placeholderPathSeparatorConstant)

	var current any = configurationRoot
	for _, segment := range segments {
		mapping, isMapping := current.(map[string]any)
		if !isMapping {
			return nil, false
		}
		next, exists := mapping[segment]
		if !exists {
			return nil, false
		}
		current = next
	}

	if current == nil {
		return nil, false
	}
	return current, true
}

func stringifyValue(value any) string {
	switch typedValue := value.(type) {
	case string:
		return typedValue
	case bool:
		return strconv.FormatBool(typedValue)
	case int:
		return strconv.Itoa(typedValue)
	case int64:
		return strconv.FormatInt(typedValue, 10)
	case float64:
		return strconv.FormatFloat(typedValue, 'f', -1, 64)
	}

	reflectedValue := reflect.ValueOf(value)
	switch reflectedValue.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(reflectedValue.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(reflectedValue.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(reflectedValue.Float(), 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}
