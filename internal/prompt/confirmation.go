package prompt

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	negativeShortResponseConstant = "n"
	negativeLongResponseConstant  = "no"
	promptAbortedMessageConstant  = "confirmation prompt aborted"
)

// ErrPromptAborted indicates the operator abandoned the prompt rather than answering it.
var ErrPromptAborted = errors.New(promptAbortedMessageConstant)

// ConfirmationResult captures the outcome of a user confirmation prompt.
type ConfirmationResult struct {
	Confirmed bool
}

// ConfirmationPrompter collects user confirmations prior to executing tasks.
type ConfirmationPrompter interface {
	Confirm(prompt string) (ConfirmationResult, error)
}

// IOConfirmationPrompter reads confirmation responses from an io.Reader.
type IOConfirmationPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOConfirmationPrompter constructs a prompter from the provided reader and writer.
func NewIOConfirmationPrompter(input io.Reader, output io.Writer) *IOConfirmationPrompter {
	return &IOConfirmationPrompter{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt and interprets the response. The default answer is
// yes: an empty line confirms, only an explicit negative declines. A closed or
// failing input stream means the operator abandoned the prompt itself, which
// surfaces as ErrPromptAborted.
func (prompter *IOConfirmationPrompter) Confirm(prompt string) (ConfirmationResult, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return ConfirmationResult{}, ErrPromptAborted
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && (readError != io.EOF || len(strings.TrimSpace(response)) == 0) {
		return ConfirmationResult{}, ErrPromptAborted
	}

	normalizedResponse := strings.TrimSpace(strings.ToLower(response))
	switch normalizedResponse {
	case negativeShortResponseConstant, negativeLongResponseConstant:
		return ConfirmationResult{}, nil
	default:
		return ConfirmationResult{Confirmed: true}, nil
	}
}
