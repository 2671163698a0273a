package input

import (
	"strings"
)

// Queue answers prompts from a fixed list, in order
type Queue struct {
	answers []string
	prompts []string
}

// NewQueue creates a queue holding answers
func NewQueue(answers ...string) *Queue {
	return &Queue{answers: append([]string(nil), answers...)}
}

// ParseScript builds a queue with one answer per line of text.
// Lines starting with '#' are comments; a final newline does not add an
// empty answer.
func ParseScript(text string) *Queue {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return NewQueue()
	}

	var answers []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		answers = append(answers, line)
	}
	return NewQueue(answers...)
}

// ReadInput implements Provider
func (q *Queue) ReadInput(prompt string) (string, error) {
	q.prompts = append(q.prompts, prompt)
	if len(q.answers) == 0 {
		return "", ErrExhausted
	}
	answer := q.answers[0]
	q.answers = q.answers[1:]
	return answer, nil
}

// Prompts returns every prompt shown so far
func (q *Queue) Prompts() []string {
	return q.prompts
}

// Remaining returns the number of unused answers
func (q *Queue) Remaining() int {
	return len(q.answers)
}
