package input

import (
	"bufio"
	"io"
	"strings"
)

// Reader reads answers from a plain stream such as a pipe.
// It is the fallback when stdin is not a terminal.
type Reader struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewReader reads answers from r and writes prompts to out; out may be nil
func NewReader(r io.Reader, out io.Writer) *Reader {
	return &Reader{
		reader: bufio.NewReader(r),
		out:    out,
	}
}

// ReadInput implements Provider. A last line without a newline is still
// returned; io.EOF is reported only when nothing was read.
func (r *Reader) ReadInput(prompt string) (string, error) {
	if r.out != nil && prompt != "" {
		if _, err := io.WriteString(r.out, prompt); err != nil {
			return "", err
		}
	}

	line, err := r.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
