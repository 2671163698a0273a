package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleWriter writes log entries to the console (stdout/stderr)
type ConsoleWriter struct {
	mu     sync.Mutex
	writer *os.File
}

// NewConsoleWriterWithFile creates a new console writer with a specific file
func NewConsoleWriterWithFile(file *os.File) *ConsoleWriter {
	return &ConsoleWriter{writer: file}
}

// Write writes data to the console
func (w *ConsoleWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.writer.Write(data)
	return err
}

// Flush is a no-op; terminals are unbuffered
func (w *ConsoleWriter) Flush() error {
	return nil
}

// Close closes the console writer
func (w *ConsoleWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Don't close stdout/stderr as they are shared
	if w.writer == os.Stdout || w.writer == os.Stderr {
		return nil
	}
	return w.writer.Close()
}

// GetName returns the name of the writer
func (w *ConsoleWriter) GetName() string {
	return "console"
}

// FileWriter appends log entries to a file
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	filePath string
}

// NewFileWriter creates a new file writer
func NewFileWriter(filePath string) (*FileWriter, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: file, filePath: filePath}, nil
}

// Write writes data to the file
func (w *FileWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.file.Write(data)
	return err
}

// Flush flushes the file writer
func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the file writer
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// GetName returns the name of the writer
func (w *FileWriter) GetName() string {
	return fmt.Sprintf("file:%s", w.filePath)
}

// StreamWriter adapts any io.Writer, e.g. a bytes.Buffer in tests
type StreamWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStreamWriter wraps w
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// Write writes data to the underlying stream
func (w *StreamWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.w.Write(data)
	return err
}

// Flush does nothing
func (w *StreamWriter) Flush() error { return nil }

// Close closes the stream if it is closable
func (w *StreamWriter) Close() error {
	if c, ok := w.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// GetName returns the name of the writer
func (w *StreamWriter) GetName() string {
	return "stream"
}

// MultiWriter fans log entries out to several writers
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a new multi writer
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write writes data to all writers
func (w *MultiWriter) Write(data []byte) error {
	var errs []error
	for _, writer := range w.writers {
		if err := writer.Write(data); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multi writer errors: %v", errs)
	}
	return nil
}

// Flush flushes all writers
func (w *MultiWriter) Flush() error {
	var errs []error
	for _, writer := range w.writers {
		if err := writer.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multi writer flush errors: %v", errs)
	}
	return nil
}

// Close closes all writers
func (w *MultiWriter) Close() error {
	var errs []error
	for _, writer := range w.writers {
		if err := writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multi writer close errors: %v", errs)
	}
	return nil
}

// GetName returns the name of the writer
func (w *MultiWriter) GetName() string {
	return "multi"
}

// NullWriter is a writer that discards all log entries
type NullWriter struct{}

// NewNullWriter creates a new null writer
func NewNullWriter() *NullWriter {
	return &NullWriter{}
}

// Write discards the data
func (w *NullWriter) Write(data []byte) error { return nil }

// Flush does nothing
func (w *NullWriter) Flush() error { return nil }

// Close does nothing
func (w *NullWriter) Close() error { return nil }

// GetName returns the name of the writer
func (w *NullWriter) GetName() string {
	return "null"
}
