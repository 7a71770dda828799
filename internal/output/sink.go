// Package output holds the append-only output stream and the summary notifier that every
// component reports through.
package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"tomcat-devloop/internal/logger"
)

// Sink is an append-only byte/line stream. Write must not block for long.
type Sink interface {
	io.Writer
	AppendLine(line string)
	Reveal()
}

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notifier receives exactly one summary per operation.
type Notifier interface {
	Notify(level Level, message string)
}

// ConsoleSink writes straight to a terminal stream.
type ConsoleSink struct {
	w  io.Writer
	mu sync.Mutex
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *ConsoleSink) AppendLine(line string) {
	s.Write([]byte(line + "\n"))
}

// Reveal is a no-op: a terminal is always in view.
func (s *ConsoleSink) Reveal() {}

/**
 * BufferSink keeps the most recent output lines in memory
 * @description
 * - Lines are numbered from 0 for the lifetime of the sink so readers can poll with an offset
 * - Partial lines are held until their newline arrives
 * - Once more than max lines exist, the oldest are dropped
 */
type BufferSink struct {
	mu       sync.Mutex
	max      int
	lines    []string
	first    int // number of the oldest retained line
	partial  bytes.Buffer
	revealed int
}

func NewBufferSink(max int) *BufferSink {
	if max <= 0 {
		max = 10000
	}
	return &BufferSink{max: max}
}

func (s *BufferSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partial.Write(p)
	for {
		data := s.partial.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		s.push(strings.TrimRight(string(data[:i]), "\r"))
		s.partial.Next(i + 1)
	}
	return len(p), nil
}

func (s *BufferSink) push(line string) {
	s.lines = append(s.lines, line)
	if over := len(s.lines) - s.max; over > 0 {
		s.lines = append([]string(nil), s.lines[over:]...)
		s.first += over
	}
}

func (s *BufferSink) AppendLine(line string) {
	s.Write([]byte(line + "\n"))
}

func (s *BufferSink) Reveal() {
	s.mu.Lock()
	s.revealed++
	s.mu.Unlock()
}

// Revealed reports how many times Reveal was called.
func (s *BufferSink) Revealed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}

/**
 * Lines returns retained lines numbered >= offset
 * @param {int} offset - First line number wanted
 * @returns {[]string} Lines
 * @returns {int} Offset to pass on the next call
 */
func (s *BufferSink) Lines(offset int) ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.first + len(s.lines)
	if offset < s.first {
		offset = s.first
	}
	if offset >= next {
		return nil, next
	}
	out := make([]string, next-offset)
	copy(out, s.lines[offset-s.first:])
	return out, next
}

// Text joins every retained line, mostly for tests.
func (s *BufferSink) Text() string {
	lines, _ := s.Lines(0)
	return strings.Join(lines, "\n")
}

// MultiSink fans out to several sinks.
type MultiSink []Sink

func (m MultiSink) Write(p []byte) (int, error) {
	for _, s := range m {
		s.Write(p)
	}
	return len(p), nil
}

func (m MultiSink) AppendLine(line string) {
	for _, s := range m {
		s.AppendLine(line)
	}
}

func (m MultiSink) Reveal() {
	for _, s := range m {
		s.Reveal()
	}
}

// ConsoleNotifier prints summaries to a terminal stream and the log.
type ConsoleNotifier struct {
	w io.Writer
}

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleNotifier{w: w}
}

func (n *ConsoleNotifier) Notify(level Level, message string) {
	logNotification(level, message)
	fmt.Fprintf(n.w, "[%s] %s\n", level, message)
}

// SinkNotifier records summaries as marked lines of a sink, used by the daemon.
type SinkNotifier struct {
	Sink Sink
}

func (n *SinkNotifier) Notify(level Level, message string) {
	logNotification(level, message)
	n.Sink.AppendLine(fmt.Sprintf("[%s] %s", level, message))
}

// Recorder keeps every notification, used in tests.
type Recorder struct {
	mu      sync.Mutex
	Entries []Notification
}

type Notification struct {
	Level   Level
	Message string
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, Notification{Level: level, Message: message})
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.Entries...)
}

func logNotification(level Level, message string) {
	switch level {
	case LevelError:
		logger.Error(message)
	case LevelWarn:
		logger.Warn(message)
	default:
		logger.Info(message)
	}
}
