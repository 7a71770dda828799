package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

/**
 * Test partial writes are joined into lines
 * @param {*testing.T} t - Testing framework instance
 */
func TestBufferSinkLines(t *testing.T) {
	s := NewBufferSink(0)
	s.Write([]byte("[INFO] Scan"))
	s.Write([]byte("ning\r\n[INFO] BUILD"))
	lines, next := s.Lines(0)
	assert.Equal(t, []string{"[INFO] Scanning"}, lines)
	assert.Equal(t, 1, next)

	s.Write([]byte(" SUCCESS\n"))
	s.AppendLine("done")
	lines, next = s.Lines(next)
	assert.Equal(t, []string{"[INFO] BUILD SUCCESS", "done"}, lines)
	assert.Equal(t, 3, next)

	lines, next = s.Lines(next)
	assert.Nil(t, lines)
	assert.Equal(t, 3, next)
	assert.Equal(t, "[INFO] Scanning\n[INFO] BUILD SUCCESS\ndone", s.Text())
}

func TestBufferSinkRetention(t *testing.T) {
	s := NewBufferSink(2)
	for _, l := range []string{"a", "b", "c"} {
		s.AppendLine(l)
	}
	lines, next := s.Lines(0)
	assert.Equal(t, []string{"b", "c"}, lines)
	assert.Equal(t, 3, next)

	s.Reveal()
	s.Reveal()
	assert.Equal(t, 2, s.Revealed())
}

/**
 * Property: polling with the returned offset never loses or repeats a line
 * @param {*testing.T} t - Testing framework instance
 */
func TestBufferSinkPolling(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := NewBufferSink(0)
		var want, got []string
		next := 0
		for _, batch := range rapid.SliceOf(rapid.SliceOf(rapid.StringMatching(`[a-z]{0,4}`))).Draw(rt, "batches") {
			for _, l := range batch {
				s.AppendLine(l)
				want = append(want, l)
			}
			var lines []string
			lines, next = s.Lines(next)
			got = append(got, lines...)
		}
		if strings.Join(got, "\n") != strings.Join(want, "\n") || len(got) != len(want) {
			rt.Fatalf("polled %q, want %q", got, want)
		}
	})
}

func TestMultiSinkAndNotifiers(t *testing.T) {
	var console bytes.Buffer
	buffer := NewBufferSink(0)
	sink := MultiSink{NewConsoleSink(&console), buffer}
	sink.AppendLine("Starting Tomcat in debug mode...")
	sink.Reveal()

	(&SinkNotifier{Sink: sink}).Notify(LevelWarn, "Tomcat is already running")
	assert.Equal(t, "Starting Tomcat in debug mode...\n[warn] Tomcat is already running\n", console.String())
	assert.Equal(t, 1, buffer.Revealed())

	var stderr bytes.Buffer
	NewConsoleNotifier(&stderr).Notify(LevelError, "Failed to compile classes")
	assert.Equal(t, "[error] Failed to compile classes\n", stderr.String())

	rec := &Recorder{}
	rec.Notify(LevelInfo, "Tomcat stopped")
	assert.Equal(t, []Notification{{Level: LevelInfo, Message: "Tomcat stopped"}}, rec.All())
}
