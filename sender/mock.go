package sender

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MockPort implements Port without hardware. Every received line is recorded
// and answered with what Reply returns, empty answer means silence. It backs
// dry runs and tests.
type MockPort struct {
	mu      sync.Mutex
	pending bytes.Buffer
	lines   []string
	echo    io.Writer

	// Reply produces controller answer for received line, "ok" when nil.
	Reply func(line string) string

	r *io.PipeReader
	w *io.PipeWriter
}

// NewMockPort returns mock port copying received lines to echo if it is not nil.
func NewMockPort(echo io.Writer) *MockPort {
	r, w := io.Pipe()
	return &MockPort{echo: echo, r: r, w: w}
}

func (m *MockPort) Read(p []byte) (int, error) {
	return m.r.Read(p)
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	m.pending.Write(p)
	var received []string
	for {
		line, err := m.pending.ReadString('\n')
		if err != nil {
			// incomplete line, keep it for the next write
			m.pending.Reset()
			m.pending.WriteString(line)
			break
		}
		line = strings.TrimRight(line, "\r\n")
		m.lines = append(m.lines, line)
		received = append(received, line)
	}
	m.mu.Unlock()

	for _, line := range received {
		if m.echo != nil {
			fmt.Fprintln(m.echo, line)
		}
		answer := "ok"
		if m.Reply != nil {
			answer = m.Reply(line)
		}
		if len(answer) == 0 {
			continue
		}
		if _, err := io.WriteString(m.w, answer+"\n"); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (m *MockPort) Close() error {
	m.w.Close()
	return m.r.Close()
}

// Lines returns everything received so far.
func (m *MockPort) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}
