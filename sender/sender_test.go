package sender

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.bug.st/serial"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"gcpp/config"
	"gcpp/layers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestSender(t *testing.T, reply func(string) string) (*Sender, *MockPort) {
	t.Helper()
	port := NewMockPort(nil)
	port.Reply = reply
	s := New(port, time.Second, zaptest.NewLogger(t))
	t.Cleanup(func() { s.Close() })
	return s, port
}

func TestSend(t *testing.T) {
	s, port := newTestSender(t, nil)

	err := s.Send(context.Background(), []string{
		"; header",
		"",
		"G28 ; home",
		"  G1 X10 F600  ",
		"M104 S0",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if diff := cmp.Diff([]string{"G28", "G1 X10 F600", "M104 S0"}, port.Lines()); diff != "" {
		t.Errorf("sent lines mismatch (-want +got):\n%s", diff)
	}
	if s.Sent() != 3 {
		t.Errorf("Sent() = %d, want 3", s.Sent())
	}
}

func TestSend_SkipsControllerMessages(t *testing.T) {
	s, _ := newTestSender(t, func(line string) string {
		return "echo:busy: processing\nT:200.0 /200.0\nok T:200.0"
	})
	if err := s.Send(context.Background(), []string{"M109 S200"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestSend_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"error", "Error:Unknown command: \"M999\""},
		{"halted", "!! kill"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, port := newTestSender(t, func(line string) string {
				if line == "M999" {
					return tt.reply
				}
				return "ok"
			})
			err := s.Send(context.Background(), []string{"G28", "M999", "G1 X1"})
			if !errors.Is(err, ErrRejected) {
				t.Fatalf("Send() error = %v, want ErrRejected", err)
			}
			if !strings.Contains(err.Error(), "M999") {
				t.Errorf("error %q does not mention command", err)
			}
			if diff := cmp.Diff([]string{"G28", "M999"}, port.Lines()); diff != "" {
				t.Errorf("sent lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSend_Timeout(t *testing.T) {
	port := NewMockPort(nil)
	port.Reply = func(string) string { return "" }
	s := New(port, 20*time.Millisecond, zaptest.NewLogger(t))
	defer s.Close()

	if err := s.Send(context.Background(), []string{"G4 P1000"}); !errors.Is(err, ErrTimeout) {
		t.Errorf("Send() error = %v, want ErrTimeout", err)
	}
}

func TestSend_Canceled(t *testing.T) {
	s, port := newTestSender(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, []string{"G28"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Send() error = %v, want context.Canceled", err)
	}
	if len(port.Lines()) != 0 {
		t.Errorf("lines sent after cancellation: %v", port.Lines())
	}
}

func TestSend_PortClosed(t *testing.T) {
	port := NewMockPort(nil)
	port.Reply = func(string) string { return "" }
	s := New(port, time.Second, zaptest.NewLogger(t))

	// controller goes away while command is in flight
	port.w.Close()
	err := s.Send(context.Background(), []string{"G28"})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Send() error = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	// second close is a no-op
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestSendLayers(t *testing.T) {
	var echo bytes.Buffer
	port := NewMockPort(&echo)
	s := New(port, time.Second, zaptest.NewLogger(t))
	defer s.Close()

	ls := layers.New().SplitLayers([]string{
		";LAYER:0", "G1 X0 Y0 Z0.2", "G1 X10",
		";LAYER:1", "G1 Z0.4", "G1 X0",
	})
	if err := s.SendLayers(context.Background(), ls); err != nil {
		t.Fatalf("SendLayers() error = %v", err)
	}
	want := "G1 X0 Y0 Z0.2\nG1 X10\nG1 Z0.4\nG1 X0\n"
	if echo.String() != want {
		t.Errorf("echo = %q, want %q", echo.String(), want)
	}
}

func TestSendLayers_ReportsLayer(t *testing.T) {
	s, _ := newTestSender(t, func(line string) string {
		if line == "G1 Z0.4" {
			return "Error:Move out of range"
		}
		return "ok"
	})
	ls := layers.New().SplitLayers([]string{";LAYER:0", "G1 Z0.2", ";LAYER:1", "G1 Z0.4"})
	err := s.SendLayers(context.Background(), ls)
	if !errors.Is(err, ErrRejected) || !strings.HasPrefix(err.Error(), "layer 1:") {
		t.Errorf("SendLayers() error = %v", err)
	}
}

func TestMode(t *testing.T) {
	mode := Mode(&config.SenderConfig{Baud: 250000})
	want := &serial.Mode{BaudRate: 250000, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	if diff := cmp.Diff(want, mode); diff != "" {
		t.Errorf("Mode() mismatch (-want +got):\n%s", diff)
	}
}

func TestMockPort_PartialWrites(t *testing.T) {
	port := NewMockPort(nil)
	port.Reply = func(string) string { return "" }
	defer port.Close()

	for _, chunk := range []string{"G1 ", "X1\nG", "28\n"} {
		if _, err := port.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if diff := cmp.Diff([]string{"G1 X1", "G28"}, port.Lines()); diff != "" {
		t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
	}
}
