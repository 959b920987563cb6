package sender

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"gcpp/config"
	"gcpp/gcode"
	"gcpp/layers"
)

var (
	// ErrTimeout is returned when controller does not acknowledge command in time.
	ErrTimeout = errors.New("acknowledgement timeout")
	// ErrRejected is returned when controller reports an error.
	ErrRejected = errors.New("command rejected")
	// ErrClosed is returned when port is closed while waiting for an answer.
	ErrClosed = errors.New("port closed")
)

// Sender writes commands one at a time and waits for "ok" after each.
type Sender struct {
	port    Port
	timeout time.Duration
	log     *zap.Logger

	replies chan string
	done    chan struct{}
	once    sync.Once
	sent    int
}

// Open opens configured serial port and returns sender on top of it.
func Open(conf *config.SenderConfig, log *zap.Logger) (*Sender, error) {
	port, err := OpenPort(conf)
	if err != nil {
		return nil, err
	}
	return New(port, conf.AckTimeout, log), nil
}

// New starts reading answers from port. Sender owns the port and closes it.
func New(port Port, timeout time.Duration, log *zap.Logger) *Sender {
	s := &Sender{
		port:    port,
		timeout: timeout,
		log:     log,
		replies: make(chan string, 16),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Sender) readLoop() {
	defer close(s.replies)

	sc := bufio.NewScanner(s.port)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if len(line) == 0 {
			continue
		}
		select {
		case s.replies <- line:
		case <-s.done:
			return
		}
	}
}

// Close stops reading and closes the port.
func (s *Sender) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.port.Close()
	})
	return err
}

// Sent returns number of acknowledged commands.
func (s *Sender) Sent() int {
	return s.sent
}

// Send transmits commands skipping blank lines and comments. Trailing
// comments are not sent. Cancellation is checked between commands.
func (s *Sender) Send(ctx context.Context, lines []string) error {
	for _, line := range lines {
		code := gcode.StripComment(line)
		if len(code) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.port.Write([]byte(code + "\n")); err != nil {
			return fmt.Errorf("unable to write %q: %w", code, err)
		}
		if err := s.wait(ctx, code); err != nil {
			return err
		}
		s.sent++
	}
	return nil
}

func (s *Sender) wait(ctx context.Context, code string) error {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("%w after %v waiting for %q", ErrTimeout, s.timeout, code)
		case reply, ok := <-s.replies:
			if !ok {
				return fmt.Errorf("%w while waiting for %q", ErrClosed, code)
			}
			switch {
			case strings.HasPrefix(reply, "ok"):
				return nil
			case strings.HasPrefix(reply, "Error"), strings.HasPrefix(reply, "!!"):
				return fmt.Errorf("%w: %q answered %q", ErrRejected, code, reply)
			default:
				// busy, echo and temperature reports
				s.log.Debug("Controller message", zap.String("message", reply))
			}
		}
	}
}

// SendLayers transmits layers in order.
func (s *Sender) SendLayers(ctx context.Context, ls []layers.Layer) error {
	for _, l := range ls {
		fields := []zap.Field{zap.Int("layer", l.Index), zap.Int("lines", len(l.Lines))}
		if z, ok := l.Z(); ok {
			fields = append(fields, zap.Float64("z", z))
		}
		s.log.Info("Sending layer", fields...)

		start := time.Now()
		if err := s.Send(ctx, l.Lines); err != nil {
			return fmt.Errorf("layer %d: %w", l.Index, err)
		}
		s.log.Debug("Layer sent", zap.Int("layer", l.Index), zap.Duration("elapsed", time.Since(start)))
	}
	return nil
}
