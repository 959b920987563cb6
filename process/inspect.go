package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"gcpp/sender"
	"gcpp/state"
)

// openDocument reads and processes single file named on command line.
func openDocument(ctx context.Context, cmd *cli.Command, log *zap.Logger) (*Document, error) {
	env := state.EnvFromContext(ctx)

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return nil, errors.New("no input file has been specified")
	}
	if err := applyFlags(cmd, env, log); err != nil {
		return nil, err
	}

	_, enc, err := isDocumentFile(src, []string{filepath.Ext(src)})
	if err != nil {
		return nil, fmt.Errorf("unable to check file type: %w", err)
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Prepare(ctx, selectReader(f, enc, env.CodePage), filepath.Base(src), log)
	if err != nil {
		return nil, fmt.Errorf("unable to process G-code source (%s): %w", src, err)
	}
	doc.dump(env.Rpt)
	return doc, nil
}

// Segment prints region and layer structure of a single document.
func Segment(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("segment")

	doc, err := openDocument(ctx, cmd, log)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if fname := cmd.Args().Get(1); len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer f.Close()
		out = f
	}
	if _, err := fmt.Fprint(out, doc.String()); err != nil {
		return fmt.Errorf("unable to write structure: %w", err)
	}
	return nil
}

// Send processes a single document and streams result to the machine layer
// by layer.
func Send(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("send")

	if cmd.Bool("list") {
		ports, err := sender.Ports()
		if err != nil {
			return fmt.Errorf("unable to enumerate serial ports: %w", err)
		}
		if len(ports) == 0 {
			log.Info("No serial ports found")
		}
		for _, p := range ports {
			fmt.Fprintln(cmd.Root().Writer, p)
		}
		return nil
	}

	conf := env.Cfg.Sender
	if p := cmd.String("port"); len(p) > 0 {
		conf.Port = p
	}
	if b := cmd.Int("baud"); b > 0 {
		conf.Baud = b
	}

	doc, err := openDocument(ctx, cmd, log)
	if err != nil {
		return err
	}
	ls := doc.OutputLayers(env.Cfg.Document.Layers.Prefixes)

	var port sender.Port
	if cmd.Bool("dry-run") {
		port = sender.NewMockPort(cmd.Root().Writer)
	} else if port, err = sender.OpenPort(&conf); err != nil {
		return err
	}

	s := sender.New(port, conf.AckTimeout, log)
	defer s.Close()

	log.Info("Sending starting", zap.String("port", conf.Port), zap.Int("baud", conf.Baud), zap.Int("layers", len(ls)), zap.Bool("dry-run", cmd.Bool("dry-run")))
	defer func(start time.Time) {
		log.Info("Sending ended", zap.Int("commands", s.Sent()), zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return s.SendLayers(ctx, ls)
}
