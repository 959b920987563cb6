// Package process drives G-code documents from the file system through the
// region pipeline and writes results.
package process

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/ianaindex"

	"gcpp/archive"
	"gcpp/processors"
	"gcpp/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("process")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if err := applyFlags(cmd, env, log); err != nil {
		return err
	}

	log.Info("Processing starting",
		zap.String("source", src), zap.String("destination", dst), zap.Strings("processors", env.Pipeline()), zap.Int("jobs", env.Jobs))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// applyFlags moves command line options shared by process and send into
// program state.
func applyFlags(cmd *cli.Command, env *state.LocalEnv, log *zap.Logger) error {
	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")
	env.Strict = cmd.Bool("strict")
	if jobs := cmd.Int("jobs"); jobs > 0 {
		env.Jobs = jobs
	}

	env.Processors = cmd.StringSlice("processor")
	// fail early on misspelled names rather than for every document
	if _, err := processors.Build(env.Pipeline(), env.Cfg); err != nil {
		return err
	}

	// Slicers on some systems still produce files in local code pages
	cp := cmd.String("encoding")
	if len(cp) == 0 {
		cp = env.Cfg.Document.Encoding
	}
	if len(cp) > 0 {
		enc, err := ianaindex.IANA.Encoding(cp)
		if err != nil || enc == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			env.CodePage = enc
			n, _ := ianaindex.IANA.Name(enc)
			log.Debug("Forcefully decoding all documents without BOM", zap.String("charset", n))
		}
	}
	return nil
}

// process handles the core logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if len(tail) != 0 {
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		doc, enc, err := isDocumentFile(head, env.Cfg.Document.Extensions)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if !doc {
			// explicitly named file is processed regardless of extension
			log.Debug("Unexpected file extension, processing anyway", zap.String("file", head))
		}
		return processFile(ctx, head, filepath.Base(head), enc, dst, log)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

func processFile(ctx context.Context, path, src string, enc srcEncoding, dst string, log *zap.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		return err
	}
	defer file.Close()

	if err := processDocument(ctx, selectReader(file, enc, state.EnvFromContext(ctx).CodePage), src, dst, log); err != nil {
		log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		return err
	}
	return nil
}

// collector gathers failures of concurrently processed documents.
type collector struct {
	mu  sync.Mutex
	err error
}

func (c *collector) add(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = multierr.Append(c.err, err)
}

func (c *collector) result() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// processDir walks directory tree finding G-code files and archives and
// processes them concurrently in natural order of their names.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Sort(natural.StringSlice(paths))

	var (
		failures collector
		count    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(env.Jobs, 1))

	for _, path := range paths {
		isArchive, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if isArchive {
			count++
			g.Go(func() error {
				if err := processArchive(gctx, path, "", filepath.Dir(rel), dst, log); err != nil {
					log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
					failures.add(err)
				}
				return gctx.Err()
			})
			continue
		}

		doc, enc, err := isDocumentFile(path, env.Cfg.Document.Extensions)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !doc {
			log.Debug("Skipping file, not recognized as G-code or archive", zap.String("file", path))
			continue
		}

		count++
		g.Go(func() error {
			if err := processFile(gctx, path, rel, enc, dst, log); err != nil {
				failures.add(fmt.Errorf("%s: %w", rel, err))
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return failures.result()
}

// processArchive walks all files inside archive, finds G-code files under
// "pathIn" and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	var (
		failures collector
		count    int
	)

	exts := env.Cfg.Document.Extensions
	err := archive.Walk(path, pathIn, exts, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, enc, err := isDocumentInArchive(f, exts)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", arc), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !doc {
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			failures.add(err)
			return nil
		}
		defer r.Close()

		src := filepath.Join(pathOut, filepath.FromSlash(f.FileHeader.Name))
		if err := processDocument(ctx, selectReader(r, enc, env.CodePage), src, dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			failures.add(fmt.Errorf("%s: %w", f.FileHeader.Name, err))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("archive", path))
	}
	return failures.result()
}

// processDocument processes single G-code program. "src" is part of the
// source path (always including file name) relative to the original path.
// When actual file was specified it will be just base file name without a
// path. When looking inside archive or directory it will be relative path
// inside archive or directory (including base file name). "dst" is the
// destination directory where the result should be written.
func processDocument(ctx context.Context, r io.Reader, src string, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var refID, outputName string

	log.Info("Processing document", zap.String("from", src))
	defer func(start time.Time) {
		// processors are pluggable, one bad document should not stop the rest
		if r := recover(); r != nil {
			log.Error("Processing ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("processing panic: %v", r)
		} else if rerr == nil {
			log.Info("Document completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("ref_id", refID))
		}
	}(time.Now())

	doc, err := Prepare(ctx, r, src, log)
	if err != nil {
		return fmt.Errorf("unable to process G-code source (%s): %w", src, err)
	}
	refID = doc.RefID
	doc.dump(env.Rpt)

	// Determine output file name and path based on input and configuration.
	outputName = buildOutputPath(doc, src, dst, env)

	if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if env.Overwrite {
		if _, err := os.Stat(outputName); err == nil {
			log.Warn("Overwriting existing file", zap.String("file", outputName))
		}
	}

	// documents of a batch may map to the same output name, existence check
	// and creation must be a single step
	if err := writeLines(outputName, doc.Output, env.Overwrite); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		return fmt.Errorf("unable to write output: %w", err)
	}

	// Store result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s%s", refID, filepath.Ext(outputName)), outputName)
	}
	return nil
}

func writeLines(name string, lines []string, overwrite bool) (err error) {
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(name, flags, 0644)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := w.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
