// Package engine runs conversions: it reads composition exports, imports
// them into scene documents and writes the results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ivlev/aecomp/internal/comp"
	"github.com/ivlev/aecomp/internal/config"
	"github.com/ivlev/aecomp/internal/export"
	"github.com/ivlev/aecomp/internal/importer"
	"github.com/ivlev/aecomp/internal/scene"
	"github.com/ivlev/aecomp/internal/system"
	"golang.org/x/sync/errgroup"
)

// Result describes one converted (or cancelled) input.
type Result struct {
	Input  string
	Output string

	Objects int
	Curves  int
	Markers int

	// Cancelled is set when the export was refused by the version gate.
	// Nothing is written and Warning holds the message for the user.
	Cancelled bool
	Warning   string

	Elapsed time.Duration
}

// Project converts composition exports with one configuration.
type Project struct {
	Config *config.Config

	log      *slog.Logger
	writer   export.Writer
	importer *importer.Importer
	now      func() time.Time
}

// New checks cfg and prepares the writer. The output format follows the
// extension of cfg.OutputPath when it names a known one.
func New(cfg *config.Config, logger *slog.Logger) (*Project, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	format := cfg.Format
	if f, ok := export.FormatFromPath(cfg.OutputPath); ok {
		format = f
	}
	w, err := export.New(format)
	if err != nil {
		return nil, err
	}
	if g, ok := w.(export.GLTFWriter); ok {
		g.Generator = "aecomp " + cfg.BuildVersion
		w = g
	}

	return &Project{
		Config:   cfg,
		log:      logger,
		writer:   w,
		importer: importer.New(cfg.Import, logger),
		now:      time.Now,
	}, nil
}

// Run converts a single export. A version mismatch is not an error: the
// result comes back with Cancelled set.
func (p *Project) Run(ctx context.Context, input string) (*Result, error) {
	startTime := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := p.log.With("input", filepath.Base(input))

	res := &Result{Input: input}
	// cancel turns a version mismatch into a cancelled result.
	cancel := func(err error) bool {
		var verr *comp.VersionError
		if !errors.As(err, &verr) {
			return false
		}
		log.Warn("import cancelled", "reason", verr.Kind, "version", verr.Version)
		res.Cancelled = true
		res.Warning = verr.Error()
		res.Elapsed = time.Since(startTime)
		return true
	}

	doc, err := comp.ReadFile(input)
	if cancel(err) {
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	dst, err := p.destination(input)
	if err != nil {
		return nil, err
	}

	ir, err := p.importer.Import(doc, dst)
	if cancel(err) {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Output = p.outputPath(input)
	if err := os.MkdirAll(filepath.Dir(res.Output), 0755); err != nil {
		return nil, err
	}
	if err := p.writer.Write(dst, res.Output); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.Output, err)
	}

	res.Objects = len(ir.Objects)
	res.Curves = ir.Curves
	res.Markers = ir.Markers
	res.Elapsed = time.Since(startTime)
	log.Info("converted", "output", res.Output, "objects", res.Objects,
		"curves", res.Curves, "elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// RunAll converts inputs concurrently, at most Config.Workers at a time.
// Results keep the order of inputs. The first failure cancels the inputs
// that have not started yet.
func (p *Project) RunAll(ctx context.Context, inputs []string) ([]*Result, error) {
	results := make([]*Result, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Config.Workers)

	var mu sync.Mutex
	done := 0
	for i, in := range inputs {
		g.Go(func() error {
			res, err := p.Run(ctx, in)
			if err != nil {
				return err
			}
			results[i] = res

			mu.Lock()
			done++
			p.log.Debug("progress", "done", done, "total", len(inputs))
			mu.Unlock()
			return nil
		})
	}
	return results, g.Wait()
}

// destination returns the scene the import goes into: a copy of the base
// scene when one is configured, otherwise an empty scene at the configured
// frame rate.
func (p *Project) destination(input string) (*scene.Document, error) {
	if p.Config.BaseScene != "" {
		doc, err := export.ReadYAML(p.Config.BaseScene)
		if err != nil {
			return nil, fmt.Errorf("base scene: %w", err)
		}
		return doc, nil
	}

	base := filepath.Base(input)
	doc := scene.NewDocument(strings.TrimSuffix(base, filepath.Ext(base)))
	doc.Render.FPS = p.Config.SceneFPS
	doc.Render.FPSBase = p.Config.SceneFPSBase
	return doc, nil
}

func (p *Project) outputPath(input string) string {
	if p.Config.OutputPath != "" {
		return p.Config.OutputPath
	}
	return system.OutputPath(input, p.Config.OutputDir, p.writer.Ext(), p.now())
}
