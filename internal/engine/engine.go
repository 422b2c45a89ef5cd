// Package engine exports looping demos to video files.
package engine

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/demoreel/internal/analyzer"
	"github.com/ivlev/demoreel/internal/choreo"
	"github.com/ivlev/demoreel/internal/config"
	"github.com/ivlev/demoreel/internal/demo"
	"github.com/ivlev/demoreel/internal/director"
	"github.com/ivlev/demoreel/internal/gate"
	"github.com/ivlev/demoreel/internal/renderer"
	"github.com/ivlev/demoreel/internal/script"
	"github.com/ivlev/demoreel/internal/source"
	"github.com/ivlev/demoreel/internal/system"
	"github.com/ivlev/demoreel/internal/video"
)

const (
	defaultTourMs = 10000 // Tour loop length without FitLoop
	tourStops     = 6     // Most zones a tour visits
)

// Project is one export: a script played over the pages of a source and
// written through an encoder.
type Project struct {
	Config   config.Config
	Source   source.Source
	Encoder  video.Encoder
	Catalog  *demo.Catalog
	Director *director.Director
	Log      *zap.Logger
}

func NewProject(cfg config.Config, src source.Source, enc video.Encoder, catalog *demo.Catalog, log *zap.Logger) *Project {
	if catalog == nil {
		catalog = demo.DefaultCatalog()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Project{
		Config:   cfg,
		Source:   src,
		Encoder:  enc,
		Catalog:  catalog,
		Director: director.NewDirector(),
		Log:      log,
	}
}

// Report summarises a finished export.
type Report struct {
	Frames      int
	Loops       int           // Completed loops shown
	Length      time.Duration // Playing time of the output
	Interrupted bool          // Stopped by the simulated visitor
	Workers     int
	Analyse     time.Duration
	Render      time.Duration
	Total       time.Duration
}

// pages holds the rendered backdrop pages and what the detector found on
// each.
type pages struct {
	images  []image.Image
	regions [][]analyzer.Region
}

// Run renders the project to Config.Output.
func (p *Project) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	frameBytes := int64(cfg.Width) * int64(cfg.Height) * 4
	workers := p.workers(ctx, frameBytes)
	report := &Report{Workers: workers}

	p.Log.Info("export started",
		zap.String("output", cfg.Output),
		zap.String("size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)),
		zap.Int("fps", cfg.FPS),
		zap.Int("workers", workers),
	)

	pg, err := p.loadPages(ctx, workers)
	if err != nil {
		return nil, err
	}
	report.Analyse = time.Since(start)

	doc, err := p.document(pg)
	if err != nil {
		return nil, err
	}
	s, err := doc.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", doc.Name, err)
	}

	frames, interrupted, err := p.timeline(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("interrupted before the first frame")
	}

	r, err := p.renderer(pg)
	if err != nil {
		return nil, err
	}

	stream, err := p.Encoder.Open(ctx, cfg.Output, video.Params{
		Width:   cfg.Width,
		Height:  cfg.Height,
		FPS:     cfg.FPS,
		Codec:   cfg.VideoEncoder,
		Quality: cfg.Quality,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Output, err)
	}
	renderStart := time.Now()
	if err := p.encode(ctx, r, frames, stream, workers); err != nil {
		stream.Close()
		return nil, err
	}
	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("finish %s: %w", cfg.Output, err)
	}

	report.Frames = len(frames)
	report.Loops = frames[len(frames)-1].Scene
	report.Length = time.Duration(len(frames)) * frameInterval(cfg.FPS)
	report.Interrupted = interrupted
	report.Render = time.Since(renderStart)
	report.Total = time.Since(start)

	p.Log.Info("export finished",
		zap.String("output", cfg.Output),
		zap.String("script", doc.Name),
		zap.Int("frames", report.Frames),
		zap.Int("loops", report.Loops),
		zap.Duration("length", report.Length),
		zap.Bool("interrupted", report.Interrupted),
		zap.Duration("analyse", report.Analyse),
		zap.Duration("render", report.Render),
		zap.Duration("total", report.Total),
		zap.Float64("fps", float64(report.Frames)/report.Render.Seconds()),
	)
	return report, nil
}

// Document returns the script document the project would play, analysing
// the source first when the tour preset needs its zones.
func (p *Project) Document(ctx context.Context) (*director.Document, error) {
	var pg *pages
	if p.Config.Script == "" && p.Config.Preset == "tour" {
		var err error
		if pg, err = p.loadPages(ctx, p.workers(ctx, 0)); err != nil {
			return nil, err
		}
	}
	return p.document(pg)
}

func (p *Project) document(pg *pages) (*director.Document, error) {
	cfg := p.Config
	var doc *director.Document
	var err error
	switch {
	case cfg.Script != "":
		doc, err = director.ReadDocument(cfg.Script)
	case cfg.Preset == "tour":
		target := float64(defaultTourMs)
		if cfg.FitLoop > 0 {
			target = float64(cfg.FitLoop.Milliseconds())
		}
		zones := analyzer.Zones(pg.regions[0], pg.images[0].Bounds())
		doc, err = p.Director.Tour(zones[:min(len(zones), tourStops)], target)
	default:
		doc, err = p.Director.Preset(cfg.Preset)
	}
	if err != nil {
		return nil, err
	}
	if cfg.FitLoop > 0 {
		doc = p.Director.Fit(doc, float64(cfg.FitLoop.Milliseconds()))
	}
	return doc, nil
}

func (p *Project) workers(ctx context.Context, frameBytes int64) int {
	if p.Config.Workers > 0 {
		return p.Config.Workers
	}
	res, err := system.Probe(ctx)
	if err != nil {
		p.Log.Warn("could not probe host, using one worker per cpu", zap.Error(err))
		return runtime.NumCPU()
	}
	return res.Workers(frameBytes)
}

// loadPages renders every source page and looks for zones on it.
func (p *Project) loadPages(ctx context.Context, workers int) (*pages, error) {
	n := p.Source.PageCount()
	if n == 0 {
		return nil, fmt.Errorf("source has no pages")
	}
	det, err := analyzer.NewDetector(p.Config.Detector)
	if err != nil {
		return nil, err
	}

	pg := &pages{images: make([]image.Image, n), regions: make([][]analyzer.Region, n)}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := p.Source.RenderPage(i, p.Config.DPI)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i, err)
			}
			regions, err := det.Detect(img)
			if err != nil {
				p.Log.Warn("page analysis failed", zap.Int("page", i), zap.Error(err))
			}
			pg.images[i], pg.regions[i] = img, regions
			p.Log.Debug("page ready", zap.Int("page", i), zap.Int("regions", len(regions)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pg, nil
}

// timeline plays s at the configured frame rate and returns one frame per
// video frame. With InterruptAt set, a visitor grabs the widget at that
// moment and the timeline ends.
func (p *Project) timeline(ctx context.Context, s *script.Script) ([]choreo.Frame, bool, error) {
	cfg := p.Config
	step := frameInterval(cfg.FPS)
	length := cfg.Duration
	if length == 0 {
		length = s.Duration()
	}
	n := int((length + step - 1) / step)

	c := choreo.New(s, choreo.WithLogger(p.Log))
	g := gate.New(c, gate.WithLogger(p.Log))

	// The first frame shows the script at rest.
	deltas := make([]time.Duration, n)
	for i := 1; i < n; i++ {
		deltas[i] = step
	}
	clock := choreo.NewManualClock(deltas...)

	frames := make([]choreo.Frame, 0, n)
	err := choreo.Play(ctx, g, clock, func(f choreo.Frame) error {
		at := time.Duration(len(frames)) * step
		if cfg.InterruptAt > 0 && at >= cfg.InterruptAt {
			g.ReportUserInput()
			return nil
		}
		frames = append(frames, f)
		return nil
	})
	return frames, g.IsUserEngaged(), err
}

func (p *Project) renderer(pg *pages) (*renderer.Renderer, error) {
	cfg := p.Config
	bounds := image.Rect(0, 0, cfg.Width, cfg.Height)
	area := renderer.Fit(bounds, pg.images[0].Bounds().Size(), cfg.Margin*cfg.Height/100)

	fallback := make([]demo.Zone, len(pg.regions))
	for i, regions := range pg.regions {
		if best, ok := analyzer.Strongest(regions); ok {
			fallback[i] = analyzer.ZoneOf(best, pg.images[i].Bounds())
		}
	}

	layers, err := renderer.Standard(bounds, area, pg.images, p.Catalog, fallback)
	if err != nil {
		return nil, err
	}
	return renderer.New(cfg.Width, cfg.Height, layers...)
}

// encode renders frames in parallel batches and writes them in order.
func (p *Project) encode(ctx context.Context, r *renderer.Renderer, frames []choreo.Frame, stream video.Stream, workers int) error {
	pool := system.NewImagePool()
	batch := workers * 2
	canvases := make([]*image.RGBA, batch)

	for start := 0; start < len(frames); start += batch {
		end := min(start+batch, len(frames))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				dst := pool.Get(r.Bounds())
				canvases[i-start] = dst
				if err := r.Render(frames[i], dst); err != nil {
					return fmt.Errorf("render frame %d: %w", i, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i := start; i < end; i++ {
			if err := stream.WriteFrame(canvases[i-start]); err != nil {
				return fmt.Errorf("write frame %d: %w", i, err)
			}
			pool.Put(canvases[i-start])
			canvases[i-start] = nil
		}
		p.Log.Debug("frames written", zap.Int("done", end), zap.Int("total", len(frames)))
	}
	return nil
}

// Trace plays s over deltas and returns every frame produced.
func Trace(ctx context.Context, s *script.Script, deltas []time.Duration) ([]choreo.Frame, error) {
	var frames []choreo.Frame
	err := choreo.Play(ctx, choreo.New(s), choreo.NewManualClock(deltas...), func(f choreo.Frame) error {
		frames = append(frames, f)
		return nil
	})
	return frames, err
}

func frameInterval(fps int) time.Duration {
	return time.Second / time.Duration(fps)
}
