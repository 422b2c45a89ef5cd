package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/demoreel/internal/config"
	"github.com/ivlev/demoreel/internal/demo"
	"github.com/ivlev/demoreel/internal/director"
	"github.com/ivlev/demoreel/internal/engine"
	"github.com/ivlev/demoreel/internal/logging"
	"github.com/ivlev/demoreel/internal/source"
	"github.com/ivlev/demoreel/internal/system"
	"github.com/ivlev/demoreel/internal/video"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "demoreel",
	Short: "Render looping widget demos to video",
	Long: `demoreel plays scripted demo choreographies (slider sweeps, upload
walkthroughs, zone tours) frame by frame and encodes them to video.

Scripts are YAML documents of interpolate, dwell and set beats. The same
script always produces the same frames.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a script or preset to a video file",
	Long: `Renders a script over backdrop pages and encodes the result.

Settings come from --config, then flags. Without --backdrop the pages are
generated from the scene catalog.

Examples:
  demoreel render --preset comparison --out comparison.mp4
  demoreel render --script scripts/tour.yaml --backdrop contract.pdf --duration 30s
  demoreel render --preset upload --aspect 9:16 --out upload.gif`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a preset script to a YAML document",
	Long: `Writes the script of a preset so it can be edited and rendered with
--script. The tour preset analyses the first backdrop page for zones.

Presets: comparison, upload, tour`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var checkCmd = &cobra.Command{
	Use:   "check [document]",
	Short: "Validate a script document and summarise it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var traceCmd = &cobra.Command{
	Use:   "trace [document]",
	Short: "Print the frames a script produces at a fixed step",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrace,
}

// Command flags
var (
	renderFlags struct {
		script, preset, backdrop, catalog, output string
		aspect, encoder                           string
		width, height, fps, dpi, workers, quality int
		duration, fit, interruptAt                time.Duration
	}
	generateFlags struct {
		preset, backdrop, catalog, dir string
		fit                            time.Duration
	}
	traceFlags struct {
		step  time.Duration
		count int
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML settings file")

	f := renderCmd.Flags()
	f.StringVar(&renderFlags.script, "script", "", "Script document, or \"latest\" for the newest in scripts/")
	f.StringVar(&renderFlags.preset, "preset", "", "Built-in script: comparison, upload, tour")
	f.StringVar(&renderFlags.backdrop, "backdrop", "", "PDF, image or image directory shown behind the widget, or \"latest\" for the newest in input/")
	f.StringVar(&renderFlags.catalog, "catalog", "", "Scene catalog YAML")
	f.StringVarP(&renderFlags.output, "out", "o", "", "Output file (.mp4, .mov, .mkv, .webm, .gif)")
	f.StringVar(&renderFlags.aspect, "aspect", "", "Frame format: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	f.StringVar(&renderFlags.encoder, "encoder", "", "ffmpeg video encoder (default: best available H.264)")
	f.IntVar(&renderFlags.width, "width", 0, "Frame width")
	f.IntVar(&renderFlags.height, "height", 0, "Frame height")
	f.IntVar(&renderFlags.fps, "fps", 0, "Frames per second")
	f.IntVar(&renderFlags.dpi, "dpi", 0, "Backdrop rendering DPI")
	f.IntVar(&renderFlags.workers, "workers", 0, "Render workers (0: size to the host)")
	f.IntVar(&renderFlags.quality, "quality", 0, "Encoder quality (CRF for x264, CQ for NVENC, x100 kbit/s for VideoToolbox)")
	f.DurationVar(&renderFlags.duration, "duration", 0, "Video length (0: one loop)")
	f.DurationVar(&renderFlags.fit, "fit", 0, "Rescale dwell beats so one loop lasts this long")
	f.DurationVar(&renderFlags.interruptAt, "interrupt-at", 0, "Simulate a visitor taking over at this time")

	g := generateCmd.Flags()
	g.StringVar(&generateFlags.preset, "preset", "comparison", "Preset to write")
	g.StringVar(&generateFlags.backdrop, "backdrop", "", "Backdrop analysed by the tour preset")
	g.StringVar(&generateFlags.catalog, "catalog", "", "Scene catalog YAML")
	g.StringVar(&generateFlags.dir, "out", "scripts", "Directory to write the document to")
	g.DurationVar(&generateFlags.fit, "fit", 0, "Rescale dwell beats so one loop lasts this long")

	traceCmd.Flags().DurationVar(&traceFlags.step, "step", 100*time.Millisecond, "Time between frames")
	traceCmd.Flags().IntVar(&traceFlags.count, "count", 0, "Frames to print (0: one loop)")

	rootCmd.AddCommand(renderCmd, generateCmd, checkCmd, traceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func loadCatalog(path string) (*demo.Catalog, error) {
	if path == "" {
		return demo.DefaultCatalog(), nil
	}
	return demo.LoadCatalog(path)
}

// applyRenderFlags overrides cfg with the flags set on the command line.
func applyRenderFlags(cmd *cobra.Command, cfg *config.Config) error {
	set := cmd.Flags().Changed
	if set("script") {
		cfg.Script = renderFlags.script
	}
	if set("preset") {
		cfg.Preset = renderFlags.preset
		if !set("script") {
			cfg.Script = ""
		}
	}
	if set("backdrop") {
		cfg.Backdrop = renderFlags.backdrop
	}
	if set("catalog") {
		cfg.Catalog = renderFlags.catalog
	}
	if set("out") {
		cfg.Output = renderFlags.output
	}
	if set("encoder") {
		cfg.VideoEncoder = renderFlags.encoder
	}
	switch renderFlags.aspect {
	case "":
	case "16:9":
		cfg.Width, cfg.Height = 1280, 720
	case "9:16":
		cfg.Width, cfg.Height = 720, 1280
	case "4:5":
		cfg.Width, cfg.Height = 1080, 1350
	default:
		return fmt.Errorf("unknown aspect %q (want 16:9, 9:16 or 4:5)", renderFlags.aspect)
	}
	ints := map[string]*int{
		"width": &cfg.Width, "height": &cfg.Height, "fps": &cfg.FPS,
		"dpi": &cfg.DPI, "workers": &cfg.Workers, "quality": &cfg.Quality,
	}
	values := map[string]int{
		"width": renderFlags.width, "height": renderFlags.height, "fps": renderFlags.fps,
		"dpi": renderFlags.dpi, "workers": renderFlags.workers, "quality": renderFlags.quality,
	}
	for name, dst := range ints {
		if set(name) {
			*dst = values[name]
		}
	}
	if set("duration") {
		cfg.Duration = renderFlags.duration
	}
	if set("fit") {
		cfg.FitLoop = renderFlags.fit
	}
	if set("interrupt-at") {
		cfg.InterruptAt = renderFlags.interruptAt
	}

	if err := resolveLatest(cfg, scriptsDir, inputDir, logger); err != nil {
		return err
	}
	return cfg.Validate()
}

// Directories searched when a script or backdrop is given as "latest".
const (
	scriptsDir = "scripts"
	inputDir   = "input"
)

var backdropExts = []string{".pdf", ".png", ".jpg", ".jpeg"}

// resolveLatest replaces a "latest" script or backdrop with the most
// recently modified candidate in scripts or input.
func resolveLatest(cfg *config.Config, scripts, input string, log *zap.Logger) error {
	if cfg.Script == "latest" {
		latest, err := director.FindLatestDocument(scripts)
		if err != nil {
			return err
		}
		cfg.Script = latest
		log.Info("using latest script", zap.String("path", latest))
	}
	if cfg.Backdrop == "latest" {
		latest, err := system.FindLatest(input, backdropExts...)
		if err != nil {
			return fmt.Errorf("latest backdrop: %w", err)
		}
		cfg.Backdrop = latest
		log.Info("using latest backdrop", zap.String("path", latest))
	}
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRenderFlags(cmd, &cfg); err != nil {
		return err
	}

	system.RaiseFileLimit(logger)

	catalog, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	src, err := source.Open(cfg.Backdrop, catalog)
	if err != nil {
		return fmt.Errorf("open backdrop: %w", err)
	}
	defer src.Close()

	enc, err := video.ForPath(cfg.Output)
	if err != nil {
		return err
	}
	if _, ok := enc.(*video.FFmpegEncoder); ok && cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder(ctx)
		if cfg.VideoEncoder != "libx264" {
			logger.Info("hardware encoder found", zap.String("encoder", cfg.VideoEncoder))
		}
	}

	report, err := engine.NewProject(cfg, src, enc, catalog, logger).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames, %v, %d loops in %v\n",
		cfg.Output, report.Frames, report.Length, report.Loops, report.Total.Round(time.Millisecond))
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Script = ""
	cfg.Preset = generateFlags.preset
	if cmd.Flags().Changed("backdrop") {
		cfg.Backdrop = generateFlags.backdrop
	}
	if cmd.Flags().Changed("catalog") {
		cfg.Catalog = generateFlags.catalog
	}
	if cmd.Flags().Changed("fit") {
		cfg.FitLoop = generateFlags.fit
	}
	if err := resolveLatest(&cfg, scriptsDir, inputDir, logger); err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	src, err := source.Open(cfg.Backdrop, catalog)
	if err != nil {
		return fmt.Errorf("open backdrop: %w", err)
	}
	defer src.Close()

	doc, err := engine.NewProject(cfg, src, nil, catalog, logger).Document(ctx)
	if err != nil {
		return err
	}
	if _, err := doc.Compile(); err != nil {
		return fmt.Errorf("preset %s: %w", doc.Name, err)
	}

	if err := os.MkdirAll(generateFlags.dir, 0755); err != nil {
		return err
	}
	path := director.ScriptPath(generateFlags.dir, doc.Name)
	if err := director.WriteDocument(doc, path); err != nil {
		return err
	}
	logger.Info("script written", zap.String("path", path), zap.Int("beats", len(doc.Beats)))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	doc, err := director.ReadDocument(args[0])
	if err != nil {
		return err
	}
	s, err := doc.Compile()
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	states := make([]string, 0, len(s.States()))
	for _, st := range s.States() {
		states = append(states, string(st))
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "name\t%s\n", doc.Name)
	fmt.Fprintf(w, "beats\t%d\n", s.Len())
	fmt.Fprintf(w, "loop\t%v\n", s.Duration())
	fmt.Fprintf(w, "channels\t%s\n", strings.Join(s.Channels(), ", "))
	fmt.Fprintf(w, "states\t%s\n", strings.Join(states, ", "))
	fmt.Fprintf(w, "starts in\t%s\n", s.InitialState())
	if doc.Loop != nil && doc.Loop.Target > 0 {
		fmt.Fprintf(w, "target\t%v\n", time.Duration(doc.Loop.Target*float64(time.Millisecond)))
	}
	return w.Flush()
}

func runTrace(cmd *cobra.Command, args []string) error {
	if traceFlags.step <= 0 {
		return fmt.Errorf("step must be positive")
	}
	doc, err := director.ReadDocument(args[0])
	if err != nil {
		return err
	}
	s, err := doc.Compile()
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	n := traceFlags.count
	if n <= 0 {
		n = int(s.Duration()/traceFlags.step) + 1
	}
	deltas := make([]time.Duration, n)
	for i := 1; i < n; i++ {
		deltas[i] = traceFlags.step
	}
	frames, err := engine.Trace(cmd.Context(), s, deltas)
	if err != nil {
		return err
	}

	channels := s.Channels()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "time\tscene\tbeat\tstate\t%s\t\n", strings.Join(channels, "\t"))
	for i, f := range frames {
		fmt.Fprintf(w, "%v\t%d\t%d\t%s\t", time.Duration(i)*traceFlags.step, f.Scene, f.Beat, f.State)
		for _, ch := range channels {
			fmt.Fprintf(w, "%.2f\t", f.Value(ch))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
