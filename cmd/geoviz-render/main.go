// Command geoviz-render renders a GeoJSON file for one viewport and prints
// the resulting draw commands.
//
// Usage:
//
//	geoviz-render -i ports.geojson -c style.yaml --tile 6/33/21 -f geojson
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/beetlebugorg/geoviz/internal/config"
	"github.com/beetlebugorg/geoviz/internal/logger"
	"github.com/beetlebugorg/geoviz/pkg/geoviz"
	"github.com/cockroachdb/errors"
	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/prometheus/client_golang/prometheus"
)

type Options struct {
	Input    string   `short:"i" long:"in"        description:"Input GeoJSON file (EPSG:4326). Reads from stdin if empty"`
	Output   string   `short:"o" long:"out"       description:"Output file path. Writes to stdout if empty"`
	Config   string   `short:"c" long:"config"    env:"GEOVIZ_CONFIG" description:"YAML configuration file"`
	Format   string   `short:"f" long:"format"    description:"Output format" choice:"json" choice:"geojson" default:"json"`
	BBox     string   `short:"b" long:"bbox"      description:"Viewport as minx,miny,maxx,maxy in the output CRS"`
	Tile     string   `short:"t" long:"tile"      description:"Viewport as a z/x/y slippy-map tile"`
	Scope    string   `short:"s" long:"scope"     description:"Viewport as a named scope (world, usa, europe, ...)"`
	Zoom     *float64 `short:"z" long:"zoom"      description:"Zoom level for bbox and scope viewports"`
	CRS      string   `long:"crs"                 description:"Output CRS (EPSG:4326, EPSG:3857, EPSG:4087)"`
	Workers  int      `short:"w" long:"workers"   description:"Render workers (0 uses all CPUs)"`
	LogLevel string   `long:"log-level"           env:"LOG_LEVEL" description:"Log level" choice:"debug" choice:"info" choice:"warn" choice:"error"`
	Console  bool     `long:"log-console"         description:"Human readable logs"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Options, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return err
		}
	}
	if err := applyOverrides(cfg, opts); err != nil {
		return err
	}
	log := logger.Build(cfg.Log, stderr)

	data, err := readInput(opts.Input, stdin)
	if err != nil {
		return err
	}
	gj, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return errors.Wrap(err, "decoding geojson")
	}

	fc, rejected := geoviz.LoadCollection(geoviz.Geographic, geoviz.FromGeoJSON(gj), geoviz.LoadOptions{
		Parallel: true,
		Workers:  cfg.Workers,
		Logger:   &log,
	})
	idx := geoviz.BuildIndex(fc)
	log.Info().
		Int("features", fc.Len()).
		Int("rejected", len(rejected)).
		Int("index_depth", idx.Depth()).
		Msg("collection loaded")

	vp, err := viewport(opts, cfg, fc)
	if err != nil {
		return err
	}
	rules, err := cfg.RuleSet()
	if err != nil {
		return err
	}
	tol, err := cfg.ToleranceFunc(fc.CRS())
	if err != nil {
		return err
	}

	ropts := geoviz.RenderOptions{
		Workers:   cfg.Workers,
		Tolerance: tol,
		Metrics:   geoviz.NewMetrics(prometheus.NewRegistry()),
		Logger:    &log,
	}
	if cfg.CacheSize > 0 {
		if ropts.Cache, err = geoviz.NewSimplifyCache(cfg.CacheSize); err != nil {
			return err
		}
	}

	frame, err := geoviz.NewRenderer(ropts).Render(ctx, fc, idx, vp, rules)
	if err != nil {
		return err
	}
	log.Info().
		Int("commands", len(frame.Commands)).
		Int("dropped", len(frame.Dropped)).
		Str("fingerprint", strconv.FormatUint(frame.Fingerprint(), 16)).
		Msg("frame rendered")

	var out any = frameDocument(frame, rejected)
	if opts.Format == "geojson" {
		out = frame.GeoJSON()
	}
	enc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding output")
	}
	enc = append(enc, '\n')

	if opts.Output != "" {
		return errors.Wrap(os.WriteFile(opts.Output, enc, 0o644), "writing output")
	}
	_, err = stdout.Write(enc)
	return err
}

func applyOverrides(cfg *config.Config, opts Options) error {
	if opts.CRS != "" {
		cfg.CRS = opts.CRS
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.Scope != "" {
		cfg.Scope = opts.Scope
	}
	if opts.Zoom != nil {
		cfg.Zoom = *opts.Zoom
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Console {
		cfg.Log.Console = true
	}
	return cfg.Validate()
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		data, err := io.ReadAll(stdin)
		return data, errors.Wrap(err, "reading stdin")
	}
	data, err := os.ReadFile(path)
	return data, errors.Wrap(err, "reading input")
}

// viewport picks the frame extent: a tile, then a bbox, then a scope, and
// the whole collection otherwise.
func viewport(opts Options, cfg *config.Config, fc *geoviz.FeatureCollection) (geoviz.Viewport, error) {
	crs, err := cfg.OutputCRS()
	if err != nil {
		return geoviz.Viewport{}, err
	}

	switch {
	case opts.Tile != "":
		t, err := parseTile(opts.Tile)
		if err != nil {
			return geoviz.Viewport{}, err
		}
		return geoviz.ViewportForTile(t, crs)

	case opts.BBox != "":
		b, err := parseBBox(opts.BBox)
		if err != nil {
			return geoviz.Viewport{}, err
		}
		return geoviz.NewViewport(b, cfg.Zoom, crs)

	case cfg.Scope != "":
		s, err := geoviz.ParseScope(cfg.Scope)
		if err != nil {
			return geoviz.Viewport{}, err
		}
		return geoviz.ScopeViewport(s, crs, cfg.Zoom)
	}

	if fc.Len() == 0 {
		return geoviz.ScopeViewport(geoviz.ScopeWorld, crs, cfg.Zoom)
	}
	full := geoviz.Viewport{Bounds: fc.Bounds(), Zoom: cfg.Zoom, CRS: fc.CRS()}
	b, err := full.In(crs)
	if err != nil {
		return geoviz.Viewport{}, err
	}
	return geoviz.NewViewport(b, cfg.Zoom, crs)
}

func parseTile(s string) (maptile.Tile, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return maptile.Tile{}, errors.Newf("tile %q: want z/x/y", s)
	}
	var n [3]uint32
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return maptile.Tile{}, errors.Wrapf(err, "tile %q", s)
		}
		n[i] = uint32(v)
	}
	return maptile.New(n[1], n[2], maptile.Zoom(n[0])), nil
}

func parseBBox(s string) (geoviz.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geoviz.Bounds{}, errors.Newf("bbox %q: want minx,miny,maxx,maxy", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geoviz.Bounds{}, errors.Wrapf(err, "bbox %q", s)
		}
		v[i] = f
	}
	return geoviz.NewBounds(v[0], v[1], v[2], v[3]), nil
}

type commandJSON struct {
	Kind        string            `json:"kind"`
	FeatureID   string            `json:"id"`
	Position    int               `json:"position"`
	Geometry    *geojson.Geometry `json:"geometry"`
	Fill        string            `json:"fill"`
	Stroke      string            `json:"stroke"`
	StrokeWidth float64           `json:"stroke_width"`
	Radius      float64           `json:"radius"`
	Opacity     float64           `json:"opacity"`
	Z           int               `json:"z"`
}

type issueJSON struct {
	Position int    `json:"position"`
	ID       string `json:"id,omitempty"`
	Error    string `json:"error"`
}

type frameJSON struct {
	CRS         string        `json:"crs"`
	BBox        [4]float64    `json:"bbox"`
	Zoom        float64       `json:"zoom"`
	Fingerprint string        `json:"fingerprint"`
	Candidates  int           `json:"candidates"`
	Commands    []commandJSON `json:"commands"`
	Dropped     []issueJSON   `json:"dropped,omitempty"`
	Rejected    []issueJSON   `json:"rejected,omitempty"`
}

func frameDocument(f *geoviz.Frame, rejected []geoviz.Rejection) frameJSON {
	b := f.Viewport.Bounds
	doc := frameJSON{
		CRS:         f.Viewport.CRS.String(),
		BBox:        [4]float64{b.MinX, b.MinY, b.MaxX, b.MaxY},
		Zoom:        f.Viewport.Zoom,
		Fingerprint: strconv.FormatUint(f.Fingerprint(), 16),
		Candidates:  f.Candidates,
		Commands:    make([]commandJSON, len(f.Commands)),
	}
	for i, c := range f.Commands {
		doc.Commands[i] = commandJSON{
			Kind:        c.Kind.String(),
			FeatureID:   c.FeatureID,
			Position:    c.Position,
			Geometry:    geojson.NewGeometry(c.Geometry),
			Fill:        geoviz.HexColor(c.Style.Fill),
			Stroke:      geoviz.HexColor(c.Style.Stroke),
			StrokeWidth: c.Style.StrokeWidth,
			Radius:      c.Style.PointRadius,
			Opacity:     c.Style.Opacity,
			Z:           c.Style.ZOrder,
		}
	}
	for _, d := range f.Dropped {
		doc.Dropped = append(doc.Dropped, issueJSON{Position: d.Position, ID: d.ID, Error: d.Err.Error()})
	}
	for _, r := range rejected {
		doc.Rejected = append(doc.Rejected, issueJSON{Position: r.Index, ID: r.ID, Error: r.Err.Error()})
	}
	return doc
}
