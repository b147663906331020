package main

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/chazu/pinball/pkg/config"
	"github.com/chazu/pinball/pkg/engine"
	"github.com/chazu/pinball/pkg/export"
	"github.com/chazu/pinball/pkg/flip"
	"github.com/chazu/pinball/pkg/layout"
	"github.com/chazu/pinball/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	engine *engine.Engine
	log    *logrus.Entry

	// Wails may call bindings from several goroutines.
	mu       sync.Mutex
	flippers map[flip.Side]*flip.AngleTracker
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
// Geometry is shape-local; Transform places it on the table.
type MeshData struct {
	Vertices  []float32        `json:"vertices"`
	Normals   []float32        `json:"normals"`
	Indices   []uint32         `json:"indices"`
	PartName  string           `json:"partName"`
	Kind      string           `json:"kind"`
	Color     string           `json:"color"`
	TwoSided  bool             `json:"twoSided"`
	Closed    bool             `json:"closed"`
	Transform export.Transform `json:"transform"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates an App using the standard table constants.
func NewApp() *App {
	return NewAppWithConfig(config.Default())
}

// NewAppWithConfig creates an App whose scripts, standard table and
// flippers follow c.
func NewAppWithConfig(c config.Config) *App {
	flipRange := c.FlipRangeRad()
	return &App{
		engine: engine.NewEngineWithDefaults(c),
		log:    logrus.WithField("component", "app"),
		flippers: map[flip.Side]*flip.AngleTracker{
			flip.Left:  flip.NewAngleTracker(flipRange, c.Flipper.DeadZone),
			flip.Right: flip.NewAngleTracker(-flipRange, c.Flipper.DeadZone),
		},
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.log.Info("preview started")
}

func newResult() EvalResult {
	return EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
}

// Evaluate takes layout source and returns mesh data + errors.
// This is the primary binding called by the frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	result := newResult()

	l, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, superseded)
		a.log.WithError(err).Warn("evaluate failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	return a.render(l, result)
}

// Standard returns the stock table without going through the DSL.
func (a *App) Standard() EvalResult {
	return a.render(layout.Standard(a.engine.Defaults()), newResult())
}

// render tessellates l into result, adding its validation warnings.
func (a *App) render(l *layout.Layout, result EvalResult) EvalResult {
	for _, w := range layout.ValidateAll(l).Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Message})
	}

	parts, err := tessellate.Tessellate(l)
	if err != nil {
		a.log.WithError(err).Error("tessellate failed")
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	for i, p := range parts {
		jp := export.NewPart(p)
		result.Meshes = append(result.Meshes, MeshData{
			Vertices:  jp.Vertices,
			Normals:   jp.Normals,
			Indices:   jp.Indices,
			PartName:  jp.Name,
			Kind:      jp.Kind,
			Color:     colorPalette[i%len(colorPalette)],
			TwoSided:  jp.TwoSided,
			Closed:    jp.Closed,
			Transform: jp.Transform,
		})
	}

	a.log.WithFields(logrus.Fields{
		"parts":    len(result.Meshes),
		"warnings": len(result.Warnings),
	}).Debug("layout rendered")
	return result
}

// Flip feeds one tick of input force to the named flipper ("left" or
// "right") and returns the signed angle change in radians. Unknown sides
// are ignored.
func (a *App) Flip(side string, force float64) float64 {
	s, err := flip.ParseSide(side)
	if err != nil {
		a.log.WithError(err).Warn("flip ignored")
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flippers[s].Rotate(force)
}

// FlipperAngle returns the current angle of the named flipper.
func (a *App) FlipperAngle(side string) float64 {
	s, err := flip.ParseSide(side)
	if err != nil {
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flippers[s].Angle()
}
