package layout

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/pinball/pkg/config"
	"github.com/chazu/pinball/pkg/flip"
	"github.com/chazu/pinball/pkg/shapes"
)

// Names of the nodes of the standard table.
const (
	StandardRoot      = "pinball"
	StandardPlayfield = "playfield"
	StandardTable     = "table"
	StandardGuide     = "elliptic-guide"
	StandardTopLeft   = "top-left-ellipse"
	StandardTopRight  = "top-right-ellipse"
	StandardMiddle    = "middle-left-ellipse"
	StandardFlipper   = "upper-left-flipper"
)

// UpperFlipperRest is the rest angle of the upper left flipper around Y.
const UpperFlipperRest float32 = -math.Pi / 10

var (
	axisX = mgl32.Vec3{1, 0, 0}
	axisY = mgl32.Vec3{0, 1, 0}
)

// Standard assembles the stock table: the tilted tray, the elliptic launch
// guide, the two top corner ellipses, the middle left ellipse and the
// upper left flipper resting against it.
func Standard(c config.Config) *Layout {
	l := New(c)

	wall := c.Table.WallHeight
	width, height := c.Table.Width, c.Table.Height
	lane := width/2 - (c.Ball.Radius+0.05)*2

	tray := l.AddShape(StandardTable, TableData{
		Table: shapes.NewTable(height, width, wall),
	})

	guide := l.AddShape(StandardGuide, EllipseData{Ellipse: shapes.Ellipse{
		TwoSided:    true,
		Center:      shapes.OriginMaxXMinZ,
		FirstAngle:  0,
		SecondAngle: math.Pi / 4,
		Resolution:  c.Resolution,
		X:           2.5,
		Z:           0.9,
		Thickness:   wall,
	}})

	corner := shapes.Ellipse{
		Rectangle:   true,
		Center:      shapes.OriginMinXMaxZ,
		FirstAngle:  0,
		SecondAngle: math.Pi / 2,
		Resolution:  c.Resolution,
		X:           width / 2,
		Z:           0.9,
		Thickness:   wall,
	}
	topLeft := l.AddShape(StandardTopLeft, EllipseData{Ellipse: corner})
	topRight := l.AddShape(StandardTopRight, EllipseData{Ellipse: corner})

	middle := shapes.Ellipse{
		Rectangle:   true,
		Center:      shapes.OriginMaxXMaxZ,
		FirstAngle:  math.Pi / 2,
		SecondAngle: math.Pi / 8,
		Resolution:  c.Resolution,
		X:           0.8,
		Z:           0.3,
		Thickness:   wall,
	}
	middleLeft := l.AddShape(StandardMiddle, EllipseData{Ellipse: middle})

	// The middle ellipse is turned a quarter around Y, so its Z extent
	// runs along the table X axis.
	reach := middle.RealZ()
	big := c.Flipper.Big
	paddle := l.AddShape(StandardFlipper, FlipperData{
		Flipper: shapes.NewFlipper(c.Flipper.Length, c.Flipper.Small, big, wall-0.02, c.Resolution),
		Side:    flip.Left,
	})
	paddleAt := mgl32.Vec3{
		-width/2 + big + reach - math32.Cos(UpperFlipperRest)*big + 0.02,
		0,
		math32.Sin(math.Pi/2)*big + 0.02,
	}

	playfield := l.AddGroup(StandardPlayfield,
		tray,
		l.Place(guide, mgl32.Vec3{lane, 0, height/2 - c.GuideHeight()}, mgl32.QuatRotate(math.Pi, axisX)),
		l.Place(topLeft, mgl32.Vec3{0, 0, -height / 2}, mgl32.QuatRotate(math.Pi, axisY)),
		l.Place(topRight, mgl32.Vec3{0, 0, -height / 2}, mgl32.QuatRotate(math.Pi, axisX)),
		l.Place(middleLeft, mgl32.Vec3{-width / 2, 0, 0}, mgl32.QuatRotate(-math.Pi/2, axisY)),
		l.Place(paddle, paddleAt, mgl32.QuatRotate(UpperFlipperRest, axisY)),
	)

	tilt := l.Place(playfield, mgl32.Vec3{}, mgl32.QuatRotate(float32(c.InclinationRad()), axisX))
	l.AddRoot(l.AddGroup(StandardRoot, tilt))
	return l
}
