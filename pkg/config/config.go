// Package config holds the dimensions of the standard pinball table and the
// defaults used when a layout script leaves a value out. Values can be
// overridden from a TOML file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full set of table constants.
type Config struct {
	// Resolution is the number of angular steps used for every arc.
	Resolution int           `toml:"resolution"`
	Table      TableConfig   `toml:"table"`
	Ball       BallConfig    `toml:"ball"`
	Guide      GuideConfig   `toml:"guide"`
	Flipper    FlipperConfig `toml:"flipper"`
}

// TableConfig describes the playfield tray.
type TableConfig struct {
	Height      float32 `toml:"height"` // along Z
	Width       float32 `toml:"width"`  // along X
	WallHeight  float32 `toml:"wall_height"`
	Inclination float64 `toml:"inclination_deg"` // tilt around X, degrees
}

// BallConfig describes the ball the table is sized for.
type BallConfig struct {
	Radius float32 `toml:"radius"`
}

// GuideConfig places the launch lane guide.
type GuideConfig struct {
	// Gap is the distance between the top of the guide and the top wall.
	Gap float32 `toml:"gap"`
}

// FlipperConfig holds paddle dimensions and the flip tracker settings.
type FlipperConfig struct {
	Length   float32 `toml:"length"`
	Small    float32 `toml:"small_radius"`
	Big      float32 `toml:"big_radius"`
	Range    float64 `toml:"range_deg"`
	DeadZone float64 `toml:"dead_zone"`
}

// Default returns the constants of the standard table.
func Default() Config {
	return Config{
		Resolution: 20,
		Table: TableConfig{
			Height:      8,
			Width:       5,
			WallHeight:  0.3,
			Inclination: 6.5,
		},
		Ball:  BallConfig{Radius: 0.1},
		Guide: GuideConfig{Gap: 1.2},
		Flipper: FlipperConfig{
			Length:   0.7,
			Small:    0.05,
			Big:      0.1,
			Range:    60,
			DeadZone: 0,
		},
	}
}

// GuideHeight returns the length of the launch lane guide.
func (c Config) GuideHeight() float32 {
	return c.Table.Height - c.Guide.Gap
}

// InclinationRad returns the table tilt in radians.
func (c Config) InclinationRad() float64 {
	return c.Table.Inclination * math.Pi / 180
}

// FlipRangeRad returns the flipper travel in radians.
func (c Config) FlipRangeRad() float64 {
	return c.Flipper.Range * math.Pi / 180
}

// Validate checks that every dimension is usable.
func (c Config) Validate() error {
	var errs []error
	if c.Resolution < 1 {
		errs = append(errs, fmt.Errorf("resolution %d must be at least 1", c.Resolution))
	}
	positive := []struct {
		name  string
		value float32
	}{
		{"table.height", c.Table.Height},
		{"table.width", c.Table.Width},
		{"table.wall_height", c.Table.WallHeight},
		{"ball.radius", c.Ball.Radius},
		{"flipper.length", c.Flipper.Length},
		{"flipper.small_radius", c.Flipper.Small},
		{"flipper.big_radius", c.Flipper.Big},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s is %g, must be positive", p.name, p.value))
		}
	}
	if c.Guide.Gap < 0 || c.Guide.Gap >= c.Table.Height {
		errs = append(errs, fmt.Errorf("guide.gap %g must be in [0, table.height)", c.Guide.Gap))
	}
	if c.Flipper.Big < c.Flipper.Small {
		errs = append(errs, fmt.Errorf("flipper.big_radius %g is below flipper.small_radius %g",
			c.Flipper.Big, c.Flipper.Small))
	}
	if c.Flipper.Length <= c.Flipper.Small+c.Flipper.Big {
		errs = append(errs, fmt.Errorf("flipper.length %g does not exceed the radii sum", c.Flipper.Length))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Load reads a TOML file over Default. Keys missing from the file keep
// their default value; unknown keys are an error.
func Load(path string) (Config, error) {
	c := Default()

	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
