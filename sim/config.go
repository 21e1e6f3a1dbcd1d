package sim

import (
	"fmt"
	"time"

	"github.com/zucenko/lumen/laser"
	"github.com/zucenko/lumen/model"
)

// Config is the [sim] table of a level file.
type Config struct {
	CellSize  float64 `toml:"cell_size"`
	OriginX   float64 `toml:"origin_x"`
	OriginY   float64 `toml:"origin_y"`
	DoorDelay float64 `toml:"door_delay"`
	TickRate  int     `toml:"tick_rate"`
	laser.Config
}

func DefaultConfig() Config {
	return Config{
		CellSize:  1,
		DoorDelay: 0.5,
		TickRate:  60,
		Config:    laser.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	if c.CellSize <= 0 {
		return fmt.Errorf("cell size must be positive, got %v", c.CellSize)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", c.TickRate)
	}
	if c.DoorDelay < 0 {
		return fmt.Errorf("door delay must not be negative, got %v", c.DoorDelay)
	}
	if err := c.Config.Validate(c.CellSize); err != nil {
		return fmt.Errorf("laser: %w", err)
	}
	return nil
}

func (c Config) Grid() model.Grid {
	return model.NewGrid(model.Vec2{X: c.OriginX, Y: c.OriginY}, c.CellSize)
}

// Tick is the fixed step length.
func (c Config) Tick() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// TickSeconds is Tick in seconds, the dt handed to Step.
func (c Config) TickSeconds() float64 {
	return 1 / float64(c.TickRate)
}
