package main

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/ebitenutil"
	"github.com/zucenko/lumen/level"
)

const defaultLevel = "data/level_1.toml"

// levelPath is the first argument, then LEVEL, then the bundled level.
func levelPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	if p := os.Getenv("LEVEL"); p != "" {
		return p
	}
	return defaultLevel
}

func Load(path string) (*level.Level, error) {
	file, err := ebitenutil.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening level: %w", err)
	}
	defer file.Close()
	f, err := level.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return level.Build(f)
}
