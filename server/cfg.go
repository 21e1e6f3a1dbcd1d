package server

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/lumen/level"
)

type Config struct {
	// LevelDir holds <name>.toml level files.
	LevelDir     string
	DefaultLevel string
	// Seats is how many players share one session.
	Seats int
	// SnapshotEvery sends a snapshot every n ticks; ticks with action
	// results always send one.
	SnapshotEvery int
	Timeout       time.Duration
}

func DefaultConfig() Config {
	return Config{
		LevelDir:      "data",
		DefaultLevel:  "level_1",
		Seats:         2,
		SnapshotEvery: 3,
		Timeout:       200 * time.Millisecond,
	}
}

// ConfigFromEnv overrides the defaults with LEVELS, LEVEL, SEATS and
// SNAPSHOT_EVERY.
func ConfigFromEnv() Config {
	c := DefaultConfig()
	if v := os.Getenv("LEVELS"); v != "" {
		c.LevelDir = v
	}
	if v := os.Getenv("LEVEL"); v != "" {
		c.DefaultLevel = v
	}
	c.Seats = envInt("SEATS", c.Seats)
	c.SnapshotEvery = envInt("SNAPSHOT_EVERY", c.SnapshotEvery)
	return c
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.WithFields(log.Fields{"key": key, "value": v}).Warn("ignoring bad env value")
		return def
	}
	return n
}

var levelName = regexp.MustCompile(`^[a-z0-9_]+$`)

// LoadLevel resolves name inside LevelDir and builds it.
func (c Config) LoadLevel(name string) (*level.Level, ResponseCode, error) {
	if name == "" {
		name = c.DefaultLevel
	}
	if !levelName.MatchString(name) {
		return nil, GAME_INVALIDE, errors.New("bad level name " + strconv.Quote(name))
	}
	path := filepath.Join(c.LevelDir, name+".toml")
	lvl, err := level.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, GAME_NOT_FOUND, err
	}
	if err != nil {
		return nil, GAME_BROKEN, err
	}
	return lvl, GAME_READY, nil
}
