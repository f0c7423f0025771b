package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var (
	errBadConfig = errors.New("rtview: invalid config")

	// errDumpConfig stops the run after -dump-config printed the config.
	errDumpConfig = errors.New("rtview: config dumped")
)

// config holds the run settings. The TOML keys match the flag names.
type config struct {
	Frames      int     `toml:"frames"`
	Width       float64 `toml:"width"`
	Height      float64 `toml:"height"`
	Capacity    string  `toml:"capacity"`
	Angle       float64 `toml:"angle"`
	Drag        float64 `toml:"drag"`
	Out         string  `toml:"out"`
	Scale       float64 `toml:"scale"`
	Backend     string  `toml:"backend"`
	PollTimeout string  `toml:"poll-timeout"`
	Verbose     bool    `toml:"v"`
}

func defaultConfig() config {
	return config{
		Frames:      4,
		Width:       800,
		Height:      600,
		Capacity:    "1920x1080",
		Scale:       1,
		PollTimeout: "1s",
	}
}

// bindFlags registers every config field on fs with c's values as defaults.
func (c *config) bindFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Frames, "frames", c.Frames, "number of frames to render")
	fs.Float64Var(&c.Width, "width", c.Width, "requested viewport width in pixels")
	fs.Float64Var(&c.Height, "height", c.Height, "requested viewport height in pixels")
	fs.StringVar(&c.Capacity, "capacity", c.Capacity, "output texture capacity as WxH")
	fs.Float64Var(&c.Angle, "angle", c.Angle, "initial camera angle in radians")
	fs.Float64Var(&c.Drag, "drag", c.Drag, "horizontal drag in pixels applied before each frame")
	fs.StringVar(&c.Out, "out", c.Out, "write the last frame to this PNG file")
	fs.Float64Var(&c.Scale, "scale", c.Scale, "PNG scale factor")
	fs.StringVar(&c.Backend, "backend", c.Backend, "device backend: hal or webgpu (default: first available)")
	fs.StringVar(&c.PollTimeout, "poll-timeout", c.PollTimeout, "bound on GPU read-back waits")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "enable debug logging")
}

// parseConfig builds the config from defaults, then the -config file,
// then the flags given explicitly on the command line.
func parseConfig(args []string, stderr io.Writer) (config, error) {
	fs := flag.NewFlagSet("rtview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "TOML config file")
	dump := fs.Bool("dump-config", false, "print the effective config as TOML and exit")

	fromFlags := defaultConfig()
	fromFlags.bindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	cfg := defaultConfig()
	if *path != "" {
		if _, err := toml.DecodeFile(*path, &cfg); err != nil {
			return config{}, fmt.Errorf("read config %s: %w", *path, err)
		}
	}

	// Flags set on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		cfg.apply(f.Name, &fromFlags)
	})

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	if *dump {
		return cfg, errDumpConfig
	}
	return cfg, nil
}

func (c *config) apply(name string, from *config) {
	switch name {
	case "frames":
		c.Frames = from.Frames
	case "width":
		c.Width = from.Width
	case "height":
		c.Height = from.Height
	case "capacity":
		c.Capacity = from.Capacity
	case "angle":
		c.Angle = from.Angle
	case "drag":
		c.Drag = from.Drag
	case "out":
		c.Out = from.Out
	case "scale":
		c.Scale = from.Scale
	case "backend":
		c.Backend = from.Backend
	case "poll-timeout":
		c.PollTimeout = from.PollTimeout
	case "v":
		c.Verbose = from.Verbose
	}
}

func (c *config) validate() error {
	if c.Frames < 1 {
		return fmt.Errorf("%w: frames must be at least 1, got %d", errBadConfig, c.Frames)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: negative viewport %vx%v", errBadConfig, c.Width, c.Height)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %v", errBadConfig, c.Scale)
	}
	if _, _, err := c.capacity(); err != nil {
		return err
	}
	if _, err := c.pollTimeout(); err != nil {
		return err
	}
	return nil
}

// capacity parses the WxH capacity string.
func (c *config) capacity() (w, h uint32, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(c.Capacity), "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: capacity %q is not WxH", errBadConfig, c.Capacity)
	}
	pw, err := strconv.ParseUint(strings.TrimSpace(ws), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: capacity width: %w", errBadConfig, err)
	}
	ph, err := strconv.ParseUint(strings.TrimSpace(hs), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: capacity height: %w", errBadConfig, err)
	}
	if pw == 0 || ph == 0 {
		return 0, 0, fmt.Errorf("%w: capacity %q has a zero edge", errBadConfig, c.Capacity)
	}
	return uint32(pw), uint32(ph), nil
}

func (c *config) pollTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.PollTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: poll-timeout: %w", errBadConfig, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: poll-timeout must be positive", errBadConfig)
	}
	return d, nil
}

// writeTOML encodes c in the -config file format.
func (c *config) writeTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
