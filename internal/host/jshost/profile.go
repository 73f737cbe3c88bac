package jshost

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/hostkit/internal/host"
)

var (
	ErrUnknownProfile    = errors.New("unknown host profile")
	ErrUnsupportedFormat = errors.New("unsupported profile format")
	ErrInvalidProfile    = errors.New("invalid host profile")
)

//go:embed profiles/*.yaml
var builtinFS embed.FS

const profilePattern = "**/*.{yaml,yml,toml}"

// Profile describes a simulated host: what its navigator reports, which
// primitives it exposes and how its document lifecycle unfolds.
type Profile struct {
	Name                string    `yaml:"name" toml:"name"`
	UserAgent           string    `yaml:"userAgent" toml:"userAgent"`
	Platform            string    `yaml:"platform" toml:"platform"`
	Vendor              string    `yaml:"vendor" toml:"vendor"`
	Language            string    `yaml:"language" toml:"language"`
	HardwareConcurrency int       `yaml:"hardwareConcurrency" toml:"hardwareConcurrency"`
	MaxTouchPoints      int       `yaml:"maxTouchPoints" toml:"maxTouchPoints"`
	Touch               bool      `yaml:"touch" toml:"touch"`
	Headless            bool      `yaml:"headless" toml:"headless"`
	Hybrid              bool      `yaml:"hybrid" toml:"hybrid"`
	NoTimers            bool      `yaml:"noTimers" toml:"noTimers"`
	Screen              Screen    `yaml:"screen" toml:"screen"`
	Frames              []string  `yaml:"frames" toml:"frames"`
	Globals             []string  `yaml:"globals" toml:"globals"`
	Media               Media     `yaml:"media" toml:"media"`
	Lifecycle           Lifecycle `yaml:"lifecycle" toml:"lifecycle"`
	HTML                string    `yaml:"html" toml:"html"`
}

// Screen holds display geometry.
type Screen struct {
	Width      int     `yaml:"width" toml:"width"`
	Height     int     `yaml:"height" toml:"height"`
	PixelRatio float64 `yaml:"pixelRatio" toml:"pixelRatio"`
}

// Media lists the MIME types media elements claim to play.
type Media struct {
	Audio []string `yaml:"audio" toml:"audio"`
	Video []string `yaml:"video" toml:"video"`
}

// Lifecycle holds delays, in milliseconds after Boot, of each document
// transition. A body delay larger than the interactive delay makes the
// document report readiness before its body exists.
type Lifecycle struct {
	InitialState  host.ReadyState `yaml:"initialState" toml:"initialState"`
	BodyMS        int             `yaml:"bodyMS" toml:"bodyMS"`
	InteractiveMS int             `yaml:"interactiveMS" toml:"interactiveMS"`
	CompleteMS    int             `yaml:"completeMS" toml:"completeMS"`
	DeviceReadyMS int             `yaml:"deviceReadyMS" toml:"deviceReadyMS"`
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// Validate normalizes defaults and rejects impossible values.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	lc := &p.Lifecycle
	switch lc.InitialState {
	case "":
		lc.InitialState = host.ReadyStateLoading
	case host.ReadyStateLoading, host.ReadyStateInteractive, host.ReadyStateComplete:
	default:
		return fmt.Errorf("%w: %s: initial state %q", ErrInvalidProfile, p.Name, lc.InitialState)
	}
	if lc.BodyMS < 0 || lc.InteractiveMS < 0 || lc.CompleteMS < 0 || lc.DeviceReadyMS < 0 {
		return fmt.Errorf("%w: %s: negative lifecycle delay", ErrInvalidProfile, p.Name)
	}
	if lc.CompleteMS < lc.InteractiveMS {
		return fmt.Errorf("%w: %s: complete before interactive", ErrInvalidProfile, p.Name)
	}
	if p.Screen.PixelRatio <= 0 {
		p.Screen.PixelRatio = 1
	}
	if p.HardwareConcurrency <= 0 {
		p.HardwareConcurrency = 1
	}
	if p.Language == "" {
		p.Language = "en-US"
	}
	return nil
}

// ParseProfile decodes a profile. format is a file extension such as
// "yaml" or ".toml".
func ParseProfile(data []byte, format string) (*Profile, error) {
	var p Profile
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		if err := yaml.UnmarshalWithOptions(data, &p, yaml.DisallowUnknownField()); err != nil {
			return nil, fmt.Errorf("failed to decode yaml profile: %w", err)
		}
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode toml profile: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfile reads a profile file, choosing the decoder by extension.
func LoadProfile(file string) (*Profile, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return ParseProfile(data, filepath.Ext(file))
}

// LoadDir loads every profile under dir, recursively, keyed by name.
func LoadDir(dir string) (map[string]*Profile, error) {
	return loadFS(os.DirFS(dir))
}

func loadFS(fsys fs.FS) (map[string]*Profile, error) {
	matches, err := doublestar.Glob(fsys, profilePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob profiles: %w", err)
	}
	sort.Strings(matches)

	profiles := make(map[string]*Profile, len(matches))
	for _, match := range matches {
		data, err := fs.ReadFile(fsys, match)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", match, err)
		}
		p, err := ParseProfile(data, path.Ext(match))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", match, err)
		}
		if _, dup := profiles[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q in %s", ErrInvalidProfile, p.Name, match)
		}
		profiles[p.Name] = p
	}
	return profiles, nil
}

func builtins() map[string]*Profile {
	sub, err := fs.Sub(builtinFS, "profiles")
	if err != nil {
		panic(err)
	}
	profiles, err := loadFS(sub)
	if err != nil {
		panic(fmt.Sprintf("embedded profiles are broken: %v", err))
	}
	return profiles
}

// Builtin returns a fresh copy of an embedded profile.
func Builtin(name string) (*Profile, error) {
	p, ok := builtins()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// BuiltinNames lists the embedded profiles in name order.
func BuiltinNames() []string {
	all := builtins()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve finds a profile by name, preferring dir over the embedded set.
func Resolve(name, dir string) (*Profile, error) {
	if dir != "" {
		profiles, err := LoadDir(dir)
		if err != nil {
			return nil, err
		}
		if p, ok := profiles[name]; ok {
			return p, nil
		}
	}
	return Builtin(name)
}
