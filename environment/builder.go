package environment

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/kbukum/runkit/logger"
)

// Well-known property source names, highest precedence first.
const (
	SourceCommandLine = "commandLineArgs"
	SourceProperties  = "properties"
	SourceEnviron     = "systemEnvironment"
	SourceDotenv      = "dotenv"
	SourceDefaults    = "defaults"
)

// Reserved property keys.
const (
	// ActiveProfilesKey selects active profiles, comma-separated.
	ActiveProfilesKey = "profiles.active"
	// IncludeProfilesKey inside a profile document pulls in further profiles.
	IncludeProfilesKey = "profiles.include"
)

// Settings holds the knobs the Builder assembles an Environment from.
type Settings struct {
	// ConfigName is the base name of configuration files (default "application").
	ConfigName string `validate:"required"`
	// ConfigPaths are the external directories searched for config files.
	ConfigPaths []string `validate:"min=1,dive,required"`
	// Packaged holds configuration shipped with the binary (e.g. embed.FS).
	Packaged fs.FS
	// DotenvFile is an optional .env file loaded below the process environment.
	DotenvFile string
	// Properties are explicit runtime overrides, below command-line args.
	Properties map[string]string
	// Defaults are framework defaults, the lowest-precedence source.
	Defaults map[string]string
	// Profiles are programmatically forced active profiles.
	Profiles []string
}

// Option configures a Builder.
type Option func(*Builder)

// WithConfigName sets the configuration file base name.
func WithConfigName(name string) Option {
	return func(b *Builder) { b.settings.ConfigName = name }
}

// WithConfigPaths sets the external directories searched for config files.
func WithConfigPaths(paths ...string) Option {
	return func(b *Builder) { b.settings.ConfigPaths = paths }
}

// WithPackagedConfig sets the filesystem holding packaged configuration.
func WithPackagedConfig(fsys fs.FS) Option {
	return func(b *Builder) { b.settings.Packaged = fsys }
}

// WithDotenvFile loads the given .env file as a property source.
func WithDotenvFile(path string) Option {
	return func(b *Builder) { b.settings.DotenvFile = path }
}

// WithProperties adds explicit runtime properties.
func WithProperties(props map[string]string) Option {
	return func(b *Builder) { b.settings.Properties = props }
}

// WithDefaults sets the framework default properties.
func WithDefaults(defaults map[string]string) Option {
	return func(b *Builder) { b.settings.Defaults = defaults }
}

// WithProfiles forces the given profiles active, ahead of any selected via
// the profiles.active property.
func WithProfiles(profiles ...string) Option {
	return func(b *Builder) { b.settings.Profiles = profiles }
}

// WithLogger sets the logger used during construction.
func WithLogger(l *logger.Logger) Option {
	return func(b *Builder) { b.log = l.WithComponent("environment") }
}

// Builder assembles an Environment from command-line arguments, the process
// environment, configuration files, and framework defaults.
type Builder struct {
	args     []string
	settings Settings
	log      *logger.Logger
}

// NewBuilder creates a Builder over the raw argument vector.
func NewBuilder(args []string, opts ...Option) *Builder {
	b := &Builder{
		args: append([]string(nil), args...),
		settings: Settings{
			ConfigName:  "application",
			ConfigPaths: []string{".", "./config"},
		},
		log: logger.GetGlobalLogger().WithComponent("environment"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build constructs the Environment. Source order is fixed here and is never
// reordered afterwards. A profile include cycle aborts the build with a
// ProfileCycleError and no Environment.
func (b *Builder) Build() (*Environment, error) {
	if err := validator.New().Struct(&b.settings); err != nil {
		return nil, fmt.Errorf("environment: invalid builder settings: %w", err)
	}

	env := New()
	env.AddPropertySource(NewMapSource(SourceCommandLine, parseArgs(b.args)), PositionLast)
	if len(b.settings.Properties) > 0 {
		env.AddPropertySource(NewMapSource(SourceProperties, b.settings.Properties), PositionLast)
	}
	env.AddPropertySource(NewEnvironSource(SourceEnviron), PositionLast)
	if b.settings.DotenvFile != "" {
		if vals, err := godotenv.Read(b.settings.DotenvFile); err != nil {
			b.log.Warn("Failed to load .env file", logger.Fields(
				logger.FieldSource, b.settings.DotenvFile,
				logger.FieldError, err.Error(),
			))
		} else {
			env.AddPropertySource(NewMapSource(SourceDotenv, vals), PositionLast)
		}
	}

	// Active profiles are resolved from the sources assembled so far,
	// before any profile-specific file is added.
	active := dedupeProfiles(append(
		append([]string(nil), b.settings.Profiles...),
		splitList(env.PropertyOrDefault(ActiveProfilesKey, ""))...,
	))

	loader := newFileLoader(b.settings, b.log)

	fileProfiles := active
	if len(fileProfiles) == 0 {
		fileProfiles = env.DefaultProfiles()
	}
	expanded, err := expandProfiles(fileProfiles, b.settings.ConfigName, loader)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		env.SetActiveProfiles(expanded...)
	}

	// Profile-specific sources follow activation order: an including profile
	// overrides the profiles it pulls in, external files above packaged ones.
	for _, profile := range expanded {
		base := b.settings.ConfigName + "-" + profile
		if src := loader.external(base); src != nil {
			env.AddPropertySource(src, PositionLast)
		}
		if src := loader.packaged(base); src != nil {
			env.AddPropertySource(src, PositionLast)
		}
	}

	if src := loader.external(b.settings.ConfigName); src != nil {
		env.AddPropertySource(src, PositionLast)
	}
	if src := loader.packaged(b.settings.ConfigName); src != nil {
		env.AddPropertySource(src, PositionLast)
	}

	if len(b.settings.Defaults) > 0 {
		env.AddPropertySource(NewMapSource(SourceDefaults, b.settings.Defaults), PositionLast)
	}

	b.log.Debug("Environment built", logger.Fields(
		logger.FieldProfile, env.ActiveProfiles(),
		"sources", env.SourceNames(),
	))
	return env, nil
}

// parseArgs extracts --key=value overrides from the raw argument vector.
// A bare --flag becomes "true"; parsing stops at "--"; anything else is
// ignored.
func parseArgs(args []string) map[string]string {
	values := make(map[string]string)
	for _, arg := range args {
		if arg == "--" {
			break
		}
		body, ok := strings.CutPrefix(arg, "--")
		if !ok || body == "" {
			continue
		}
		if key, value, found := strings.Cut(body, "="); found {
			values[key] = value
		} else {
			values[body] = "true"
		}
	}
	return values
}

// splitList splits a comma-separated property value, trimming whitespace.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
