// Package config loads formwizard settings from a YAML file, FORMWIZARD_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formwizard/pkg/steps"
)

// ErrInvalid wraps every validation failure returned by Load and Validate.
var ErrInvalid = errors.New("config: invalid")

// EnvPrefix is prepended to environment overrides, e.g. FORMWIZARD_LOG_LEVEL.
const EnvPrefix = "FORMWIZARD"

// FileName is the config file looked up in the working directory.
const FileName = "formwizard"

// Config holds all configuration options.
type Config struct {
	Addr          string            `mapstructure:"addr" validate:"required"`
	Grace         time.Duration     `mapstructure:"grace" validate:"gte=0"`
	SessionTTL    time.Duration     `mapstructure:"session_ttl" validate:"gt=0"`
	PreviewPrefix string            `mapstructure:"preview_prefix" validate:"required,startswith=/,endswith=/"`
	MaxUploadMB   int64             `mapstructure:"max_upload_mb" validate:"gte=1,lte=100"`
	Renderer      string            `mapstructure:"renderer" validate:"oneof=vanilla tui"`
	Output        string            `mapstructure:"output" validate:"oneof=json pretty form"`
	Catalog       string            `mapstructure:"catalog"`
	TemplatesDir  string            `mapstructure:"templates_dir"`
	DetailsRule   string            `mapstructure:"details_rule"`
	Messages      map[string]string `mapstructure:"messages" validate:"dive,keys,oneof=category tier title description,endkeys,required"`
	Log           LogConfig         `mapstructure:"log"`
	Theme         ThemeConfig       `mapstructure:"theme"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// ThemeConfig names the go-theme theme and variant used by the HTML
// renderer. An empty name renders without a theme.
type ThemeConfig struct {
	Name    string `mapstructure:"name"`
	Variant string `mapstructure:"variant" validate:"excluded_without=Name"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Addr:          ":8383",
		Grace:         5 * time.Second,
		SessionTTL:    30 * time.Minute,
		PreviewPrefix: "/previews/",
		MaxUploadMB:   32,
		Renderer:      "vanilla",
		Output:        "json",
		DetailsRule:   steps.FreeTierRule,
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers every default on v so environment overrides apply
// to all keys.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("grace", d.Grace)
	v.SetDefault("session_ttl", d.SessionTTL)
	v.SetDefault("preview_prefix", d.PreviewPrefix)
	v.SetDefault("max_upload_mb", d.MaxUploadMB)
	v.SetDefault("renderer", d.Renderer)
	v.SetDefault("output", d.Output)
	v.SetDefault("catalog", d.Catalog)
	v.SetDefault("templates_dir", d.TemplatesDir)
	v.SetDefault("details_rule", d.DetailsRule)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("theme.name", d.Theme.Name)
	v.SetDefault("theme.variant", d.Theme.Variant)
}

// Load reads path, or formwizard.yaml from the working directory when path
// is empty, layers FORMWIZARD_* environment variables over it and validates
// the result. A missing default file is not an error; a missing explicit
// one is.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// Validate checks c against its struct tags and reports every failing key.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s: %s=%s", key, fe.Tag(), fe.Param()))
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s", key, fe.Tag()))
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
