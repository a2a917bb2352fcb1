// Package config loads the launcher configuration: defaults first, then
// an optional YAML file, then TELCAT_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"telcat/pkg/launch"
)

const (
	// DefaultImageName and DefaultImageTag form the fixed image reference
	// the launcher targets unless overridden.
	DefaultImageName = "telcat"
	DefaultImageTag  = "latest"

	defaultDockerfile = "Dockerfile"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Config holds the resolved launcher configuration.
type Config struct {
	Image ImageConfig `mapstructure:"image" validate:"required"`
	Build BuildConfig `mapstructure:"build" validate:"required"`
}

// ImageConfig names the target image.
type ImageConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	Tag  string `mapstructure:"tag" validate:"required"`
}

// BuildConfig locates the build specification.
type BuildConfig struct {
	// ContextDir is the build context directory. Empty means the
	// directory the launcher executable lives in.
	ContextDir string `mapstructure:"contextDir"`
	// Dockerfile is the build specification file within the context.
	Dockerfile string `mapstructure:"dockerfile" validate:"required"`
	// NoCache disables the builder's layer cache. Builds, including
	// rebuilds, reuse cached layers unless this is set.
	NoCache bool `mapstructure:"noCache"`
}

// Ref returns the image reference the launcher targets.
func (c *Config) Ref() launch.ImageRef {
	return launch.ImageRef{Name: c.Image.Name, Tag: c.Image.Tag}
}

// ContextDir resolves the build context directory. Without an override it
// is the launcher's own directory, not the invoker's working directory.
func (c *Config) ContextDir() (string, error) {
	if c.Build.ContextDir != "" {
		abs, err := filepath.Abs(c.Build.ContextDir)
		if err != nil {
			return "", fmt.Errorf("failed to resolve build context directory %s: %w", c.Build.ContextDir, err)
		}
		return abs, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate launcher executable: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve launcher executable path: %w", err)
	}
	return filepath.Dir(exe), nil
}

// Load reads the configuration. filePath may be empty; when given, the
// file must exist and parse.
func Load(filePath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("image.name", DefaultImageName)
	v.SetDefault("image.tag", DefaultImageTag)
	v.SetDefault("build.contextDir", "")
	v.SetDefault("build.dockerfile", defaultDockerfile)
	v.SetDefault("build.noCache", false)

	v.SetEnvPrefix("TELCAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filePath != "" {
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", filePath)
		}
		v.SetConfigFile(filePath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config - malformed YAML: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, formatValidationError(err)
	}

	return &cfg, nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, formatFieldError(e))
		}

		if len(errorMessages) == 1 {
			return fmt.Errorf("validation error: %s", errorMessages[0])
		}

		result := "validation errors:\n"
		for _, msg := range errorMessages {
			result += fmt.Sprintf("  - %s\n", msg)
		}
		return fmt.Errorf("%s", result)
	}
	return fmt.Errorf("validation failed: %w", err)
}

// formatFieldError formats a single validation error into a user-friendly message.
func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("field '%s' is required but missing", field)
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("field '%s' failed validation (%s)", field, tag)
	}
}
