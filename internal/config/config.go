// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/fairscore/fairscore/pkg/constants"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for fairscore.
type Configuration struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
}

// AnalysisConfig holds the decision engine parameters.
type AnalysisConfig struct {
	// TargetRate is the fraction of applicants to approve, globally under
	// the opportunity policy and per subgroup under the outcomes policy.
	TargetRate float64 `yaml:"targetRate" validate:"gte=0,lte=1"`
}

// DatasetConfig points at the applicant CSV input.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
	Format     string `yaml:"format,omitempty" validate:"omitempty,oneof=json console"`
	OutputFile string `yaml:"outputFile,omitempty"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=pretty csv json"`

	// DecisionsFile, when set, receives the serialized decisions JSON in
	// addition to stdout output.
	DecisionsFile string `yaml:"decisionsFile,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.AutomaticEnv()
	v.SetDefault("analysis.targetRate", constants.DefaultTargetRate)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return unmarshal(v)
}

// LoadConfigurationFromReader loads YAML configuration from an in-memory
// source, e.g. an uploaded file.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetDefault("analysis.targetRate", constants.DefaultTargetRate)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if err := validator.New().Struct(&configuration); err != nil {
		var fields []string
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return nil, fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration
// and returns warnings for settings that are legal but probably unintended.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.Analysis.TargetRate == 0 {
		warnings = append(warnings, "target rate is 0; every applicant will be denied under both policies")
	}
	if c.Analysis.TargetRate == 1 {
		warnings = append(warnings, "target rate is 1; every applicant will be approved under both policies")
	}
	if c.Dataset.Path == "" {
		warnings = append(warnings, "no dataset path configured; an applicant CSV must be supplied on the command line or via the API")
	}

	return warnings
}
