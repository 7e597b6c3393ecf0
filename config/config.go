// Package config reads local planner configuration files and watches them for changes.
package config

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/localplanner/planner"
)

// DefaultFrequencyHz is the control rate used when a file does not set one.
const DefaultFrequencyHz = 10.0

// Config is the contents of a planner configuration file. Attributes hold the planner tunables
// under their snake_case names; anything left out keeps its default.
type Config struct {
	Name        string                 `json:"name"`
	FrequencyHz float64                `json:"frequency_hz"`
	Attributes  map[string]interface{} `json:"attributes"`

	// Planner is Attributes decoded over planner.DefaultConfig.
	Planner planner.Config `json:"-"`

	ConfigFilePath string `json:"-"`
}

// Ensure decodes the attributes, fills in defaults and validates the result.
func (c *Config) Ensure() error {
	if c.FrequencyHz == 0 {
		c.FrequencyHz = DefaultFrequencyHz
	}
	if c.FrequencyHz < 0 {
		return goutils.NewConfigValidationError("", errors.Errorf("frequency_hz must be positive, got %v", c.FrequencyHz))
	}

	cfg, err := DecodePlannerAttributes(c.Attributes)
	if err != nil {
		return err
	}
	if err := cfg.Validate("attributes"); err != nil {
		return err
	}
	c.Planner = cfg
	return nil
}

// DecodePlannerAttributes decodes attributes over the default planner configuration. Unknown
// attribute names are an error so a misspelt tunable is not silently ignored.
func DecodePlannerAttributes(attributes map[string]interface{}) (planner.Config, error) {
	cfg := planner.DefaultConfig()
	if len(attributes) == 0 {
		return cfg, nil
	}
	// a configured footprint replaces the default outline rather than merging into it
	if _, ok := attributes["footprint"]; ok {
		cfg.Footprint = nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return planner.Config{}, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return planner.Config{}, errors.Wrap(err, "failed to decode planner attributes")
	}
	return cfg, nil
}
