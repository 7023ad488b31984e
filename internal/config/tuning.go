package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical defaults file. The Get*
// accessors fall back to the same values when a field is omitted.
const DefaultConfigPath = "config/heightmap.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// TuningConfig holds the tunable parameters of one heightmap run. Every
// field is optional; nil means "use the default".
type TuningConfig struct {
	// Edge detection hysteresis thresholds
	CannyLow  *float64 `json:"canny_low,omitempty" yaml:"canny_low,omitempty"`
	CannyHigh *float64 `json:"canny_high,omitempty" yaml:"canny_high,omitempty"`

	// Binarisation. A quantile, when set, overrides the fixed threshold.
	BinarizeThreshold *int     `json:"binarize_threshold,omitempty" yaml:"binarize_threshold,omitempty"`
	BinarizeQuantile  *float64 `json:"binarize_quantile,omitempty" yaml:"binarize_quantile,omitempty"`

	ClosingPasses *int `json:"closing_passes,omitempty" yaml:"closing_passes,omitempty"`

	// Per-class layers
	Classes []int32 `json:"classes,omitempty" yaml:"classes,omitempty"`

	// Region probe paint colour
	Highlight []int `json:"highlight,omitempty" yaml:"highlight,omitempty"`

	PlotWidthCm        *float64 `json:"plot_width_cm,omitempty" yaml:"plot_width_cm,omitempty"`
	TruncatedTailFatal *bool    `json:"truncated_tail_fatal,omitempty" yaml:"truncated_tail_fatal,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with every field unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// with its default value.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		CannyLow:           ptrFloat64(1),
		CannyHigh:          ptrFloat64(80),
		BinarizeThreshold:  ptrInt(128),
		ClosingPasses:      ptrInt(1),
		Classes:            []int32{},
		Highlight:          []int{255, 0, 0},
		PlotWidthCm:        ptrFloat64(16),
		TruncatedTailFatal: ptrBool(false),
	}
}

// LoadTuningConfig loads a TuningConfig from a .json, .yaml or .yml file of
// at most 1MB. Omitted fields keep their defaults via the Get* accessors.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upward from the
// current directory. Panics if the file cannot be loaded; intended for
// tests.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/heightmap/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.CannyLow != nil && *c.CannyLow < 0 {
		return fmt.Errorf("canny_low must be non-negative, got %g", *c.CannyLow)
	}
	if c.CannyHigh != nil && *c.CannyHigh < 0 {
		return fmt.Errorf("canny_high must be non-negative, got %g", *c.CannyHigh)
	}
	if low, high := c.GetCannyLow(), c.GetCannyHigh(); low > high {
		return fmt.Errorf("canny_low (%g) must not exceed canny_high (%g)", low, high)
	}

	if c.BinarizeThreshold != nil {
		if *c.BinarizeThreshold < 0 || *c.BinarizeThreshold > 255 {
			return fmt.Errorf("binarize_threshold must be between 0 and 255, got %d", *c.BinarizeThreshold)
		}
	}
	if c.BinarizeQuantile != nil {
		if *c.BinarizeQuantile < 0 || *c.BinarizeQuantile > 1 {
			return fmt.Errorf("binarize_quantile must be between 0 and 1, got %g", *c.BinarizeQuantile)
		}
	}

	if c.ClosingPasses != nil && *c.ClosingPasses < 0 {
		return fmt.Errorf("closing_passes must be non-negative, got %d", *c.ClosingPasses)
	}

	if c.Highlight != nil {
		if len(c.Highlight) != 3 {
			return fmt.Errorf("highlight must have 3 components, got %d", len(c.Highlight))
		}
		for i, v := range c.Highlight {
			if v < 0 || v > 255 {
				return fmt.Errorf("highlight[%d] must be between 0 and 255, got %d", i, v)
			}
		}
	}

	if c.PlotWidthCm != nil && *c.PlotWidthCm <= 0 {
		return fmt.Errorf("plot_width_cm must be positive, got %g", *c.PlotWidthCm)
	}
	return nil
}

// GetCannyLow returns the canny_low value or the default.
func (c *TuningConfig) GetCannyLow() float64 {
	if c.CannyLow == nil {
		return 1
	}
	return *c.CannyLow
}

// GetCannyHigh returns the canny_high value or the default.
func (c *TuningConfig) GetCannyHigh() float64 {
	if c.CannyHigh == nil {
		return 80
	}
	return *c.CannyHigh
}

// GetBinarizeThreshold returns the binarize_threshold value or the default.
func (c *TuningConfig) GetBinarizeThreshold() uint8 {
	if c.BinarizeThreshold == nil {
		return 128
	}
	return uint8(*c.BinarizeThreshold)
}

// GetBinarizeQuantile returns the binarize_quantile value and whether it
// was set.
func (c *TuningConfig) GetBinarizeQuantile() (float64, bool) {
	if c.BinarizeQuantile == nil {
		return 0, false
	}
	return *c.BinarizeQuantile, true
}

// GetClosingPasses returns the closing_passes value or the default.
func (c *TuningConfig) GetClosingPasses() int {
	if c.ClosingPasses == nil {
		return 1
	}
	return *c.ClosingPasses
}

// GetClasses returns the per-class layer ids (none by default).
func (c *TuningConfig) GetClasses() []int32 {
	out := make([]int32, len(c.Classes))
	copy(out, c.Classes)
	return out
}

// GetHighlight returns the probe paint colour or the default red.
func (c *TuningConfig) GetHighlight() [3]uint8 {
	if len(c.Highlight) != 3 {
		return [3]uint8{255, 0, 0}
	}
	return [3]uint8{uint8(c.Highlight[0]), uint8(c.Highlight[1]), uint8(c.Highlight[2])}
}

// GetPlotWidthCm returns the plot_width_cm value or the default.
func (c *TuningConfig) GetPlotWidthCm() float64 {
	if c.PlotWidthCm == nil {
		return 16
	}
	return *c.PlotWidthCm
}

// GetTruncatedTailFatal returns the truncated_tail_fatal value or the
// default.
func (c *TuningConfig) GetTruncatedTailFatal() bool {
	if c.TruncatedTailFatal == nil {
		return false
	}
	return *c.TruncatedTailFatal
}
