package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"gcpp/gcode"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	MarkersConfig struct {
		TopComment    string `yaml:"top_comment" validate:"required"`
		StartupScript string `yaml:"startup_script" validate:"required"`
		Movements     string `yaml:"movements" validate:"required"`
		EndScript     string `yaml:"end_script" validate:"required"`
		BottomComment string `yaml:"bottom_comment" validate:"required"`
	}

	LayersConfig struct {
		Prefixes []string `yaml:"prefixes" validate:"min=1,dive,required"`
	}

	DocumentConfig struct {
		Encoding              string        `yaml:"encoding"`
		Extensions            []string      `yaml:"extensions" validate:"min=1,dive,required,startswith=."`
		OutputNameTemplate    string        `yaml:"output_name_template"`
		OutputExtension       string        `yaml:"output_extension" validate:"required,startswith=."`
		FileNameTransliterate bool          `yaml:"file_name_transliterate"`
		Strict                bool          `yaml:"strict"`
		Markers               MarkersConfig `yaml:"markers"`
		Layers                LayersConfig  `yaml:"layers"`
	}

	StripCommentsConfig struct {
		Region       gcode.Region `yaml:"region"`
		KeepEmpty    bool         `yaml:"keep_empty"`
		KeepPrefixes []string     `yaml:"keep_prefixes" validate:"dive,required"`
	}

	ZCorrectConfig struct {
		Deviation        float64   `yaml:"deviation"`
		Heights          []float64 `yaml:"heights"`
		ExpectedZ        float64   `yaml:"expected_z" validate:"gte=0"`
		OutlierThreshold float64   `yaml:"outlier_threshold" validate:"gte=0"`
		MinZ             float64   `yaml:"min_z" validate:"gte=0"`
		Tolerance        float64   `yaml:"tolerance" validate:"gte=0"`
	}

	LayerScanConfig struct {
		SafetyOffset float64 `yaml:"safety_offset" validate:"gte=0"`
		ScanHeight   float64 `yaml:"scan_height" validate:"gte=0"`
		Margin       float64 `yaml:"margin" validate:"gte=0"`
		Feed         float64 `yaml:"feed" validate:"gt=0"`
		TravelFeed   float64 `yaml:"travel_feed" validate:"gt=0"`
	}

	InjectConfig struct {
		Region  gcode.Region `yaml:"region"`
		Prepend []string     `yaml:"prepend"`
		Append  []string     `yaml:"append"`
	}

	FeedScaleConfig struct {
		Factor float64 `yaml:"factor" validate:"gt=0"`
	}

	ProcessingConfig struct {
		Defaults      []string            `yaml:"defaults" validate:"dive,required"`
		StripComments StripCommentsConfig `yaml:"strip_comments"`
		ZCorrect      ZCorrectConfig      `yaml:"z_correct"`
		LayerScan     LayerScanConfig     `yaml:"layer_scan"`
		Inject        InjectConfig        `yaml:"inject"`
		FeedScale     FeedScaleConfig     `yaml:"feed_scale"`
	}

	SenderConfig struct {
		Port       string        `yaml:"port"`
		Baud       int           `yaml:"baud" validate:"oneof=9600 19200 38400 57600 115200 250000"`
		AckTimeout time.Duration `yaml:"ack_timeout" validate:"gt=0"`
	}

	Config struct {
		Version    int              `yaml:"version" validate:"eq=1"`
		Document   DocumentConfig   `yaml:"document"`
		Processing ProcessingConfig `yaml:"processing"`
		Sender     SenderConfig     `yaml:"sender"`
		Logging    LoggingConfig    `yaml:"logging"`
		Reporting  ReporterConfig   `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// Catalog returns region catalog built from configured end markers.
func (conf *DocumentConfig) Catalog() (gcode.Catalog, error) {
	m := conf.Markers
	return gcode.NewCatalog(m.TopComment, m.StartupScript, m.Movements, m.EndScript, m.BottomComment)
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		if _, err := cfg.Document.Catalog(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
