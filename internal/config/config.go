// Package config defines the configuration model of a placeetl run. A
// pipeline file is YAML (JSON files decode too, being valid YAML); values
// absent from the file keep the defaults of DefaultPipeline, and CLI flags
// override both.
//
// Example (trimmed):
//
//	job: canvas-2017
//	inputs: [data/2017.csv, data/2022_place_canvas_history.csv.gz]
//	storage: { kind: sqlite, dsn: placements.db }
//	runtime: { tile_threshold: 5461, rectangle_threshold: 10, normalize_workers: 4 }
//	logging: { level: info, format: json }
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `yaml:"job" json:"job"`

	// Inputs lists the CSV files processed in order. "-" reads stdin.
	Inputs []string `yaml:"inputs" json:"inputs"`

	// Parser configures the CSV reader.
	Parser Parser `yaml:"parser" json:"parser"`

	// Storage describes where normalized records are written.
	Storage Storage `yaml:"storage" json:"storage"`

	Runtime RuntimeConfig `yaml:"runtime" json:"runtime"`
	Logging Logging       `yaml:"logging" json:"logging"`
	Metrics Metrics       `yaml:"metrics" json:"metrics"`

	// RejectLog, when set, receives one CSV row per rejected input line.
	RejectLog string `yaml:"reject_log" json:"reject_log"`

	// Echo prints every normalized record to stdout.
	Echo bool `yaml:"echo" json:"echo"`
}

// Parser holds CSV reader settings. Options keys: comma (string),
// trim_space (bool), lazy_quotes (bool).
type Parser struct {
	Options Options `yaml:"options" json:"options"`
}

// Storage selects the sink used to persist normalized records.
type Storage struct {
	// Kind selects the backend: sqlite, postgres, mssql or mysql.
	Kind string `yaml:"kind" json:"kind"`

	// DSN is passed to the backend unchanged. For sqlite a plain path works.
	DSN string `yaml:"dsn" json:"dsn"`

	// Bootstrap drops and recreates the destination tables before loading.
	Bootstrap bool `yaml:"bootstrap" json:"bootstrap"`
}

// RuntimeConfig controls batching and concurrency. Zero thresholds select the
// built-in defaults, lowered to the backend's parameter limit.
type RuntimeConfig struct {
	TileThreshold      int `yaml:"tile_threshold" json:"tile_threshold"`
	RectangleThreshold int `yaml:"rectangle_threshold" json:"rectangle_threshold"`
	NormalizeWorkers   int `yaml:"normalize_workers" json:"normalize_workers"`
	ChannelBuffer      int `yaml:"channel_buffer" json:"channel_buffer"`
	MaxErrorSamples    int `yaml:"max_error_samples" json:"max_error_samples"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json or console
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	// Backend is none, pushgateway or datadog.
	Backend        string `yaml:"backend" json:"backend"`
	PushgatewayURL string `yaml:"pushgateway_url" json:"pushgateway_url"`
	DatadogAddr    string `yaml:"datadog_addr" json:"datadog_addr"`
}

// DefaultPipeline returns the configuration used when no file is given.
func DefaultPipeline() Pipeline {
	return Pipeline{
		Job:    "placeetl",
		Inputs: nil,
		Parser: Parser{Options: Options{}},
		Storage: Storage{
			Kind:      "sqlite",
			DSN:       "placements.db",
			Bootstrap: true,
		},
		Runtime: RuntimeConfig{
			NormalizeWorkers: 1,
			ChannelBuffer:    1024,
			MaxErrorSamples:  10,
		},
		Logging: Logging{Level: "info", Format: "json"},
		Metrics: Metrics{Backend: "none"},
	}
}

// Load reads a pipeline file on top of DefaultPipeline. An empty path returns
// the defaults.
func Load(path string) (Pipeline, error) {
	p := DefaultPipeline()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, &p); err != nil {
		return p, fmt.Errorf("parse config %s: %w", path, err)
	}
	return p, nil
}

// Decode unmarshals YAML or JSON into p, keeping values of p the document
// does not mention.
func Decode(data []byte, p *Pipeline) error {
	if err := yaml.Unmarshal(data, p); err != nil {
		return err
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	return nil
}

// ApplyEnv fills unset metrics settings from METRICS_BACKEND, PUSHGATEWAY_URL
// and DD_AGENT_ADDR.
func (p *Pipeline) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("METRICS_BACKEND"); v != "" && (p.Metrics.Backend == "" || p.Metrics.Backend == "none") {
		p.Metrics.Backend = v
	}
	if v := getenv("PUSHGATEWAY_URL"); v != "" && p.Metrics.PushgatewayURL == "" {
		p.Metrics.PushgatewayURL = v
	}
	if v := getenv("DD_AGENT_ADDR"); v != "" && p.Metrics.DatadogAddr == "" {
		p.Metrics.DatadogAddr = v
	}
}

// Options is a small helper to fetch typed values from free-form maps. It
// performs only minimal type coercion and returns the provided default when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. YAML decodes integers as int and
// JSON-style numbers may arrive as float64; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for the CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}
