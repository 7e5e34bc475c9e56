// internal/config/config.go
//
// This package handles nbtidy configuration: which notebook to operate on and
// the named constants the definition pass writes into the guarded cell.
// Every value has a built-in default, so a config file is optional.

package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file looked up in the working directory.
	FileName = ".nbtidy.yaml"
	// EnvPath names the environment variable that points at a config file.
	EnvPath = "NBTIDY_CONFIG"

	DefaultNotebook    = "dataAnalysis/merged_collaboration_analysis_complete.ipynb"
	DefaultSymbol      = "game_type_order"
	DefaultSentinelTag = "auto-inserted"
)

// DefaultOrder is the category list used when a notebook carries no literal.
var DefaultOrder = []string{"human", "gpt-4.1-mini", "individual_rl", "joint_rl"}

// DefaultLabels maps categories to display names, in display order.
var DefaultLabels = LabelTable{
	{Key: "human", Label: "Human"},
	{Key: "gpt-4.1-mini", Label: "GPT-4.1-mini"},
	{Key: "individual_rl", Label: "Individual RL"},
	{Key: "joint_rl", Label: "Joint RL"},
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Label is one entry of the pretty-name table.
type Label struct {
	Key   string
	Label string
}

// LabelTable is an ordered pretty-name table. In YAML it is written as a
// mapping; entry order is kept.
type LabelTable []Label

// UnmarshalYAML decodes a mapping node, keeping key order.
func (t *LabelTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: labels must be a mapping", node.Line)
	}
	table := make(LabelTable, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var entry Label
		if err := node.Content[i].Decode(&entry.Key); err != nil {
			return errors.Wrapf(err, "line %d: label key", node.Content[i].Line)
		}
		if err := node.Content[i+1].Decode(&entry.Label); err != nil {
			return errors.Wrapf(err, "line %d: label for %s", node.Content[i+1].Line, entry.Key)
		}
		table = append(table, entry)
	}
	*t = table
	return nil
}

// DefineConfig configures the definition pass.
type DefineConfig struct {
	Symbol       string     `yaml:"symbol"`
	LabelsSymbol string     `yaml:"labels_symbol"`
	SentinelTag  string     `yaml:"sentinel_tag"`
	DefaultOrder []string   `yaml:"default_order"`
	Labels       LabelTable `yaml:"labels"`
}

// Config models .nbtidy.yaml.
type Config struct {
	Version  int          `yaml:"version"`
	Notebook string       `yaml:"notebook"`
	Define   DefineConfig `yaml:"define"`

	// Path is the file the config was read from; empty for built-in defaults.
	Path string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Discover resolves the config file to use: the explicit path if given, then
// $NBTIDY_CONFIG, then .nbtidy.yaml in dir. Explicit and environment paths
// must exist; a missing .nbtidy.yaml yields the defaults.
func Discover(explicit, dir string) (*Config, error) {
	if path := strings.TrimSpace(explicit); path != "" {
		return Load(path)
	}
	if path := strings.TrimSpace(os.Getenv(EnvPath)); path != "" {
		return Load(path)
	}
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "config: stat %s", path)
	}
	return Load(path)
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	cfg, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes YAML config data. Relative notebook paths are resolved
// against base.
func Parse(data []byte, base string) (*Config, error) {
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	parsed.applyDefaults()
	parsed.normalize(base)
	if err := parsed.validate(); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// LabelsSymbolFor derives the labels variable from the order variable:
// game_type_order becomes game_type_labels.
func LabelsSymbolFor(symbol string) string {
	if strings.HasSuffix(symbol, "_order") {
		return strings.TrimSuffix(symbol, "_order") + "_labels"
	}
	return symbol + "_labels"
}

// WithDefaults returns a copy of d with empty members filled from the
// built-in defaults.
func (d DefineConfig) WithDefaults() DefineConfig {
	d.applyDefaults()
	return d
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if strings.TrimSpace(c.Notebook) == "" {
		c.Notebook = DefaultNotebook
	}
	c.Define.applyDefaults()
}

func (d *DefineConfig) applyDefaults() {
	if strings.TrimSpace(d.Symbol) == "" {
		d.Symbol = DefaultSymbol
	}
	if strings.TrimSpace(d.LabelsSymbol) == "" {
		d.LabelsSymbol = LabelsSymbolFor(strings.TrimSpace(d.Symbol))
	}
	if strings.TrimSpace(d.SentinelTag) == "" {
		d.SentinelTag = DefaultSentinelTag
	}
	if d.DefaultOrder == nil {
		d.DefaultOrder = append([]string{}, DefaultOrder...)
	}
	if d.Labels == nil {
		d.Labels = append(LabelTable{}, DefaultLabels...)
	}
}

func (c *Config) normalize(base string) {
	if base != "" {
		c.Notebook = resolvePath(base, c.Notebook)
	} else {
		c.Notebook = strings.TrimSpace(c.Notebook)
	}
	c.Define.Symbol = strings.TrimSpace(c.Define.Symbol)
	c.Define.LabelsSymbol = strings.TrimSpace(c.Define.LabelsSymbol)
	c.Define.SentinelTag = strings.TrimSpace(c.Define.SentinelTag)
}

func (c *Config) validate() error {
	if c.Version < 1 {
		return errors.New("config version must be >= 1")
	}
	d := c.Define
	if !identifierPattern.MatchString(d.Symbol) {
		return errors.Errorf("define.symbol %q is not an identifier", d.Symbol)
	}
	if !identifierPattern.MatchString(d.LabelsSymbol) {
		return errors.Errorf("define.labels_symbol %q is not an identifier", d.LabelsSymbol)
	}
	if d.LabelsSymbol == d.Symbol {
		return errors.New("define.labels_symbol must differ from define.symbol")
	}
	if len(d.DefaultOrder) == 0 {
		return errors.New("define.default_order must not be empty")
	}
	for i, entry := range d.DefaultOrder {
		if entry == "" {
			return errors.Errorf("define.default_order[%d] is empty", i)
		}
	}
	seen := map[string]bool{}
	for _, entry := range d.Labels {
		if seen[entry.Key] {
			return errors.Errorf("define.labels: duplicate key %q", entry.Key)
		}
		seen[entry.Key] = true
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
