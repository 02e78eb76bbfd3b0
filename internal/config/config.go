package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version  int           `toml:"version"`
	ScanPath string        `toml:"scan_path"`
	Timeout  time.Duration `toml:"timeout"`
	Exclude  Exclude       `toml:"exclude"`
	Extract  Extract       `toml:"extract"`
	Classify Classify      `toml:"classify"`
	Detect   Detect        `toml:"detect"`
	Output   Output        `toml:"output"`
	History  History       `toml:"history"`
	Watch    Watch         `toml:"watch"`
	Metrics  Metrics       `toml:"metrics"`
}

type Exclude struct {
	Dirs         []string `toml:"dirs"`
	Files        []string `toml:"files"`
	UseGitignore *bool    `toml:"use_gitignore"`
	SkipRootInit *bool    `toml:"skip_root_init"`
}

type Extract struct {
	// MarkerType is the structural-typing root a class must inherit from to
	// qualify as an interface declaration.
	MarkerType string `toml:"marker_type"`
	// NamePrefix is the naming convention qualifying declarations must match.
	NamePrefix string `toml:"name_prefix"`
	// RuntimeCheckableDecorator marks declarations that opted into runtime
	// structural checks.
	RuntimeCheckableDecorator string `toml:"runtime_checkable_decorator"`
	// QuickSkip avoids parsing files whose raw text never mentions the marker
	// type. Misses marker types imported under an alias; see DESIGN.md.
	QuickSkip *bool `toml:"quick_skip"`
	// DocstringBoilerplate phrases are stripped before docstrings are hashed.
	DocstringBoilerplate []string `toml:"docstring_boilerplate"`
}

// VocabEntry maps a matched token to a domain tag. Entries are ordered;
// the first match wins.
type VocabEntry struct {
	Token  string `toml:"token"`
	Domain string `toml:"domain"`
}

type Classify struct {
	PathDomains      []VocabEntry `toml:"path_domains"`
	NameDomains      []VocabEntry `toml:"name_domains"`
	DocstringDomains []VocabEntry `toml:"docstring_domains"`
}

type Detect struct {
	BatchMarkers          []string `toml:"batch_markers"`
	LayerKeywords         []string `toml:"layer_keywords"`
	PropertyDiffThreshold int      `toml:"property_diff_threshold"`
	AllowedConflicts      []string `toml:"allowed_conflicts"`
}

type Output struct {
	ReportPath string `toml:"report"`
	PlanPath   string `toml:"plan"`
	SARIFPath  string `toml:"sarif"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Debounce        time.Duration `toml:"debounce"`
	RescanPerSecond float64       `toml:"rescan_per_second"`
}

type Metrics struct {
	Listen string `toml:"listen"`
}

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateExtract(&cfg); err != nil {
		return nil, err
	}
	if err := validateClassify(&cfg); err != nil {
		return nil, err
	}
	if err := validateDetect(&cfg); err != nil {
		return nil, err
	}
	if err := validateHistory(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.ScanPath) == "" {
		cfg.ScanPath = "src/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{"__pycache__", ".git", ".venv", "node_modules", "vendor"}
	}
	if len(cfg.Exclude.Files) == 0 {
		cfg.Exclude.Files = []string{"test_*.py", "*_test.py", "conftest.py", "*_test.go", "*_pb2.py", "*.gen.go"}
	}
	if cfg.Exclude.UseGitignore == nil {
		cfg.Exclude.UseGitignore = boolPtr(true)
	}
	if cfg.Exclude.SkipRootInit == nil {
		cfg.Exclude.SkipRootInit = boolPtr(true)
	}

	if strings.TrimSpace(cfg.Extract.MarkerType) == "" {
		cfg.Extract.MarkerType = "Protocol"
	}
	if strings.TrimSpace(cfg.Extract.NamePrefix) == "" {
		cfg.Extract.NamePrefix = "Protocol"
	}
	if strings.TrimSpace(cfg.Extract.RuntimeCheckableDecorator) == "" {
		cfg.Extract.RuntimeCheckableDecorator = "runtime_checkable"
	}
	if cfg.Extract.QuickSkip == nil {
		cfg.Extract.QuickSkip = boolPtr(true)
	}
	if len(cfg.Extract.DocstringBoilerplate) == 0 {
		cfg.Extract.DocstringBoilerplate = []string{
			"protocol for",
			"protocol defining",
			"interface for",
			"interface defining",
			"spi protocol",
		}
	}

	if len(cfg.Classify.PathDomains) == 0 {
		cfg.Classify.PathDomains = []VocabEntry{
			{Token: "workflow_orchestration", Domain: "workflow"},
			{Token: "mcp", Domain: "mcp"},
			{Token: "event_bus", Domain: "events"},
			{Token: "container", Domain: "container"},
			{Token: "core", Domain: "core"},
			{Token: "types", Domain: "types"},
			{Token: "file_handling", Domain: "file_handling"},
			{Token: "validation", Domain: "validation"},
			{Token: "memory", Domain: "memory"},
		}
	}
	if len(cfg.Classify.NameDomains) == 0 {
		cfg.Classify.NameDomains = []VocabEntry{
			{Token: "workflow", Domain: "workflow"},
			{Token: "mcp", Domain: "mcp"},
			{Token: "event", Domain: "events"},
			{Token: "container", Domain: "container"},
			{Token: "file", Domain: "file_handling"},
			{Token: "validat", Domain: "validation"},
			{Token: "memory", Domain: "memory"},
		}
	}
	if len(cfg.Classify.DocstringDomains) == 0 {
		cfg.Classify.DocstringDomains = append([]VocabEntry(nil), cfg.Classify.NameDomains...)
	}

	if len(cfg.Detect.BatchMarkers) == 0 {
		cfg.Detect.BatchMarkers = []string{"Batch"}
	}
	if len(cfg.Detect.LayerKeywords) == 0 {
		cfg.Detect.LayerKeywords = []string{"Workflow", "Onex", "Node", "Agent", "Service", "Memory", "Event", "MCP"}
	}
	if cfg.Detect.PropertyDiffThreshold <= 0 {
		cfg.Detect.PropertyDiffThreshold = 2
	}

	if strings.TrimSpace(cfg.Output.ReportPath) == "" {
		cfg.Output.ReportPath = "spi_protocol_analysis.json"
	}
	if strings.TrimSpace(cfg.Output.PlanPath) == "" {
		cfg.Output.PlanPath = "spi_protocol_migration_plan.json"
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "protoscan_history.db"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RescanPerSecond <= 0 {
		cfg.Watch.RescanPerSecond = 1.0
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateExtract(cfg *Config) error {
	if strings.ContainsAny(cfg.Extract.MarkerType, " \t") {
		return fmt.Errorf("extract.marker_type must be a single token, got %q", cfg.Extract.MarkerType)
	}
	if strings.ContainsAny(cfg.Extract.NamePrefix, " \t") {
		return fmt.Errorf("extract.name_prefix must be a single token, got %q", cfg.Extract.NamePrefix)
	}
	return nil
}

func validateClassify(cfg *Config) error {
	vocabularies := map[string][]VocabEntry{
		"classify.path_domains":      cfg.Classify.PathDomains,
		"classify.name_domains":      cfg.Classify.NameDomains,
		"classify.docstring_domains": cfg.Classify.DocstringDomains,
	}
	for name, entries := range vocabularies {
		seen := make(map[string]bool, len(entries))
		for i, entry := range entries {
			ref := fmt.Sprintf("%s[%d]", name, i)
			if strings.TrimSpace(entry.Token) == "" {
				return fmt.Errorf("%s.token must not be empty", ref)
			}
			if strings.TrimSpace(entry.Domain) == "" {
				return fmt.Errorf("%s.domain must not be empty", ref)
			}
			if seen[entry.Token] {
				return fmt.Errorf("duplicate token %q in %s", entry.Token, name)
			}
			seen[entry.Token] = true
		}
	}
	return nil
}

func validateDetect(cfg *Config) error {
	for i, marker := range cfg.Detect.BatchMarkers {
		if strings.TrimSpace(marker) == "" {
			return fmt.Errorf("detect.batch_markers[%d] must not be empty", i)
		}
	}
	seen := make(map[string]bool, len(cfg.Detect.LayerKeywords))
	for i, kw := range cfg.Detect.LayerKeywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("detect.layer_keywords[%d] must not be empty", i)
		}
		if seen[kw] {
			return fmt.Errorf("duplicate layer keyword %q", kw)
		}
		seen[kw] = true
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	return nil
}

func (e Exclude) GitignoreEnabled() bool {
	return e.UseGitignore == nil || *e.UseGitignore
}

func (e Exclude) RootInitSkipped() bool {
	return e.SkipRootInit == nil || *e.SkipRootInit
}

func (x Extract) QuickSkipEnabled() bool {
	return x.QuickSkip == nil || *x.QuickSkip
}

func boolPtr(b bool) *bool {
	return &b
}
