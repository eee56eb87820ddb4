package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScrapeConfig holds everything the browser-facing components need: target
// site, frame heuristics, retry budgets and menu handling.
type ScrapeConfig struct {
	BaseURL            string        `yaml:"base_url"`
	Headless           bool          `yaml:"headless"`
	UserAgent          string        `yaml:"user_agent,omitempty"`
	NavigationTimeout  time.Duration `yaml:"navigation_timeout,omitempty"`
	ElementTimeout     time.Duration `yaml:"element_timeout,omitempty"`
	SectionLoadDelay   time.Duration `yaml:"section_load_delay,omitempty"`
	ResultsSettleDelay time.Duration `yaml:"results_settle_delay,omitempty"`
	MaxRetries         int           `yaml:"max_retries,omitempty"`
	RetryDelay         time.Duration `yaml:"retry_delay,omitempty"`

	// Search-frame heuristics. The frame layout of the target site is not
	// stable across its releases, so every hint is configurable.
	SearchURLFragment  string `yaml:"search_url_fragment,omitempty"`
	SearchInputName    string `yaml:"search_input_name,omitempty"`
	MinSearchFrameText int    `yaml:"min_search_frame_text,omitempty"`

	// Sidebar discovery
	ScrollStep      int           `yaml:"scroll_step,omitempty"`
	MaxScrolls      int           `yaml:"max_scrolls,omitempty"`
	ScrollStallMax  int           `yaml:"scroll_stall_max,omitempty"`
	ScrollDelay     time.Duration `yaml:"scroll_delay,omitempty"`
	SkipMenuEntries []string      `yaml:"skip_menu_entries,omitempty"`
}

// StoreConfig holds persistence settings
type StoreConfig struct {
	DBPath          string `yaml:"db_path"`
	CommitBatchSize int    `yaml:"commit_batch_size,omitempty"`
	ResumeFreshDays int    `yaml:"resume_fresh_days,omitempty"`
}

// AppConfig is the global application configuration, loaded from YAML
type AppConfig struct {
	Scrape ScrapeConfig `yaml:"scrape"`
	Store  StoreConfig  `yaml:"store"`

	NumWorkers          int    `yaml:"num_workers,omitempty"`
	SessionRestartEvery int    `yaml:"session_restart_every,omitempty"`
	StateDir            string `yaml:"state_dir,omitempty"`
	InputCSV            string `yaml:"input_csv,omitempty"`
	NotifyWebhookURL    string `yaml:"notify_webhook_url,omitempty"`

	// BoilerplatePhrases is the site-boilerplate strip list used by the text
	// cleaner. Kept in config rather than code so site drift only needs a
	// config change.
	BoilerplatePhrases []string `yaml:"boilerplate_phrases,omitempty"`
}

// Load reads and parses an AppConfig from a YAML file, applying defaults
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// DefaultSkipMenuEntries are sidebar links that navigate instead of holding
// data
func DefaultSkipMenuEntries() []string {
	return []string{
		"Nouvelle recherche",
		"Version papier",
		"Retour",
		"Accueil",
	}
}

// DefaultBoilerplatePhrases are fixed site phrases that pollute extracted
// labels and must be stripped before parsing
func DefaultBoilerplatePhrases() []string {
	return []string{
		"ADiL vous informe",
		"Source : ADII",
		"Source : Administration des Douanes et Impôts Indirects",
		"Portail Internet de la Douane",
		"(*) Cf. note",
		"Cliquez ici pour",
		"Version papier",
	}
}

// ApplyDefaults fills zero-valued fields with working defaults
func (c *AppConfig) ApplyDefaults() {
	if c.Scrape.BaseURL == "" {
		c.Scrape.BaseURL = "https://www.douane.gov.ma/adil/"
	}
	if c.Scrape.NavigationTimeout == 0 {
		c.Scrape.NavigationTimeout = 30 * time.Second
	}
	if c.Scrape.ElementTimeout == 0 {
		c.Scrape.ElementTimeout = 5 * time.Second
	}
	if c.Scrape.SectionLoadDelay == 0 {
		c.Scrape.SectionLoadDelay = 1500 * time.Millisecond
	}
	if c.Scrape.ResultsSettleDelay == 0 {
		c.Scrape.ResultsSettleDelay = 2 * time.Second
	}
	if c.Scrape.MaxRetries == 0 {
		c.Scrape.MaxRetries = 3
	}
	if c.Scrape.RetryDelay == 0 {
		c.Scrape.RetryDelay = 2 * time.Second
	}
	if c.Scrape.SearchURLFragment == "" {
		c.Scrape.SearchURLFragment = "c_bas_test_1"
	}
	if c.Scrape.SearchInputName == "" {
		c.Scrape.SearchInputName = "lposition"
	}
	if c.Scrape.MinSearchFrameText == 0 {
		c.Scrape.MinSearchFrameText = 50
	}
	if c.Scrape.ScrollStep == 0 {
		c.Scrape.ScrollStep = 200
	}
	if c.Scrape.MaxScrolls == 0 {
		c.Scrape.MaxScrolls = 50
	}
	if c.Scrape.ScrollStallMax == 0 {
		c.Scrape.ScrollStallMax = 5
	}
	if c.Scrape.ScrollDelay == 0 {
		c.Scrape.ScrollDelay = 300 * time.Millisecond
	}
	if len(c.Scrape.SkipMenuEntries) == 0 {
		c.Scrape.SkipMenuEntries = DefaultSkipMenuEntries()
	}
	if c.Store.DBPath == "" {
		c.Store.DBPath = "adil.db"
	}
	if c.Store.CommitBatchSize == 0 {
		c.Store.CommitBatchSize = 25
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = 3
	}
	if c.SessionRestartEvery == 0 {
		c.SessionRestartEvery = 100
	}
	if c.StateDir == "" {
		c.StateDir = "state"
	}
	if len(c.BoilerplatePhrases) == 0 {
		c.BoilerplatePhrases = DefaultBoilerplatePhrases()
	}
}
