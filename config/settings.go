package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server    ServerSettings    `json:"server"`
	Source    SourceSettings    `json:"source"`
	Secondary SecondarySettings `json:"secondary"`
	Providers ProviderSettings  `json:"providers"`
	Log       LogConfig         `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// SourceSettings configures the primary scrape source and the fetch behavior
// used against it.
type SourceSettings struct {
	BaseURL           string   `json:"baseUrl"`
	SessionTTLMinutes int      `json:"sessionTtlMinutes"`
	MinIntervalMs     int      `json:"minIntervalMs"`
	TimeoutSeconds    int      `json:"timeoutSeconds"`
	UserAgents        []string `json:"userAgents"`
	// Proxies is an optional pool of proxy URLs (http://, https:// or
	// socks5://) used on retry attempts against the primary source.
	Proxies []string `json:"proxies"`
}

// SecondarySettings configures the fallback scrape sources consulted when the
// primary source is blocking.
type SecondarySettings struct {
	DramacoolBaseURL string `json:"dramacoolBaseUrl"`
	AsiaflixBaseURL  string `json:"asiaflixBaseUrl"`
}

// ProviderSettings holds the external metadata registry credentials. The MDL
// key is feature-disabling: alias expansion is skipped while it is the
// placeholder value.
type ProviderSettings struct {
	TMDBAPIKey string `json:"tmdbApiKey"`
	OMDBAPIKey string `json:"omdbApiKey"`
	MDLAPIKey  string `json:"mdlApiKey"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

const mdlPlaceholderKey = "YOUR_MDL_API_KEY"

// DefaultSettings returns the settings written on first run.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Source: SourceSettings{
			BaseURL:           "https://kisskh.co",
			SessionTTLMinutes: 30,
			MinIntervalMs:     750,
			TimeoutSeconds:    15,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
				"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0",
			},
		},
		Secondary: SecondarySettings{
			DramacoolBaseURL: "https://dramacoolt.lv",
			AsiaflixBaseURL:  "https://asiaflix.net",
		},
		Providers: ProviderSettings{
			TMDBAPIKey: "2553973ce2cb1e0012700c51af701f43",
			OMDBAPIKey: "e70e02e",
			MDLAPIKey:  mdlPlaceholderKey,
		},
		Log: LogConfig{
			File:       filepath.Join("cache", "dramabridge.log"),
			MaxSize:    20,
			MaxAge:     14,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

// MDLEnabled reports whether the alias-registry provider is configured with a
// real credential.
func (p ProviderSettings) MDLEnabled() bool {
	return p.MDLAPIKey != "" && p.MDLAPIKey != mdlPlaceholderKey
}

// Manager loads and saves settings at a fixed path.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// Load reads settings from disk, creating the file with defaults when it does
// not exist yet. Missing fields fall back to their defaults.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	s := DefaultSettings()
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}
	applyDefaults(&s)
	return s, nil
}

// Save writes settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}

// applyDefaults backfills zero values a hand-edited config may have dropped.
func applyDefaults(s *Settings) {
	d := DefaultSettings()
	if s.Server.Port == 0 {
		s.Server.Port = d.Server.Port
	}
	if s.Server.Host == "" {
		s.Server.Host = d.Server.Host
	}
	if s.Source.BaseURL == "" {
		s.Source.BaseURL = d.Source.BaseURL
	}
	if s.Source.SessionTTLMinutes <= 0 {
		s.Source.SessionTTLMinutes = d.Source.SessionTTLMinutes
	}
	if s.Source.MinIntervalMs <= 0 {
		s.Source.MinIntervalMs = d.Source.MinIntervalMs
	}
	if s.Source.TimeoutSeconds <= 0 {
		s.Source.TimeoutSeconds = d.Source.TimeoutSeconds
	}
	if len(s.Source.UserAgents) == 0 {
		s.Source.UserAgents = d.Source.UserAgents
	}
	if s.Secondary.DramacoolBaseURL == "" {
		s.Secondary.DramacoolBaseURL = d.Secondary.DramacoolBaseURL
	}
	if s.Secondary.AsiaflixBaseURL == "" {
		s.Secondary.AsiaflixBaseURL = d.Secondary.AsiaflixBaseURL
	}
}
