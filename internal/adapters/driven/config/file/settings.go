package file

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Settings holds the tunable configuration for docvault.
type Settings struct {
	// DataDir is where the record database lives. Empty means the
	// default under the user's home directory.
	DataDir string `toml:"data_dir"`

	// StalenessDays is the age in days after which a cached record is
	// considered stale.
	StalenessDays int `toml:"staleness_days"`

	Resolver ResolverSettings `toml:"resolver"`
}

// ResolverSettings tunes candidate scoring and paging.
type ResolverSettings struct {
	JaccardWeight       float64 `toml:"jaccard_weight"`
	LCSWeight           float64 `toml:"lcs_weight"`
	TrigramBonus        float64 `toml:"trigram_bonus"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	PageSize            int     `toml:"page_size"`
	MaxRunnersUp        int     `toml:"max_runners_up"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		StalenessDays: 7,
		Resolver: ResolverSettings{
			JaccardWeight:       0.6,
			LCSWeight:           0.4,
			TrigramBonus:        0.05,
			ConfidenceThreshold: 0.55,
			PageSize:            12,
			MaxRunnersUp:        3,
		},
	}
}

// DefaultConfigDir returns ~/.docvault, creating it if needed.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".docvault")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// Load reads settings from configDir/config.toml, merging file values
// over the defaults. A missing file yields the defaults unchanged.
func Load(configDir string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(filepath.Join(configDir, "config.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), err
	}
	return s, nil
}

// Save persists settings to configDir/config.toml with restricted
// permissions.
func Save(configDir string, s Settings) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "config.toml"), data, 0600)
}
