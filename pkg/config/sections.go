package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mike-meow/zestify/pkg/view"
)

const (
	// SectionIDStorage is the identifier for the storage section
	SectionIDStorage = "storage"

	// SectionIDView is the identifier for the view section
	SectionIDView = "view"
)

// StorageSection says where user records and logs live.
type StorageSection struct {
	DataDir string `json:"data_dir"`
	LogDir  string `json:"log_dir"`
	mu      sync.RWMutex
}

func defaultDir(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".zestify", name)
	}
	return filepath.Join(homeDir, ".zestify", name)
}

// NewStorageSection creates a storage section rooted at ~/.zestify.
func NewStorageSection() *StorageSection {
	s := &StorageSection{}
	s.Reset()
	return s
}

func (s *StorageSection) ID() string { return SectionIDStorage }

func (s *StorageSection) Title() string { return "Storage" }

func (s *StorageSection) Description() string {
	return "Directories holding per-user memory records and session logs."
}

// Data returns the current configuration data.
func (s *StorageSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"data_dir": s.DataDir,
		"log_dir":  s.LogDir,
	}
}

// SetData updates the configuration from the provided data.
func (s *StorageSection) SetData(data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "data_dir", "log_dir":
			dir, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
			}
			dir = expandHome(dir)
			if key == "data_dir" {
				s.DataDir = dir
			} else {
				s.LogDir = dir
			}
		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
	}
	return nil
}

func expandHome(dir string) string {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(homeDir, strings.TrimPrefix(dir, "~"))
}

// Validate validates the current configuration.
func (s *StorageSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if strings.TrimSpace(s.DataDir) == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if strings.TrimSpace(s.LogDir) == "" {
		return fmt.Errorf("log_dir must not be empty")
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *StorageSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.DataDir = defaultDir("data")
	s.LogDir = defaultDir("logs")
}

// Dirs returns the data and log directories.
func (s *StorageSection) Dirs() (dataDir, logDir string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DataDir, s.LogDir
}

// ViewSection holds the horizon boundaries of the history view.
type ViewSection struct {
	RecentDays int `json:"recent_days"`
	YearDays   int `json:"year_days"`
	MaxDays    int `json:"max_days"`
	mu         sync.RWMutex
}

// NewViewSection creates a view section with the 30/365/730 day defaults.
func NewViewSection() *ViewSection {
	s := &ViewSection{}
	s.Reset()
	return s
}

func (s *ViewSection) ID() string { return SectionIDView }

func (s *ViewSection) Title() string { return "History View" }

func (s *ViewSection) Description() string {
	return "Day boundaries between the recent, past-year and second-year parts of the history view."
}

// Data returns the current configuration data.
func (s *ViewSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"recent_days": s.RecentDays,
		"year_days":   s.YearDays,
		"max_days":    s.MaxDays,
	}
}

// SetData updates the configuration from the provided data.
func (s *ViewSection) SetData(data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var dst *int
		switch key {
		case "recent_days":
			dst = &s.RecentDays
		case "year_days":
			dst = &s.YearDays
		case "max_days":
			dst = &s.MaxDays
		default:
			continue
		}
		n, err := intValue(key, value)
		if err != nil {
			return err
		}
		*dst = n
	}
	return nil
}

// intValue accepts the integer shapes JSON (float64) and YAML (int) decode to.
func intValue(key string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("invalid value for %s: %v is not a whole number", key, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, value)
	}
}

// Validate validates the current configuration.
func (s *ViewSection) Validate() error {
	return s.Horizons().Validate()
}

// Reset resets the section to default configuration.
func (s *ViewSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := view.DefaultHorizons()
	s.RecentDays, s.YearDays, s.MaxDays = h.RecentDays, h.YearDays, h.MaxDays
}

// Horizons returns the configured boundaries.
func (s *ViewSection) Horizons() view.Horizons {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view.Horizons{RecentDays: s.RecentDays, YearDays: s.YearDays, MaxDays: s.MaxDays}
}
