package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// MinRefreshInterval bounds auto refresh.
const MinRefreshInterval = time.Minute

// Settings are user preferences persisted across sessions. The JSON form
// uses the keys accepted by Set, with the interval as a duration string.
type Settings struct {
	Theme           Theme
	Language        string
	Notifications   bool
	AutoRefresh     bool
	RefreshInterval time.Duration
}

type settingsJSON struct {
	Theme           Theme  `json:"theme"`
	Language        string `json:"language"`
	Notifications   bool   `json:"notifications"`
	AutoRefresh     bool   `json:"auto_refresh"`
	RefreshInterval string `json:"refresh_interval"`
}

func (s Settings) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingsJSON{
		Theme:           s.Theme,
		Language:        s.Language,
		Notifications:   s.Notifications,
		AutoRefresh:     s.AutoRefresh,
		RefreshInterval: s.RefreshInterval.String(),
	})
}

func (s *Settings) UnmarshalJSON(b []byte) error {
	var raw settingsJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var d time.Duration
	if raw.RefreshInterval != "" {
		var err error
		if d, err = time.ParseDuration(raw.RefreshInterval); err != nil {
			return fmt.Errorf("state: refresh_interval: %w", err)
		}
	}
	*s = Settings{
		Theme:           raw.Theme,
		Language:        raw.Language,
		Notifications:   raw.Notifications,
		AutoRefresh:     raw.AutoRefresh,
		RefreshInterval: d,
	}
	return nil
}

func DefaultSettings() Settings {
	return Settings{
		Theme:           ThemeSystem,
		Language:        "zh",
		Notifications:   true,
		AutoRefresh:     false,
		RefreshInterval: 5 * time.Minute,
	}
}

func (s Settings) Validate() error {
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return fmt.Errorf("state: invalid theme %q", s.Theme)
	}
	if s.Language != "zh" && s.Language != "en" {
		return fmt.Errorf("state: invalid language %q", s.Language)
	}
	if s.RefreshInterval < MinRefreshInterval {
		return fmt.Errorf("state: refresh interval %s below %s", s.RefreshInterval, MinRefreshInterval)
	}
	return nil
}

var settingKeys = map[string]func(*Settings, string) error{
	"theme": func(s *Settings, v string) error {
		s.Theme = Theme(strings.ToLower(v))
		return nil
	},
	"language": func(s *Settings, v string) error {
		s.Language = strings.ToLower(v)
		return nil
	},
	"notifications": func(s *Settings, v string) error {
		b, err := strconv.ParseBool(v)
		s.Notifications = b
		return err
	},
	"auto_refresh": func(s *Settings, v string) error {
		b, err := strconv.ParseBool(v)
		s.AutoRefresh = b
		return err
	},
	"refresh_interval": func(s *Settings, v string) error {
		d, err := time.ParseDuration(v)
		s.RefreshInterval = d
		return err
	},
}

// SettingKeys lists the keys accepted by Set and Get.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value into the named field and validates the result.
// s is left unchanged on error.
func (s *Settings) Set(key, value string) error {
	set, ok := settingKeys[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("state: unknown setting %q", key)
	}
	next := *s
	if err := set(&next, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("state: setting %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// Get renders the named field.
func (s Settings) Get(key string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "theme":
		return string(s.Theme), nil
	case "language":
		return s.Language, nil
	case "notifications":
		return strconv.FormatBool(s.Notifications), nil
	case "auto_refresh":
		return strconv.FormatBool(s.AutoRefresh), nil
	case "refresh_interval":
		return s.RefreshInterval.String(), nil
	default:
		return "", fmt.Errorf("state: unknown setting %q", key)
	}
}
