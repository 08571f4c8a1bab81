package prefs

// ThemeKey is the preference key holding the theme.
const ThemeKey = "theme"

// Theme is the light/dark display preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), true
	}
	return "", false
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// IsDark reports whether t is the dark theme.
func (t Theme) IsDark() bool { return t == Dark }

// LoadTheme reads the stored theme. A missing or unreadable value yields Light.
func LoadTheme(s Store) Theme {
	v, ok, err := s.GetString(ThemeKey)
	if err != nil || !ok {
		return Light
	}
	if t, ok := ParseTheme(v); ok {
		return t
	}
	return Light
}

// SaveTheme persists t.
func SaveTheme(s Store, t Theme) error {
	return s.SetString(ThemeKey, string(t))
}
