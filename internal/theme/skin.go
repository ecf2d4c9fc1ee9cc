package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Palette is the set of colours one mode draws with.
type Palette struct {
	Background lipgloss.Color `yaml:"background"`
	Foreground lipgloss.Color `yaml:"foreground"`
	Muted      lipgloss.Color `yaml:"muted"`
	Border     lipgloss.Color `yaml:"border"`
	Accent     lipgloss.Color `yaml:"accent"`
	Prompt     lipgloss.Color `yaml:"prompt"`
	Response   lipgloss.Color `yaml:"response"`
	Error      lipgloss.Color `yaml:"error"`
	Chart      lipgloss.Color `yaml:"chart"`
	Favorite   lipgloss.Color `yaml:"favorite"`
	Selection  lipgloss.Color `yaml:"selection"`
}

// Skin is a named pair of palettes, loaded from
// <config dir>/skins/<name>.yml.
type Skin struct {
	Name  string  `yaml:"name"`
	Dark  Palette `yaml:"dark"`
	Light Palette `yaml:"light"`
}

// DefaultSkin is used when no skin is configured.
var DefaultSkin = Skin{
	Name: "default",
	Dark: Palette{
		Background: "#1e1e1e",
		Foreground: "#d4d4d4",
		Muted:      "#808080",
		Border:     "#333333",
		Accent:     "#569cd6",
		Prompt:     "#4ec9b0",
		Response:   "#d4d4d4",
		Error:      "#f44747",
		Chart:      "#569cd6",
		Favorite:   "#dcdcaa",
		Selection:  "#264f78",
	},
	Light: Palette{
		Background: "#ffffff",
		Foreground: "#1e1e1e",
		Muted:      "#6a6a6a",
		Border:     "#d0d0d0",
		Accent:     "#0066b8",
		Prompt:     "#267f99",
		Response:   "#1e1e1e",
		Error:      "#cd3131",
		Chart:      "#0066b8",
		Favorite:   "#b8860b",
		Selection:  "#add6ff",
	},
}

// LoadSkin reads a skin by name. An empty name or "default" returns
// DefaultSkin. Colours a skin leaves out fall back to the default.
func LoadSkin(name, configDir string) (Skin, error) {
	if name == "" || name == DefaultSkin.Name {
		return DefaultSkin, nil
	}

	path := filepath.Join(configDir, "skins", name+".yml")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// .yaml is accepted too
		path = filepath.Join(configDir, "skins", name+".yaml")
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return DefaultSkin, fmt.Errorf("theme: read skin %q: %w", name, err)
	}

	var skin Skin
	if err := yaml.Unmarshal(data, &skin); err != nil {
		return DefaultSkin, fmt.Errorf("theme: parse skin %s: %w", path, err)
	}
	if skin.Name == "" {
		skin.Name = name
	}
	return skin.withDefaults(), nil
}

func (s Skin) withDefaults() Skin {
	s.Dark = s.Dark.merge(DefaultSkin.Dark)
	s.Light = s.Light.merge(DefaultSkin.Light)
	if s.Name == "" {
		s.Name = DefaultSkin.Name
	}
	return s
}

func (p Palette) merge(base Palette) Palette {
	pick := func(v, fallback lipgloss.Color) lipgloss.Color {
		if v == "" {
			return fallback
		}
		return v
	}
	return Palette{
		Background: pick(p.Background, base.Background),
		Foreground: pick(p.Foreground, base.Foreground),
		Muted:      pick(p.Muted, base.Muted),
		Border:     pick(p.Border, base.Border),
		Accent:     pick(p.Accent, base.Accent),
		Prompt:     pick(p.Prompt, base.Prompt),
		Response:   pick(p.Response, base.Response),
		Error:      pick(p.Error, base.Error),
		Chart:      pick(p.Chart, base.Chart),
		Favorite:   pick(p.Favorite, base.Favorite),
		Selection:  pick(p.Selection, base.Selection),
	}
}
