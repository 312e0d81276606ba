package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// KeyBindingsConfig holds the modifier and optional per-action overrides
type KeyBindingsConfig struct {
	Modifiers ModifierConfig    `toml:"modifiers"`
	Actions   map[string]string `toml:"actions"`
}

type ModifierConfig struct {
	Primary string `toml:"primary"` // e.g., "ctrl", "alt"
}

type actionDef struct {
	modifier string // "primary" or "none"
	key      string
}

// actionRegistry maps action names to their default keybindings
var actionRegistry = map[string]actionDef{
	"send":               {"none", "enter"},
	"newline":            {"none", "alt+enter"},
	"new_chat":           {"primary", "n"},
	"session_manager":    {"primary", "s"},
	"search_messages":    {"primary", "f"},
	"attach_image":       {"primary", "a"},
	"remove_image":       {"primary", "x"},
	"yank_last_response": {"primary", "y"},
	"like":               {"primary", "l"},
	"dislike":            {"primary", "d"},
	"help":               {"primary", "h"},
	"dismiss":            {"none", "esc"},
	"scroll_up":          {"none", "pgup"},
	"scroll_down":        {"none", "pgdown"},
	"quit":               {"primary", "q"},
}

// Actions lists every bindable action name
func Actions() []string {
	names := make([]string, 0, len(actionRegistry))
	for name := range actionRegistry {
		names = append(names, name)
	}
	return names
}

func DefaultKeybindings() *KeyBindingsConfig {
	return &KeyBindingsConfig{
		Modifiers: ModifierConfig{Primary: "alt"},
	}
}

func keybindingsPath(dataDir string) string {
	return filepath.Join(dataDir, "keybindings.toml")
}

// LoadKeybindings loads keybindings.toml from the data directory, writing
// the template on first run
func LoadKeybindings(dataDir string) (*KeyBindingsConfig, error) {
	cfg := DefaultKeybindings()
	path := keybindingsPath(dataDir)

	if !FileExists(path) {
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(GenerateKeybindingsTemplate()), 0600); err != nil {
			return nil, fmt.Errorf("failed to write keybindings: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse keybindings: %w", err)
	}

	if cfg.Modifiers.Primary == "" {
		cfg.Modifiers.Primary = "alt"
	}
	if ok, msg := cfg.Validate(); !ok {
		return nil, fmt.Errorf("invalid keybindings: %s", msg)
	}

	return cfg, nil
}

func GenerateKeybindingsTemplate() string {
	return `# nailchat Keybindings Configuration
# Location: <data_directory>/keybindings.toml

[modifiers]
primary = "alt"   # Options: alt, ctrl

[actions]
# Override single actions, e.g.:
#   new_chat = "ctrl+n"
#   yank_last_response = "alt+c"
#   help = "f1"
`
}

func (kb *KeyBindingsConfig) Primary() string {
	if kb.Modifiers.Primary == "" {
		return "alt"
	}
	return kb.Modifiers.Primary
}

// GetActionKey returns the key for an action, user overrides first
func (kb *KeyBindingsConfig) GetActionKey(action string) string {
	if override, ok := kb.Actions[action]; ok && override != "" {
		return override
	}

	def, ok := actionRegistry[action]
	if !ok {
		return ""
	}
	if def.modifier == "primary" {
		return kb.Primary() + "+" + def.key
	}
	return def.key
}

// DisplayActionKey returns a key for display, e.g. "alt+n" -> "Alt+N"
func (kb *KeyBindingsConfig) DisplayActionKey(action string) string {
	key := kb.GetActionKey(action)
	if key == "" {
		return ""
	}

	parts := strings.Split(key, "+")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if len(part) == 1 {
			parts[i] = strings.ToUpper(part)
		} else {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, "+")
}

// Validate reports whether the bindings are usable, with a reason if not
func (kb *KeyBindingsConfig) Validate() (bool, string) {
	if kb.Primary() == "shift" {
		return false, "Shift alone conflicts with typing"
	}

	seen := make(map[string]string)
	for name := range actionRegistry {
		key := kb.GetActionKey(name)
		if other, dup := seen[key]; dup {
			return false, fmt.Sprintf("%s and %s are both bound to %s", other, name, key)
		}
		seen[key] = name
	}
	return true, ""
}
