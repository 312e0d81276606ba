package config

import (
	"fmt"
	"time"
)

const (
	DefaultServerURL      = "http://localhost:8000"
	DefaultRequestTimeout = 60 * time.Second
)

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/nailchat",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Assistant: AssistantConfig{
			ServerURL:      DefaultServerURL,
			RequestTimeout: DefaultRequestTimeout.String(),
		},
		Storage:  StorageConfig{Backend: "file"},
		LogLevel: "info",
	}
}

func GenerateSystemConfigTemplate() string {
	return `# nailchat System Configuration
# Location: ~/.config/nailchat/settings.toml
# This file uses TOML format: https://toml.io

# Directory where chat history and user config are stored
data_directory = "~/.local/share/nailchat"
`
}

func GenerateUserConfigTemplate(userID string) string {
	return fmt.Sprintf(`# nailchat User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Log level for <data_directory>/debug.log: debug, info, warn, error
log_level = "info"

[assistant]
# Assistant service URL
server_url = %q

# Anonymous identifier sent with every request
user_id = %q

# Give up on a request after this long
request_timeout = %q

[storage]
# Where chat history is kept: "file" (chat_history.json) or "sqlite" (history.db)
backend = "file"
`, DefaultServerURL, userID, DefaultRequestTimeout.String())
}
