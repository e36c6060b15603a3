package config

import "time"

const (
	DefaultQueryEndpoint = "http://localhost:5000/query"
	DefaultContextSuffix = "in the context of Zomato"
	DefaultDatasetID     = "zomato"
	DefaultCannedDelay   = 6 * time.Second
	DefaultQueryTimeout  = 120 * time.Second
)

func Defaults() *Config {
	return &Config{
		DataDirectory:  GetDefaultDataDir(),
		QueryEndpoint:  DefaultQueryEndpoint,
		ContextSuffix:  DefaultContextSuffix,
		QueryTimeout:   DefaultQueryTimeout,
		DefaultDataset: DefaultDatasetID,
		CannedDelay:    DefaultCannedDelay,
		RenderMarkdown: true,
	}
}

func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		DataDirectory: GetDefaultDataDir(),
		Query: QueryConfig{
			Endpoint:      DefaultQueryEndpoint,
			ContextSuffix: DefaultContextSuffix,
			Timeout:       Duration{DefaultQueryTimeout},
		},
		Chat: ChatConfig{
			DefaultDataset: DefaultDatasetID,
			CannedDelay:    Duration{DefaultCannedDelay},
			RenderMarkdown: true,
		},
	}
}

func GenerateConfigTemplate() string {
	return `# evolve configuration
# Location: ~/.config/evolve/config.toml
# This file uses TOML format: https://toml.io

# Directory for the dataset catalog and debug log.
# Defaults to $XDG_DATA_HOME/evolve, or ~/.local/share/evolve.
# data_directory = "~/.local/share/evolve"

[query]
# Analysis service that answers free-form questions
endpoint = "http://localhost:5000/query"

# Appended to every question that does not already contain it
context_suffix = "in the context of Zomato"

# Upper bound for a single query round trip
timeout = "120s"

[chat]
# Dataset opened by "evolve chat" when --dataset is not given
default_dataset = "zomato"

# Delay before a built-in demo answer appears
canned_delay = "6s"

# Style assistant text as markdown
render_markdown = true
`
}
