// Package config loads scout's TOML configuration.
//
// # Resolution
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/scout/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or empty, use defaults
//
// # TOML Format
//
//	api_bind = "127.0.0.1:7488"        # log API when no source_file is set
//	source_file = "~/logs/app.jsonl"   # read records from a JSON-lines file
//	time_field = "@timestamp"
//	max_lines = 0                      # 0 reads the whole file
//	default_index = "logs"
//	default_columns = ["message"]
//	default_from = "now-15m"
//	default_to = "now"
//	chunk_size = 200
//	edge_threshold = 20
//	fetch_debounce_ms = 100
//	store_in_session = false           # hashed h@ URLs
//	absent_policy = "preserve"         # or "reset"
//	state_dir = "~/.local/share/scout"
//
// Tilde expansion is applied to source_file and state_dir. Derived paths
// (saved views, the session store, scout's own log) live under state_dir.
//
// Missing config files are NOT an error. A file that fails to parse is.
package config
