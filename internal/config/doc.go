// Package config handles configuration loading for coven-chat.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. Values not present in the file keep the defaults from Default,
// so a missing file is a valid configuration for the chat client.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path given with the -config flag
//  2. Path from COVEN_CHAT_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/coven/chat.yaml
//  4. ~/.config/coven/chat.yaml
//
// A file ending in .toml is decoded as TOML; anything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  password: "${COVEN_CHAT_PASSWORD}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to an empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	server:
//	  timeout: "30s"
//	backend:
//	  session_ttl: "30m"
//
// # Configuration Sections
//
// Client settings:
//
//	server:
//	  base_url: "http://localhost:5000"
//	  timeout: "30s"
//	chatbot:
//	  type: "atual"
//	  thread_id: ""          # pin a thread, as if the page had embedded it
//	storage:
//	  path: "~/.config/coven/chat.db"
//	session:
//	  default_name: "Usuário"
//	  anonymous_name: "Usuário Anônimo"
//	  greeting: "Hello! How can I help you today?"
//	  kickoff_message: ""
//	auth:
//	  email: "ana@example.com"
//	  password: "${COVEN_CHAT_PASSWORD}"
//	render:
//	  markdown: true
//	  color: true
//	logging:
//	  level: "warn"          # debug, info, warn, error
//	  format: "text"         # text or json
//
// Fake backend settings:
//
//	backend:
//	  addr: "127.0.0.1:5000"
//	  jwt_secret: "${COVEN_CHAT_JWT_SECRET}"   # at least 32 bytes
//	  session_ttl: "30m"
//	  chatbot_types: ["atual", "novo", "vendas"]
//	  users:
//	    - email: "ana@example.com"
//	      password_hash: "$2a$10$..."          # coven-chat-backend hash <password>
//	      name: "Ana"
//
// # Validation
//
// Validate checks what the chat client needs; ValidateBackend checks what the
// fake backend needs. Load itself does not validate.
package config
