// Package config handles configuration loading for study-buddy.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	supabase:
//	  anon_key: "${SUPABASE_ANON_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  public_url: "https://study.example.com"   # OAuth resource identifier
//
// Environment:
//
//	environment: "development"   # development, production, test
//
// Supabase project (token issuer, and deck storage with the supabase driver):
//
//	supabase:
//	  url: "https://<project>.supabase.co"
//	  anon_key: "${SUPABASE_ANON_KEY}"
//
// Deck storage:
//
//	store:
//	  driver: "sqlite"            # sqlite, supabase
//	  path: "study-buddy.db"      # sqlite only
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - Environment name
//   - Supabase project URL presence and scheme
//   - Store driver and its required settings
//   - Logging level and format values
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
