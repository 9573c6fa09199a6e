// Package config loads the party client's YAML configuration.
//
// ${VAR} references are expanded from the environment before parsing, so
// secrets such as the journal database password can stay out of the file:
//
//	server:
//	  page_url: https://werewolf.example.com
//	journal:
//	  enabled: true
//	  driver: postgres
//	  postgres:
//	    password: ${PARTY_DB_PASSWORD}
//
// The server section resolves to the WebSocket endpoint through
// Config.Endpoint; the log section builds the slog logger.
package config
