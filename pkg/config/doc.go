// Package config loads configuration structs from environment variables
// (github.com/caarlos0/env) with optional .env file support
// (github.com/joho/godotenv).
//
// Loading is fail-fast: required variables that are missing surface as
// errors at startup, which is how the guard enforces the presence of its
// signing secret before serving any traffic.
package config
