// Package config loads configuration structs from YAML files, the process
// environment and .env files.
//
// Values are layered in that order: the YAML file is read first, then
// environment variables carrying the configured prefix override it. A
// loaded struct that implements Defaulter and Validator has ApplyDefaults
// and Validate called on it before LoadConfig returns.
//
//	var cfg httpclient.Config
//	err := config.LoadConfig("http4s", &cfg, config.WithEnvPrefix("HTTP4S"))
//
// HTTP4S_ENGINE_MAX_REQUESTS=32 sets engine.max_requests.
package config
