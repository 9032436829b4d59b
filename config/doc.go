// Package config loads configuration for pipekit binaries.
//
// It uses Viper to read a YAML file and godotenv to read .env files, then
// binds environment variables prefixed with the service name. Config structs
// implementing ApplyDefaults and Validate are completed and checked by
// LoadConfig.
//
// # Usage
//
//	var cfg Config
//	err := config.LoadConfig("pipecopy", &cfg, config.WithConfigFile(path))
//
// PIPECOPY_PIPELINE_ITEM_CAPACITY=16 overrides pipeline.item_capacity.
package config
