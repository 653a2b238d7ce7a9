// Package validation checks configuration structs against `validate` tags
// using go-playground/validator. Field names in errors follow the
// mapstructure tag so messages match the keys used in config files.
//
//	type PoolConfig struct {
//	    MaxIdleConns int `mapstructure:"max_idle_conns" validate:"gte=0"`
//	}
//	if err := validation.Validate(cfg); err != nil { ... }
package validation
