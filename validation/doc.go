// Package validation validates configuration and request input.
//
// Struct tag validation uses go-playground/validator, with two extra tags:
// bytesize (e.g. "64KiB") and duration (e.g. "250ms").
//
//	type PipelineConfig struct {
//	    ItemCapacity int    `mapstructure:"item_capacity" validate:"gte=1"`
//	    ByteCapacity string `mapstructure:"byte_capacity" validate:"bytesize"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects field errors:
//
//	v := validation.New().RequiredUUID("id", c.Param("id"))
//	if err := v.Validate(); err != nil { ... }
package validation
