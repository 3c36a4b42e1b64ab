// Package validation checks configuration and request input.
//
// Tagged structs go through Validate, backed by go-playground/validator:
//
//	type Config struct {
//	    Workers int `mapstructure:"workers" validate:"gte=0,lte=64"`
//	}
//	err := validation.Validate(cfg)
//
// Loose input is checked with the chaining Validator:
//
//	err := validation.New().
//	    Specified("profession", f.Profession, ai.Unspecified).
//	    MaxLength("technologies", f.Technologies, 2000).
//	    Validate()
//
// Both report INVALID_INPUT with the failing fields under the "fields" detail.
package validation
