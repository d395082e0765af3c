// Package validation validates configuration and credential structs
// through go-playground/validator struct tags.
//
//	type ClientCredentials struct {
//	    ClientID string `mapstructure:"client_id" validate:"required"`
//	}
//	if err := validation.Validate(grant); err != nil { ... }
//
// Field names in error messages come from the mapstructure or json tag,
// falling back to the snake_cased Go field name.
package validation
