// Package config loads ClientConfig from a YAML file, a .env file and
// environment variables.
//
// Files are searched in the usual places (./cmd/<service>/config.yml,
// ./config/config.yml, ./config.yml and the .env equivalents). Variables
// prefixed with PAYCLIENT_ override file values using underscore
// separated paths, e.g. PAYCLIENT_CREDENTIALS_CLIENT_SECRET.
//
//	var cfg config.ClientConfig
//	if err := config.Load("payclient", &cfg); err != nil {
//	    return err
//	}
package config
