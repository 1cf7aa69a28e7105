package config

import "errors"

var (
	// ErrPortCanNotBeZero is returned if server.port is not set.
	ErrPortCanNotBeZero = errors.New("config server.port can not be zero")

	// ErrJWTSecretMissing is returned outside dev mode when no signing secret is configured.
	ErrJWTSecretMissing = errors.New("config auth.jwt_secret is required outside dev mode")

	// ErrUnsupportedDriver is returned for an unknown database.driver.
	ErrUnsupportedDriver = errors.New("config database.driver must be postgres, mysql or sqlite")

	// ErrInvalidTokenTTL is returned when auth.token_ttl is not positive.
	ErrInvalidTokenTTL = errors.New("config auth.token_ttl must be positive")
)
