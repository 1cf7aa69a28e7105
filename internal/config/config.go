// Package config loads settings from defaults, an optional YAML file, .env files and the environment.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. GAMELIB_SERVER_PORT.
const EnvPrefix = "GAMELIB"

// devJWTSecret is only used when dev mode is on and no secret is configured.
const devJWTSecret = "dev-secret-change-me"

// legacyEnv maps config keys to the variable names used by earlier deployments.
var legacyEnv = map[string]string{
	"database.host":          "DB_HOST",
	"database.port":          "DB_PORT",
	"database.user":          "DB_USER",
	"database.password":      "DB_PASSWORD",
	"database.name":          "DB_NAME",
	"database.sslmode":       "DB_SSLMODE",
	"auth.jwt_secret":        "JWT_SECRET",
	"server.port":            "PORT",
	"server.allowed_origins": "CLIENT_URL",
	"catalog.api_key":        "RAWG_API_KEY",
	"server.mode":            "GIN_MODE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dev_mode", false)

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.enable_swagger", true)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "gamelibrary")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "gamelibrary.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.admin_role", "admin")

	v.SetDefault("catalog.base_url", "https://api.rawg.io/api")
	v.SetDefault("catalog.page_size", 20)
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.seed_pages", 5)
	v.SetDefault("catalog.seed_page_size", 40)

	v.SetDefault("log.loglevel", "info")
	v.SetDefault("log.appname", "gamelibrary")
	v.SetDefault("log.servicename", "api")
	v.SetDefault("log.console.enabled", true)
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.info", "info.log")
	v.SetDefault("log.file.error", "error.log")
	v.SetDefault("log.file.maxsize", 100)
	v.SetDefault("log.file.maxbackups", 5)
	v.SetDefault("log.file.maxage", 30)
}

// ReadConfig reads configuration. path may name a YAML file; empty searches ./configs and the
// working directory for config.yaml.
func ReadConfig(path string) (Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env", "configs/.env")

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "failed to read config file")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return Config{}, errors.Wrapf(err, "failed to bind env for %s", key)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	if c.Auth.JWTSecret == "" && c.DevMode {
		c.Auth.JWTSecret = devJWTSecret
	}
	if c.Server.Mode == "debug" {
		c.Log.Console.UseConsoleWriter = true
	}

	return c, validate(c)
}

// validate checks the settings needed before the session issuer and access control can run.
func validate(c Config) error {
	invalidErrMessage := "invalid config"

	if c.Server.Port == 0 {
		return errors.Wrap(ErrPortCanNotBeZero, invalidErrMessage)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return errors.Wrap(ErrUnsupportedDriver, invalidErrMessage)
	}

	if c.Auth.JWTSecret == "" {
		return errors.Wrap(ErrJWTSecretMissing, invalidErrMessage)
	}

	if c.Auth.TokenTTL <= 0 {
		return errors.Wrap(ErrInvalidTokenTTL, invalidErrMessage)
	}

	return nil
}
