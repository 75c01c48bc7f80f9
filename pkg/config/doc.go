// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - Values come from the process environment, optionally seeded from one
//     or more .env files (the default .env in the working directory is read
//     automatically when present).
//   - Structs are populated through `env` and `envDefault` field tags; a
//     prefix can be applied to every tag with WithPrefix.
//   - Each configuration type is parsed once and cached for the lifetime of
//     the process. ForceReload and Reset exist for tests.
//
// # Usage
//
//	type MailConfig struct {
//	    Username string `env:"USERNAME,required"`
//	    Password string `env:"PASSWORD,required"`
//	    SMTPHost string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
//	}
//
//	var cfg MailConfig
//	if err := config.Load(&cfg, config.WithPrefix("MAIL_"), config.WithEnvFiles(".env.local")); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Handling
//
//   - ErrParsingConfig: env vars could not be parsed into the struct; joined with the cause.
//   - ErrLoadingEnvFile: a .env file could not be read.
//   - ErrNilPointer: nil pointer passed to Load.
//   - ErrConfigNotLoaded: the cache lost the value between parse and read.
package config
