// Package config loads typed configuration structs from the environment.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - Load reads ./.env once per process (if present), parses env-tagged
//     structs and caches each type after the first successful parse.
//   - Structs implementing Validator are checked before caching; failures
//     wrap ErrInvalidConfig together with the struct's own error.
//   - LoadEnv reads explicit env files, later files overriding earlier ones.
//   - ResetCache and ForceReloadConfig exist mostly for tests.
//
// Every package of the service owns its Config (mailqueue.Config, pg.Config,
// email.Config, httpserver.Config, ...). The binary loads each one it needs:
//
//	var queueCfg mailqueue.Config
//	if err := config.Load(&queueCfg); err != nil {
//		return err
//	}
//
// Errors: ErrParsingConfig, ErrInvalidConfig, ErrLoadingEnvFile, ErrNilPointer.
package config
