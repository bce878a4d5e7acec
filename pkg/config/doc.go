// Package config loads tagged structs from the environment with
// github.com/caarlos0/env, reading .env files through github.com/joho/godotenv.
//
// Each struct type is parsed once per process and cached:
//
//	type Settings struct {
//	    Addr  string `env:"ADDR" envDefault:":8080"`
//	    Debug bool   `env:"DEBUG"`
//	}
//
//	var s Settings
//	config.MustLoad(&s)
//
// Tests use Reload or ResetCache after changing the environment.
package config
