package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once

	mu     sync.Mutex
	loaded = map[reflect.Type]any{}
)

// LoadEnv reads .env files into the process environment. Later files win
// over earlier ones; variables already set in the environment win over
// the first file. Without arguments it reads ./.env.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	if err := godotenv.Load(paths[0]); err != nil {
		return errors.Join(ErrEnvFile, err)
	}
	if len(paths) > 1 {
		if err := godotenv.Overload(paths[1:]...); err != nil {
			return errors.Join(ErrEnvFile, err)
		}
	}
	return nil
}

// MustLoadEnv panics when LoadEnv fails.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(err)
	}
}

// Load parses env tags into v. The first successful parse of a type is
// cached and later calls for the same type copy the cached value, so every
// package reading relay.Config or redis.Config sees the same settings.
// ./.env is read once, if present, before the first parse.
//
//	var cfg relay.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := loaded[key]; ok {
		*v = cached.(T)
		return nil
	}
	if err := parse(v); err != nil {
		return err
	}
	loaded[key] = *v
	return nil
}

// MustLoad panics when Load fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// Reload parses v again, replacing the cached value on success.
func Reload[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	var fresh T
	if err := parse(&fresh); err != nil {
		return err
	}

	mu.Lock()
	loaded[reflect.TypeFor[T]()] = fresh
	mu.Unlock()

	*v = fresh
	return nil
}

// ResetCache forgets every cached configuration.
func ResetCache() {
	mu.Lock()
	clear(loaded)
	mu.Unlock()
}

func parse[T any](v *T) error {
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}
