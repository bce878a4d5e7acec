package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/pkg/config"
)

type fileSettings struct {
	Name string   `env:"CONFIG_TEST_NAME"`
	Port int      `env:"CONFIG_TEST_PORT"`
	Tags []string `env:"CONFIG_TEST_TAGS" envSeparator:","`
}

type cachedSettings struct {
	Value string `env:"CONFIG_TEST_CACHED" envDefault:"default"`
}

type requiredSettings struct {
	Token string `env:"CONFIG_TEST_TOKEN,required"`
}

func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, os.Unsetenv(k))
	}
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
}

func TestLoadEnv(t *testing.T) {
	unset(t, "CONFIG_TEST_NAME", "CONFIG_TEST_PORT", "CONFIG_TEST_TAGS")

	require.NoError(t, config.LoadEnv("testdata/.env.base", "testdata/.env.override"))

	var s fileSettings
	require.NoError(t, config.Reload(&s))
	require.Equal(t, "override", s.Name)
	require.Equal(t, 8081, s.Port)
	require.Equal(t, []string{"a", "b", "c"}, s.Tags)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv("testdata/missing.env")
	require.ErrorIs(t, err, config.ErrEnvFile)
	require.Panics(t, func() { config.MustLoadEnv("testdata/missing.env") })
}

func TestLoad_Caches(t *testing.T) {
	config.ResetCache()
	t.Setenv("CONFIG_TEST_CACHED", "first")

	var a cachedSettings
	require.NoError(t, config.Load(&a))
	require.Equal(t, "first", a.Value)

	t.Setenv("CONFIG_TEST_CACHED", "second")
	var b cachedSettings
	require.NoError(t, config.Load(&b))
	require.Equal(t, "first", b.Value)

	require.NoError(t, config.Reload(&b))
	require.Equal(t, "second", b.Value)

	var c cachedSettings
	require.NoError(t, config.Load(&c))
	require.Equal(t, "second", c.Value)
}

func TestLoad_Errors(t *testing.T) {
	unset(t, "CONFIG_TEST_TOKEN")
	config.ResetCache()

	var s requiredSettings
	require.ErrorIs(t, config.Load(&s), config.ErrParsingConfig)
	require.Panics(t, func() { config.MustLoad(&s) })

	var nilSettings *requiredSettings
	require.ErrorIs(t, config.Load(nilSettings), config.ErrNilPointer)

	t.Setenv("CONFIG_TEST_TOKEN", "secret")
	require.NoError(t, config.Load(&s))
	require.Equal(t, "secret", s.Token)
}
