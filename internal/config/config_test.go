package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, ":3000", c.Addr)
	assert.Equal(t, 4, c.RoomCapacity)
	assert.Equal(t, BackendFile, c.LeaderboardBackend)
	assert.Equal(t, "scores.json", c.ScoresFile)
	assert.Equal(t, 10, c.LeaderboardTop)
	assert.Equal(t, 15*time.Second, c.PingInterval)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.Development())
	assert.Empty(t, c.AllowedOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	c, err := FromEnv(envOf(map[string]string{
		"ADDR":                ":9000",
		"APP_ENV":             "development",
		"ROOM_CAPACITY":       "2",
		"LEADERBOARD_BACKEND": "Redis",
		"REDIS_DB":            "3",
		"ALLOWED_ORIGINS":     "localhost:*, example.com ,",
		"PING_INTERVAL":       "5s",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Addr)
	assert.True(t, c.Development())
	assert.Equal(t, 2, c.RoomCapacity)
	assert.Equal(t, BackendRedis, c.LeaderboardBackend)
	assert.Equal(t, 3, c.RedisDB)
	assert.Equal(t, []string{"localhost:*", "example.com"}, c.AllowedOrigins)
	assert.Equal(t, 5*time.Second, c.PingInterval)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"capacity too small":  {"ROOM_CAPACITY": "1"},
		"capacity too large":  {"ROOM_CAPACITY": "5"},
		"capacity not number": {"ROOM_CAPACITY": "four"},
		"unknown backend":     {"LEADERBOARD_BACKEND": "mongo"},
		"bad top":             {"LEADERBOARD_TOP": "0"},
		"bad redis db":        {"REDIS_DB": "x"},
		"bad ping":            {"PING_INTERVAL": "soon"},
		"negative ping":       {"PING_INTERVAL": "-1s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envOf(env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SCORES_FILE=from-dotenv.json\n"), 0o644))
	t.Chdir(dir)
	t.Setenv("ROOM_CAPACITY", "3")
	os.Unsetenv("SCORES_FILE")
	t.Cleanup(func() { os.Unsetenv("SCORES_FILE") })

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.json", c.ScoresFile)
	assert.Equal(t, 3, c.RoomCapacity)
}

func TestLoad_WithoutDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load()
	assert.NoError(t, err)
}
