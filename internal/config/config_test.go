package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_ACCESS_EXPIRY", "")
	t.Setenv("STRICT_ASSIGNEE_FILTER", "")
	t.Setenv("PORT", "")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTAccessExpiry)
	assert.False(t, cfg.StrictAssigneeFilter)
	assert.Equal(t, "5000", cfg.Port)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_ACCESS_EXPIRY", "not-a-duration")
	t.Setenv("JWT_REFRESH_EXPIRY", "2h")
	t.Setenv("STRICT_ASSIGNEE_FILTER", "true")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTAccessExpiry)
	assert.Equal(t, 2*time.Hour, cfg.JWTRefreshExpiry)
	assert.True(t, cfg.StrictAssigneeFilter)
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Asia/Kolkata"}
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())

	cfg.Timezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "leads", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=leads port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
