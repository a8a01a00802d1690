package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("UPLOAD_MAX_FILES", "")
	t.Setenv("SEARCH_SNAPSHOT", "")
	t.Setenv("JWT_TTL", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Upload.MaxFiles)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxFileSize)
	assert.False(t, cfg.Search.Snapshot)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("UPLOAD_MAX_FILES", "3")
	t.Setenv("SEARCH_SNAPSHOT", "true")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("UPLOAD_URL", "http://cdn.example.com/uploads/")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Upload.MaxFiles)
	assert.True(t, cfg.Search.Snapshot)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "http://cdn.example.com/uploads", cfg.Upload.PublicURL)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://u:p@db/x"}
	assert.Equal(t, "postgres://u:p@db/x", d.DSN())

	d = DatabaseConfig{Host: "h", Port: "1", User: "u", Password: "p", DBName: "n"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", d.DSN())
}
