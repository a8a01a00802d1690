package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgfinder_backend/pkg/config"
	"pgfinder_backend/pkg/logger"
)

func TestRun_ReturnsStartupErrors(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: "postgres://pgfinder@127.0.0.1:1/pgfinder?sslmode=disable&connect_timeout=2"},
	}

	err := run(cfg, logger.Discard())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not connect to database")
}
