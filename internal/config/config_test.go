// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// setupTestConfig sets SNAPCTL_CFG to point to a test config file.
// Returns cleanup function that should be deferred.
func setupTestConfig(t *testing.T, testdataFile string) (cleanup func()) {
	t.Helper()

	configPath := filepath.Join("testdata", testdataFile)
	absPath, err := filepath.Abs(configPath)
	assert.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("SNAPCTL_CFG", absPath)

	// Reset the global Config to force reload
	Config = Type{}

	return func() {
		Config = Type{}
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		wantErr   bool
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			wantErr:  false,
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Contains(t, cfg.Data, "region")
				assert.Equal(t, "us-east-1", cfg.Data["region"])
				assert.Equal(t, "vol-0abc123", cfg.Data["volume_id"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			wantErr:  false,
			checkFunc: func(t *testing.T, cfg Type) {
				snap, ok := cfg.Data["snap"].(map[string]interface{})
				assert.True(t, ok, "snap should be a map")
				assert.Equal(t, "vol-0abc123", snap["volume_id"])
				assert.Equal(t, "AutoSnapshot", snap["prefix"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestGetString(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	tests := []struct {
		name      string
		namespace string
		key       string
		def       []string
		want      string
		wantErr   bool
	}{
		{name: "top level key", key: "output", want: "text"},
		{name: "dotted path", key: "snap.volume_id", want: "vol-0abc123"},
		{name: "namespaced lookup wins", namespace: "s3clean", key: "bucket", want: "backups"},
		{name: "missing key falls back to default", key: "nope", def: []string{"fallback"}, want: "fallback"},
		{name: "missing key without default errors", key: "nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Config.Namespace = tt.namespace
			got, err := GetString(tt.key, tt.def...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	// The namespaced value shadows the top-level one.
	Config.Namespace = "snap"
	got, err := GetInt("retention_days")
	assert.NoError(t, err)
	assert.Equal(t, 30, got)

	Config.Namespace = ""
	got, err = GetInt("retention_days")
	assert.NoError(t, err)
	assert.Equal(t, 14, got)

	got, err = GetInt("nope", 7)
	assert.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestGetStringSlice(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	Config.Namespace = ""
	got, err := GetStringSlice("snapshots.defaults")
	assert.NoError(t, err)
	assert.Equal(t, []string{"--output json", "--sort start_time"}, got)

	_, err = GetStringSlice("region")
	assert.Error(t, err)
}
