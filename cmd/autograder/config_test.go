package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	appErr "autograder/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autograder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: debug
canvas:
  endpoint: https://canvas.example.edu
  timeout: 5s
grader:
  assignmentId: "22"
  command: python3 grade.py
  exclude: ["3"]
minio:
  endpoint: localhost:9000
`), 0o600))

	cfg, err := loadAppConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, defaultLogFormat, cfg.Logger.Format)
	assert.Equal(t, "stderr", cfg.Logger.OutputPath)
	assert.Equal(t, "https://canvas.example.edu", cfg.Canvas.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Canvas.Timeout)
	assert.Equal(t, uint(defaultDownloadTries), cfg.Canvas.DownloadTries)
	assert.Equal(t, "22", cfg.Grader.AssignmentID)
	assert.Equal(t, []string{"3"}, cfg.Grader.Exclude)
	assert.True(t, cfg.hasObjectStorage())
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := loadAppConfig(missing, false)
	require.NoError(t, err)
	assert.Equal(t, defaultCanvasTimeout, cfg.Canvas.Timeout)

	_, err = loadAppConfig(missing, true)
	require.Error(t, err)
	assert.True(t, appErr.Is(err, appErr.ConfigInvalid))
}

func TestLoadEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CANVAS_ENDPOINT=https://from-file\nCANVAS_TOKEN=file-token\n"), 0o600))
	t.Setenv(envCanvasToken, "process-token")
	t.Setenv(envCanvasEndpoint, "")
	t.Setenv(envMinIOAccessKey, "ak")

	cfg := &AppConfig{}
	require.NoError(t, loadEnv(cfg, envFile, true))
	assert.Equal(t, "process-token", cfg.Canvas.Token)
	assert.Equal(t, "ak", cfg.MinIO.AccessKey)

	err := loadEnv(&AppConfig{}, filepath.Join(t.TempDir(), "missing.env"), true)
	assert.Error(t, err)
	assert.NoError(t, loadEnv(&AppConfig{}, filepath.Join(t.TempDir(), "missing.env"), false))
}

func TestValidateEvaluate(t *testing.T) {
	valid := func() *AppConfig {
		return &AppConfig{
			Canvas: CanvasConfig{Endpoint: "https://canvas.test", Token: "t"},
			Grader: GraderConfig{AssignmentID: "22", Command: "./grade"},
		}
	}
	testCases := []struct {
		name   string
		mutate func(*AppConfig)
		code   appErr.ErrorCode
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "missing token", mutate: func(c *AppConfig) { c.Canvas.Token = "" }, code: appErr.MissingCredentials},
		{name: "missing endpoint", mutate: func(c *AppConfig) { c.Canvas.Endpoint = "" }, code: appErr.MissingCredentials},
		{name: "non-numeric assignment", mutate: func(c *AppConfig) { c.Grader.AssignmentID = "lab1" }, code: appErr.InvalidAssignment},
		{name: "missing assignment", mutate: func(c *AppConfig) { c.Grader.AssignmentID = "" }, code: appErr.InvalidAssignment},
		{name: "missing command", mutate: func(c *AppConfig) { c.Grader.Command = " " }, code: appErr.InvalidCommand},
		{name: "non-numeric include", mutate: func(c *AppConfig) { c.Grader.Include = []string{"42", "bob"} }, code: appErr.InvalidUserID},
		{name: "non-numeric exclude", mutate: func(c *AppConfig) { c.Grader.Exclude = []string{"-1"} }, code: appErr.InvalidUserID},
		{name: "non-numeric association", mutate: func(c *AppConfig) { c.Grader.RubricAssociationID = "x" }, code: appErr.ConfigInvalid},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.validateEvaluate()
			if tc.code == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, appErr.Is(err, tc.code))
			assert.True(t, appErr.GetCode(err).Fatal())
		})
	}
}

func TestIsYes(t *testing.T) {
	for _, answer := range []string{"y", "Y", " yes ", "YES"} {
		assert.True(t, isYes(answer), answer)
	}
	for _, answer := range []string{"", "n", "no", "yep"} {
		assert.False(t, isYes(answer), answer)
	}
}
