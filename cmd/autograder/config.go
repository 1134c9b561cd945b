package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"autograder/internal/common/storage"
	"autograder/internal/grader/canvasclient"
	appErr "autograder/pkg/errors"
	"autograder/pkg/utils/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath    = "configs/autograder.yaml"
	defaultEnvFile       = ".env"
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
	defaultLogOutput     = "stderr"
	defaultCanvasTimeout = 30 * time.Second
	defaultDownloadTries = 3
)

// Environment variables read after the .env file is loaded.
const (
	envCanvasEndpoint = "CANVAS_ENDPOINT"
	envCanvasToken    = "CANVAS_TOKEN"
	envMinIOEndpoint  = "MINIO_ENDPOINT"
	envMinIOAccessKey = "MINIO_ACCESS_KEY"
	envMinIOSecretKey = "MINIO_SECRET_KEY"
)

// CanvasConfig holds Canvas connection settings.
type CanvasConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	Token         string        `yaml:"token"`
	Timeout       time.Duration `yaml:"timeout"`
	DownloadTries uint          `yaml:"downloadTries"`
}

// GraderConfig holds evaluation settings.
type GraderConfig struct {
	AssignmentID        string   `yaml:"assignmentId"`
	Command             string   `yaml:"command"`
	WorkRoot            string   `yaml:"workRoot"`
	Include             []string `yaml:"include"`
	Exclude             []string `yaml:"exclude"`
	RubricAssociationID string   `yaml:"rubricAssociationId"`
	ChunkSize           int      `yaml:"chunkSize"`
}

// AppConfig holds the autograder configuration.
type AppConfig struct {
	Logger logger.Config       `yaml:"logger"`
	Canvas CanvasConfig        `yaml:"canvas"`
	MinIO  storage.MinIOConfig `yaml:"minio"`
	Grader GraderConfig        `yaml:"grader"`
}

// loadAppConfig reads the YAML file. A missing file is only an error when
// the path was given explicitly.
func loadAppConfig(path string, explicit bool) (*AppConfig, error) {
	cfg := &AppConfig{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, appErr.Wrapf(err, appErr.ConfigInvalid, "parse config file failed")
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, appErr.Wrapf(err, appErr.ConfigInvalid, "read config file failed")
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = defaultLogLevel
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = defaultLogFormat
	}
	if cfg.Logger.OutputPath == "" {
		cfg.Logger.OutputPath = defaultLogOutput
	}
	if cfg.Canvas.Timeout == 0 {
		cfg.Canvas.Timeout = defaultCanvasTimeout
	}
	if cfg.Canvas.DownloadTries == 0 {
		cfg.Canvas.DownloadTries = defaultDownloadTries
	}
}

// loadEnv loads envFile into the process environment without overriding
// variables that are already set, then applies the recognised ones.
func loadEnv(cfg *AppConfig, envFile string, explicit bool) error {
	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return appErr.Wrapf(err, appErr.ConfigInvalid, "load env file %s failed", envFile)
		}
	}
	setFromEnv(&cfg.Canvas.Endpoint, envCanvasEndpoint)
	setFromEnv(&cfg.Canvas.Token, envCanvasToken)
	setFromEnv(&cfg.MinIO.Endpoint, envMinIOEndpoint)
	setFromEnv(&cfg.MinIO.AccessKey, envMinIOAccessKey)
	setFromEnv(&cfg.MinIO.SecretKey, envMinIOSecretKey)
	return nil
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c *AppConfig) canvasClientConfig() canvasclient.Config {
	return canvasclient.Config{
		Endpoint:      c.Canvas.Endpoint,
		Token:         c.Canvas.Token,
		Timeout:       c.Canvas.Timeout,
		DownloadTries: c.Canvas.DownloadTries,
	}
}

func (c *AppConfig) hasObjectStorage() bool {
	return c.MinIO.Endpoint != ""
}

// validateCredentials checks what every Canvas call needs.
func (c *AppConfig) validateCredentials() error {
	if c.Canvas.Endpoint == "" || c.Canvas.Token == "" {
		return appErr.New(appErr.MissingCredentials).
			WithMessage(fmt.Sprintf("Canvas credentials are missing: set %s and %s", envCanvasEndpoint, envCanvasToken))
	}
	return nil
}

// validateEvaluate checks the settings of the evaluate command. It runs
// before any network or process activity.
func (c *AppConfig) validateEvaluate() error {
	if err := c.validateCredentials(); err != nil {
		return err
	}
	if !isNumericID(c.Grader.AssignmentID) {
		return appErr.Newf(appErr.InvalidAssignment, "assignment id %q must be numeric", c.Grader.AssignmentID)
	}
	if strings.TrimSpace(c.Grader.Command) == "" {
		return appErr.New(appErr.InvalidCommand).WithMessage("test command is required")
	}
	return c.validateFilters()
}

func (c *AppConfig) validateFilters() error {
	for _, list := range [][]string{c.Grader.Include, c.Grader.Exclude} {
		for _, id := range list {
			if !isNumericID(id) {
				return appErr.Newf(appErr.InvalidUserID, "user id %q must be numeric", id)
			}
		}
	}
	if id := c.Grader.RubricAssociationID; id != "" && !isNumericID(id) {
		return appErr.ConfigError("rubric association", fmt.Sprintf("%q must be numeric", id))
	}
	return nil
}

func isNumericID(id string) bool {
	if id == "" {
		return false
	}
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}
