package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every tunable the tool needs. It is loaded once in main
// and passed explicitly to the components that use it, so the pattern and
// request logic can be tested without touching the environment.
type Config struct {
	DBPath         string // sqlite catalog database
	DataDir        string // root of the on-disk dataset tree
	StagingDir     string // downloads land here before post-processing
	RequestDir     string // queued request files
	CredentialsDir string // per-identity .cdsapirc<ID> files

	GetCmd      string // external command for the initial transfer
	ResumeCmd   string // external command resuming from current offset
	CompressCmd string // netcdf compression
	UntarCmd    string
	UnzipCmd    string

	Workers int // download worker pool size
	Retry   int // resume attempts per transfer

	AltEndpoints  []string // faster endpoints rotated across tasks
	SlowEndpoints []string // endpoint substrings to swap out of download URLs
	CredentialIDs []string // credential identities rotated across tasks
}

// Load reads configuration from the environment, with .env support for
// development setups.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("No", envFile, "file found")
	}

	cfg := Config{
		DBPath:         getEnv("CDS_DB_PATH", "cdsfetch.db"),
		DataDir:        getEnv("CDS_DATA_DIR", "data"),
		StagingDir:     getEnv("CDS_STAGING_DIR", "staging"),
		RequestDir:     getEnv("CDS_REQUEST_DIR", "requests"),
		CredentialsDir: getEnv("CDS_CREDENTIALS_DIR", "."),
		GetCmd:         getEnv("CDS_GET_CMD", "curl -sSfL -o"),
		ResumeCmd:      getEnv("CDS_RESUME_CMD", "curl -sSfL -C - -o"),
		CompressCmd:    getEnv("CDS_COMPRESS_CMD", "nccopy -k 4 -d 5 -s"),
		UntarCmd:       getEnv("CDS_UNTAR_CMD", "tar -xf"),
		UnzipCmd:       getEnv("CDS_UNZIP_CMD", "unzip -o"),
		AltEndpoints:   getEnvList("CDS_ALT_ENDPOINTS"),
		SlowEndpoints:  getEnvList("CDS_SLOW_ENDPOINTS"),
		CredentialIDs:  getEnvList("CDS_CREDENTIAL_IDS"),
	}

	var err error
	if cfg.Workers, err = getEnvInt("CDS_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.Retry, err = getEnvInt("CDS_RETRY", 3); err != nil {
		return Config{}, err
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("CDS_WORKERS must be at least 1, got %d", cfg.Workers)
	}
	if cfg.Retry < 0 {
		return Config{}, fmt.Errorf("CDS_RETRY must not be negative, got %d", cfg.Retry)
	}
	return cfg, nil
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return n, nil
}

// getEnvList parses a comma-separated list, dropping empty entries.
func getEnvList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
