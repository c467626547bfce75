package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the auth server configuration
type Config struct {
	// Core server settings
	ListenAddr string `json:"listen_addr"`
	Port       int    `json:"port"`

	// Bootstrap data paths
	UsersFilePath      string `json:"users_file_path"`       // Newline-delimited JSON user records
	GeoIPLocationsPath string `json:"geoip_locations_path"`  // GeoLite2 country locations CSV
	GeoIPBlocksPath    string `json:"geoip_blocks_path"`     // GeoLite2 IPv4 blocks CSV

	// Security settings
	TokenKey string `json:"token_key,omitempty"` // Base64 HS256 signing key
	BanStore string `json:"ban_store,omitempty"` // "octet" (default) or "range"

	// Request limits
	MaxHeaderBytes int `json:"max_header_bytes,omitempty"`
	MaxBodyBytes   int `json:"max_body_bytes,omitempty"`

	// Logging settings
	AppLogPath    string `json:"app_log_path,omitempty"`
	AccessLogPath string `json:"access_log_path,omitempty"`
	LogLevel      string `json:"log_level,omitempty"`
	LogMaxSizeMB  int    `json:"log_max_size_mb,omitempty"`

	// Status file settings
	StatusDir      string `json:"status_dir,omitempty"`
	StatusInterval int    `json:"status_interval,omitempty"` // Seconds between running-file updates
}

// defaultTokenKey is the signing key used when the config provides none
const defaultTokenKey = "CGWpjarkRIXzCIIw5vXKc+uESy5ebrbOyVMZvftj19k="

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	// Convert relative paths to absolute paths based on config file location
	configDir := filepath.Dir(path)
	for _, p := range []*string{
		&config.UsersFilePath,
		&config.GeoIPLocationsPath,
		&config.GeoIPBlocksPath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
	for _, p := range []*string{&config.AppLogPath, &config.AccessLogPath, &config.StatusDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}

	// Set defaults for optional settings
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.TokenKey == "" {
		config.TokenKey = defaultTokenKey
	}
	if config.MaxHeaderBytes == 0 {
		config.MaxHeaderBytes = 10 * 1024
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = 100 * 1024
	}
	if config.StatusInterval == 0 {
		config.StatusInterval = 60
	}

	return nil
}

// TokenKeyBytes decodes the configured base64 signing key
func (c *Config) TokenKeyBytes() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("decoding token_key: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("token_key decodes to an empty key")
	}
	return key, nil
}
