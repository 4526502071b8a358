package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// Backend types accepted in [backend] type.
const (
	BackendDropbox    = "dropbox"
	BackendWebDAV     = "webdav"
	BackendS3         = "s3"
	BackendFilesystem = "filesystem"
	BackendMemory     = "memory"
)

// DefaultWebDAVFolder is the remote folder used when webdav_folder is unset.
const DefaultWebDAVFolder = "discodos"

// Config represents the main configuration for discosync.
type Config struct {
	Discobase string        `toml:"discobase"` // local state file to back up
	BaseDir   string        `toml:"base_dir"`
	LogDir    string        `toml:"log_dir"`
	LogLevel  string        `toml:"log_level"` // debug, info, warn or error
	Backend   BackendConfig `toml:"backend"`
	History   HistoryConfig `toml:"history"`
}

// BackendConfig represents configuration for the remote backup location.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type BackendConfig struct {
	Type string `toml:"type"` // "dropbox", "webdav", "s3", "filesystem" or "memory"

	// Dropbox-specific fields (only used when Type == "dropbox")
	DropboxToken  string `toml:"dropbox_token,omitempty"`
	DropboxFolder string `toml:"dropbox_folder,omitempty"`

	// WebDAV-specific fields (only used when Type == "webdav")
	WebDAVURL      string `toml:"webdav_url,omitempty"`
	WebDAVUser     string `toml:"webdav_user,omitempty"`
	WebDAVPassword string `toml:"webdav_password,omitempty"`
	WebDAVFolder   string `toml:"webdav_folder,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
	S3SessionToken    string `toml:"s3_session_token,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// HistoryConfig represents configuration for the local operation history.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type HistoryConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a new Config rooted at baseDir with a Dropbox backend
// and SQLite history.
func NewConfig(discobase, baseDir string) *Config {
	return &Config{
		Discobase: discobase,
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		LogLevel:  "info",
		Backend:   BackendConfig{Type: BackendDropbox},
		History:   HistoryConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
	}
}

// NormalizeBackendType expands the short forms accepted on the command line
// ("d" and "w") and lower-cases the rest.
func NormalizeBackendType(t string) string {
	switch t = strings.ToLower(strings.TrimSpace(t)); t {
	case "d":
		return BackendDropbox
	case "w":
		return BackendWebDAV
	default:
		return t
	}
}

// Validate checks the structural requirements of the config. Missing
// credentials are left to the backend constructors, which report them
// against the service they belong to.
func (c *Config) Validate() error {
	if c.Discobase == "" {
		return discosync.ConfigErrorf("discobase is not set")
	}
	switch c.Backend.Type {
	case BackendDropbox, BackendWebDAV, BackendMemory:
	case BackendS3:
		if c.Backend.S3Bucket == "" {
			return discosync.ConfigErrorf("s3 backend requires s3_bucket to be set")
		}
	case BackendFilesystem:
		if c.Backend.FSRoot == "" {
			return discosync.ConfigErrorf("filesystem backend requires fs_root to be set")
		}
	case "":
		return discosync.ConfigErrorf("backend type is not set")
	default:
		return discosync.ConfigErrorf("unknown backend type: %s", c.Backend.Type)
	}
	switch c.History.Type {
	case "", "memory":
	case "sqlite":
		if c.History.DataDir == "" {
			return discosync.ConfigErrorf("sqlite history requires data_dir to be set")
		}
	default:
		return discosync.ConfigErrorf("unknown history type: %s", c.History.Type)
	}
	return nil
}

// Masked returns a copy of c with every secret replaced by a fixed marker,
// suitable for printing.
func (c *Config) Masked() *Config {
	out := *c
	out.Backend.DropboxToken = mask(c.Backend.DropboxToken)
	out.Backend.WebDAVPassword = mask(c.Backend.WebDAVPassword)
	out.Backend.S3SecretAccessKey = mask(c.Backend.S3SecretAccessKey)
	out.Backend.S3SessionToken = mask(c.Backend.S3SessionToken)
	return &out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes cfg to path with owner-only permissions, since the
// file holds credentials.
func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes a new config file at path. It refuses to overwrite an existing one.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
