package backend

import (
	"github.com/JOJ0/discodos-sub001/internal/config"
	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// NewBackendFromConfig creates a Backend implementation based on the backend config type.
func NewBackendFromConfig(cfg config.BackendConfig, logger discosync.Logger) (discosync.Backend, error) {
	switch config.NormalizeBackendType(cfg.Type) {
	case config.BackendDropbox:
		b, err := NewDropboxBackend(DropboxConfig{
			Token:  cfg.DropboxToken,
			Folder: cfg.DropboxFolder,
		}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.BackendWebDAV:
		folder := cfg.WebDAVFolder
		if folder == "" {
			folder = config.DefaultWebDAVFolder
		}
		b, err := NewWebDAVBackend(WebDAVConfig{
			URL:      cfg.WebDAVURL,
			User:     cfg.WebDAVUser,
			Password: cfg.WebDAVPassword,
			Folder:   folder,
		}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.BackendS3:
		b, err := NewS3Backend(S3Config{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			SessionToken:    cfg.S3SessionToken,
		}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.BackendFilesystem:
		b, err := NewFileSystemBackend(cfg.FSRoot, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, discosync.ConfigErrorf("unknown backend type: %s", cfg.Type)
	}
}
