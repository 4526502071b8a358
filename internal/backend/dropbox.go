package backend

import (
	"bytes"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/auth"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// DropboxConfig holds the settings for a Dropbox app folder.
type DropboxConfig struct {
	Token  string
	Folder string // sub-folder of the app folder; empty means its root
}

// DropboxBackend stores versions as files in a Dropbox folder.
type DropboxBackend struct {
	files  files.Client
	folder string
	logger discosync.Logger
}

// NewDropboxBackend creates a backend authenticated with cfg.Token. The token
// is checked once against the account endpoint before the backend is returned.
func NewDropboxBackend(cfg DropboxConfig, logger discosync.Logger) (*DropboxBackend, error) {
	if cfg.Token == "" {
		return nil, discosync.MarkAuth(errors.New("dropbox_token is empty"), "dropbox")
	}
	dbxCfg := dropbox.Config{Token: cfg.Token, LogLevel: dropbox.LogOff}
	return newDropboxBackend(files.New(dbxCfg), users.New(dbxCfg), cfg.Folder, logger)
}

func newDropboxBackend(fc files.Client, uc users.Client, folder string, logger discosync.Logger) (*DropboxBackend, error) {
	if logger == nil {
		logger = discosync.NewNopLogger()
	}
	b := &DropboxBackend{files: fc, folder: normalizeDropboxFolder(folder), logger: logger}

	account, err := uc.GetCurrentAccount()
	if err != nil {
		return nil, b.translate(err, "identity check")
	}
	logger.Debug("dropbox account verified", "account", account.Email)
	return b, nil
}

// normalizeDropboxFolder returns folder as "/a/b", or "" for the root,
// which is how the Dropbox API spells the root in list calls.
func normalizeDropboxFolder(folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}
	return "/" + folder
}

func (b *DropboxBackend) Name() string { return "dropbox" }

func (b *DropboxBackend) remotePath(name string) string {
	return path.Join("/", b.folder, name)
}

// Exists looks up the metadata of name. A not_found lookup is false. Any
// other API error is logged and reported as true so the caller does not
// overwrite a version that may be there.
func (b *DropboxBackend) Exists(name string) (bool, error) {
	_, err := b.files.GetMetadata(files.NewGetMetadataArg(b.remotePath(name)))
	if err == nil {
		return true, nil
	}
	if cerr := classifyTransport(b.logger, "dropbox", "exists", err); cerr != nil {
		return false, cerr
	}
	if summary, ok := dropboxSummary(err); ok && strings.Contains(summary, "not_found") {
		return false, nil
	}
	if isDropboxAuthError(err) {
		return false, discosync.MarkAuth(err, "dropbox exists")
	}
	b.logger.Warn("metadata lookup failed, assuming version exists", "version", name, "error", err)
	return true, nil
}

func (b *DropboxBackend) List() ([]discosync.RemoteEntry, error) {
	res, err := b.files.ListFolder(files.NewListFolderArg(b.folder))
	if err != nil {
		return nil, b.translate(err, "list")
	}

	var entries []discosync.RemoteEntry
	for {
		for _, md := range res.Entries {
			if f, ok := md.(*files.FileMetadata); ok {
				entries = append(entries, discosync.RemoteEntry{Name: f.Name, Rev: f.Rev})
			}
		}
		if !res.HasMore {
			break
		}
		res, err = b.files.ListFolderContinue(files.NewListFolderContinueArg(res.Cursor))
		if err != nil {
			return nil, b.translate(err, "list")
		}
	}
	return entries, nil
}

// Upload writes content in overwrite mode so a retried upload of the same
// name replaces the partial one.
func (b *DropboxBackend) Upload(name string, content []byte) error {
	arg := files.NewUploadArg(b.remotePath(name))
	arg.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: files.WriteModeOverwrite}}

	md, err := b.files.Upload(arg, bytes.NewReader(content))
	if err != nil {
		return b.translate(err, "upload")
	}
	b.logger.Debug("dropbox upload complete", "path", md.PathDisplay, "rev", md.Rev)
	return nil
}

func (b *DropboxBackend) Download(name string, w io.Writer) error {
	_, rc, err := b.files.Download(files.NewDownloadArg(b.remotePath(name)))
	if err != nil {
		return b.translate(err, "download")
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		if cerr := classifyTransport(b.logger, "dropbox", "download", err); cerr != nil {
			return cerr
		}
		return discosync.MarkBackend(err, "dropbox download")
	}
	return nil
}

// translate maps a Dropbox SDK error onto the error taxonomy.
func (b *DropboxBackend) translate(err error, op string) error {
	if cerr := classifyTransport(b.logger, "dropbox", op, err); cerr != nil {
		return cerr
	}

	msg := "dropbox " + op
	if isDropboxAuthError(err) {
		return discosync.MarkAuth(err, msg)
	}
	summary, _ := dropboxSummary(err)
	switch {
	case strings.Contains(summary, "insufficient_space"):
		return discosync.MarkQuota(err, msg)
	case strings.Contains(summary, "not_found"):
		return discosync.MarkNotFound(err, msg)
	default:
		return discosync.MarkBackend(err, msg)
	}
}

// isDropboxAuthError reports whether err is a rejected or expired token.
func isDropboxAuthError(err error) bool {
	var ae auth.AuthAPIError
	if errors.As(err, &ae) {
		return true
	}
	var aep *auth.AuthAPIError
	return errors.As(err, &aep)
}

// dropboxSummary extracts the error_summary of an endpoint error, e.g.
// "path/not_found/..".
func dropboxSummary(err error) (string, bool) {
	var (
		meta     files.GetMetadataAPIError
		list     files.ListFolderAPIError
		cont     files.ListFolderContinueAPIError
		upload   files.UploadAPIError
		download files.DownloadAPIError
		generic  dropbox.APIError
	)
	switch {
	case errors.As(err, &meta):
		return meta.ErrorSummary, true
	case errors.As(err, &list):
		return list.ErrorSummary, true
	case errors.As(err, &cont):
		return cont.ErrorSummary, true
	case errors.As(err, &upload):
		return upload.ErrorSummary, true
	case errors.As(err, &download):
		return download.ErrorSummary, true
	case errors.As(err, &generic):
		return generic.ErrorSummary, true
	default:
		return "", false
	}
}

// Compile-time check that DropboxBackend implements discosync.Backend
var _ discosync.Backend = (*DropboxBackend)(nil)
