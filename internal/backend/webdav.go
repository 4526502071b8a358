package backend

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/studio-b12/gowebdav"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// WebDAVConfig holds the connection settings for a WebDAV server.
type WebDAVConfig struct {
	URL      string
	User     string
	Password string
	Folder   string // remote folder holding the versions, created on connect
}

// WebDAVBackend stores versions as files in one folder on a WebDAV server
// such as Nextcloud or ownCloud.
type WebDAVBackend struct {
	client *gowebdav.Client
	faults *faultRecorder
	folder string
	logger discosync.Logger
}

// NewWebDAVBackend validates cfg, connects once to check the credentials and
// makes sure the backup folder exists.
func NewWebDAVBackend(cfg WebDAVConfig, logger discosync.Logger) (*WebDAVBackend, error) {
	switch {
	case cfg.URL == "":
		return nil, discosync.ConfigErrorf("webdav backend requires webdav_url to be set")
	case cfg.User == "":
		return nil, discosync.ConfigErrorf("webdav backend requires webdav_user to be set")
	case cfg.Password == "":
		return nil, discosync.ConfigErrorf("webdav backend requires webdav_password to be set")
	}
	if logger == nil {
		logger = discosync.NewNopLogger()
	}

	folder := strings.Trim(cfg.Folder, "/")
	if folder == "" {
		folder = "discodos"
	}

	b := &WebDAVBackend{
		client: gowebdav.NewClient(cfg.URL, cfg.User, cfg.Password),
		faults: &faultRecorder{base: http.DefaultTransport},
		folder: "/" + folder,
		logger: logger,
	}
	b.client.SetTransport(b.faults)

	if err := b.client.Connect(); err != nil {
		return nil, b.translate(err, "connect")
	}
	if err := b.ensureFolder(); err != nil {
		return nil, err
	}
	logger.Debug("connected to webdav server", "url", cfg.URL, "folder", b.folder)
	return b, nil
}

func (b *WebDAVBackend) Name() string { return "webdav" }

func (b *WebDAVBackend) ensureFolder() error {
	info, err := b.client.Stat(b.folder)
	if err == nil {
		if !info.IsDir() {
			return discosync.ConfigErrorf("webdav folder %s is not a directory", b.folder)
		}
		return nil
	}
	if statusOf(err) != http.StatusNotFound {
		return b.translate(err, "stat folder")
	}
	if err := b.client.MkdirAll(b.folder, 0755); err != nil {
		return b.translate(err, "create folder")
	}
	b.logger.Info("created webdav folder", "folder", b.folder)
	return nil
}

func (b *WebDAVBackend) remotePath(name string) string {
	return path.Join(b.folder, name)
}

func (b *WebDAVBackend) Exists(name string) (bool, error) {
	info, err := b.client.Stat(b.remotePath(name))
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return false, nil
		}
		return false, b.translate(err, "exists")
	}
	return !info.IsDir(), nil
}

func (b *WebDAVBackend) List() ([]discosync.RemoteEntry, error) {
	infos, err := b.client.ReadDir(b.folder)
	if err != nil {
		return nil, b.translate(err, "list")
	}
	return filterFolderEntries(infos), nil
}

// filterFolderEntries drops collections from a PROPFIND result, whether the
// server marks them as such or only through a trailing slash in the name.
func filterFolderEntries(infos []os.FileInfo) []discosync.RemoteEntry {
	entries := make([]discosync.RemoteEntry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		entries = append(entries, discosync.RemoteEntry{Name: name})
	}
	return entries
}

func (b *WebDAVBackend) Upload(name string, content []byte) error {
	if err := b.client.Write(b.remotePath(name), content, 0644); err != nil {
		return b.translate(err, "upload")
	}
	return nil
}

func (b *WebDAVBackend) Download(name string, w io.Writer) error {
	rc, err := b.client.ReadStream(b.remotePath(name))
	if err != nil {
		return b.translate(err, "download")
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		if cerr := classifyTransport(b.logger, "webdav", "download", err); cerr != nil {
			return cerr
		}
		return discosync.MarkBackend(err, "webdav download")
	}
	return nil
}

// statusOf returns the HTTP status carried by a gowebdav error, or 0.
func statusOf(err error) int {
	var se gowebdav.StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// maxFaultBody bounds how much of an error response body is kept.
const maxFaultBody = 4 << 10

// faultRecorder is an http.RoundTripper that keeps the start of the body of
// the last failed response. gowebdav reports failures by status code only.
type faultRecorder struct {
	base http.RoundTripper

	mu     sync.Mutex
	status int
	body   string
}

type rewoundBody struct {
	io.Reader
	io.Closer
}

func (r *faultRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.status, r.body = 0, ""
	r.mu.Unlock()

	resp, err := r.base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}

	head, _ := io.ReadAll(io.LimitReader(resp.Body, maxFaultBody))
	resp.Body = rewoundBody{Reader: io.MultiReader(bytes.NewReader(head), resp.Body), Closer: resp.Body}

	r.mu.Lock()
	r.status, r.body = resp.StatusCode, strings.TrimSpace(string(head))
	r.mu.Unlock()
	return resp, nil
}

// take returns and forgets the recorded body if it belongs to a response
// with the given status.
func (r *faultRecorder) take(status int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != status {
		return ""
	}
	body := r.body
	r.status, r.body = 0, ""
	return body
}

// translate maps a gowebdav error onto the error taxonomy. The server's
// response text, when there is one, becomes part of the message.
func (b *WebDAVBackend) translate(err error, op string) error {
	if cerr := classifyTransport(b.logger, "webdav", op, err); cerr != nil {
		return cerr
	}

	msg := "webdav " + op
	status := statusOf(err)
	if status == 0 {
		return discosync.MarkBackend(err, msg)
	}

	detail := http.StatusText(status)
	if text := b.faults.take(status); text != "" && text != detail {
		detail += ": " + text
	}
	err = fmt.Errorf("%w (%s)", err, detail)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return discosync.MarkAuth(err, msg)
	case http.StatusNotFound:
		return discosync.MarkNotFound(err, msg)
	case http.StatusInsufficientStorage:
		return discosync.MarkQuota(err, msg)
	default:
		return discosync.MarkBackend(err, msg)
	}
}

// Compile-time check that WebDAVBackend implements discosync.Backend
var _ discosync.Backend = (*WebDAVBackend)(nil)
