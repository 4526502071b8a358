package discosync

import (
	"github.com/cockroachdb/errors"
)

// Exit codes for the CLI, following the usual Unix split between problems the
// user can fix and everything else.
const (
	ExitSuccess = 0
	ExitUser    = 1
	ExitSystem  = 2
)

// Error kinds. Backends translate their native faults into one of these with
// errors.Mark, so the original message survives and errors.Is identifies the kind.
var (
	// ErrConfig reports missing or empty credentials or settings.
	ErrConfig = errors.New("configuration error")

	// ErrAuth reports credentials rejected by the remote service.
	ErrAuth = errors.New("authentication failed")

	// ErrConnectivity reports DNS, TCP or other network-layer failures.
	ErrConnectivity = errors.New("remote service unreachable")

	// ErrQuotaExceeded reports that the remote has no room for the upload.
	ErrQuotaExceeded = errors.New("remote storage quota exceeded")

	// ErrBackend reports any other fault returned by the remote service.
	ErrBackend = errors.New("remote service error")

	// ErrNotFound reports that a named version does not exist remotely.
	ErrNotFound = errors.New("version not found")

	// ErrMalformedVersionName reports a name that does not decode to a timestamp.
	ErrMalformedVersionName = errors.New("malformed version name")
)

var errorKinds = []struct {
	err  error
	name string
	code int
}{
	{ErrConfig, "ConfigError", ExitUser},
	{ErrAuth, "AuthError", ExitUser},
	{ErrQuotaExceeded, "QuotaExceeded", ExitUser},
	{ErrConnectivity, "ConnectivityError", ExitSystem},
	{ErrNotFound, "NotFound", ExitSystem},
	{ErrMalformedVersionName, "MalformedVersionName", ExitSystem},
	{ErrBackend, "BackendError", ExitSystem},
}

// KindOf returns the taxonomy name of err, "" for nil and "Error" for
// anything that carries no kind.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Error"
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return ExitSystem
}

// ConfigErrorf returns a new error marked as ErrConfig.
func ConfigErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfig)
}

// MarkConfig wraps err with msg and marks it as ErrConfig.
func MarkConfig(err error, msg string) error {
	return errors.WithHint(
		errors.Mark(errors.Wrap(err, msg), ErrConfig),
		"check the backend settings in your discosync config",
	)
}

// MarkAuth wraps err with msg and marks it as ErrAuth.
func MarkAuth(err error, msg string) error {
	return errors.WithHint(
		errors.Mark(errors.Wrap(err, msg), ErrAuth),
		"check the credentials in your discosync config",
	)
}

// MarkQuota wraps err with msg and marks it as ErrQuotaExceeded.
func MarkQuota(err error, msg string) error {
	return errors.WithHint(
		errors.Mark(errors.Wrap(err, msg), ErrQuotaExceeded),
		"free up space on the remote or remove old versions there",
	)
}

// MarkBackend wraps err with msg and marks it as ErrBackend.
// The remote's own message stays part of the error text.
func MarkBackend(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrBackend)
}

// MarkNotFound wraps err with msg and marks it as ErrNotFound.
func MarkNotFound(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrNotFound)
}

// MarkConnectivity wraps err with msg and marks it as ErrConnectivity.
func MarkConnectivity(err error, msg string) error {
	return errors.WithHint(
		errors.Mark(errors.Wrap(err, msg), ErrConnectivity),
		"check your network connection and run the command again",
	)
}
