// Package errkind tags errors with one of the distinguished kinds the
// pipeline must surface to its caller, without relying on exceptions: every
// operation returns a plain error, wrapped with context via
// github.com/pkg/errors, and the original kind is tested for with [Is]. No
// function here extracts the kind from an error.
package errkind

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Distinguished error kinds.
var (
	ConfigInvalid         = errors.New("config invalid")
	NetworkUnavailable    = errors.New("network unavailable")
	IndexSignatureMissing = errors.New("index signature missing")
	IndexSignatureInvalid = errors.New("index signature invalid")
	PackageNotFound       = errors.New("package not found")
	ArchUnsupported       = errors.New("architecture unsupported")
	ChecksumMismatch      = errors.New("checksum mismatch")
	ArchiveMalformed      = errors.New("archive malformed")
	ArchivePathUnsafe     = errors.New("archive path unsafe")
	RecipeInvalid         = errors.New("recipe invalid")
	SandboxPrepareFailed  = errors.New("sandbox prepare failed")
	PrivilegeRequired     = errors.New("privilege required")
	NamespaceFailed       = errors.New("namespace setup failed")
	MountFailed           = errors.New("mount failed")
	ChrootFailed          = errors.New("chroot failed")
	ExecFailed            = errors.New("exec failed")
	BuildStepFailed       = errors.New("build step failed")
	StoreIoError          = errors.New("store io error")
)

// Wraps err with kind as its cause chain root and msg as context, the way
// the teacher wraps sentinels with crex.Wrap.
func Wrap(kind error, msg string, err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(joined{kind, err}, msg)
}

// Like [Wrap] but with a printf-style context message.
func Wrapf(kind error, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrapf(joined{kind, err}, format, args...)
}

// Tags err as being of kind with no further context, for use at the point a
// failure is first detected rather than propagated.
func New(kind error, msg string) error {
	return pkgerrors.WithMessage(joined{kind, nil}, msg)
}

// Reports whether err's cause chain contains kind.
func Is(err error, kind error) bool {
	return errors.Is(err, kind)
}

// joined pairs a distinguished kind with an optional underlying cause so
// that errors.Is(err, kind) succeeds while %v still prints the cause.
type joined struct {
	kind  error
	cause error
}

func (j joined) Error() string {
	if j.cause == nil {
		return j.kind.Error()
	}
	return j.kind.Error() + ": " + j.cause.Error()
}

func (j joined) Unwrap() []error {
	if j.cause == nil {
		return []error{j.kind}
	}
	return []error{j.kind, j.cause}
}
