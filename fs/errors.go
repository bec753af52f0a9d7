package fs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorKind classifies what went wrong in a Provider call
type ErrorKind int

// Error kinds
const (
	KindUnknown ErrorKind = iota
	KindAuth
	KindNotCached
	KindRemoteCall
	KindLocalIO
	KindUnsupported
	KindTooDeep
)

var errorKindToString = []string{
	KindUnknown:     "unknown error",
	KindAuth:        "authentication failed",
	KindNotCached:   "path not known - list its parent directory first",
	KindRemoteCall:  "remote call failed",
	KindLocalIO:     "local I/O failed",
	KindUnsupported: "operation not supported",
	KindTooDeep:     "directory tree too deep",
}

// String turns an ErrorKind into a description
func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(errorKindToString) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return errorKindToString[k]
}

// Error is returned by every Provider operation. Err is the
// underlying cause, if any.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

// Error satisfies the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Path != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%q", e.Path)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Cause returns the underlying cause for github.com/pkg/errors
func (e *Error) Cause() error {
	return e.Err
}

// Is matches the bare sentinels below by kind so that
//
//	errors.Is(err, fs.ErrorNotCached)
//
// works for any not cached error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Path == "" && t.Err == nil
}

// Sentinels for errors.Is
var (
	ErrorAuth        = &Error{Kind: KindAuth}
	ErrorNotCached   = &Error{Kind: KindNotCached}
	ErrorRemoteCall  = &Error{Kind: KindRemoteCall}
	ErrorLocalIO     = &Error{Kind: KindLocalIO}
	ErrorUnsupported = &Error{Kind: KindUnsupported}
	ErrorTooDeep     = &Error{Kind: KindTooDeep}
)

// NewError makes a new *Error
func NewError(kind ErrorKind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// AuthError wraps a credential or session failure
func AuthError(op string, err error) error {
	return NewError(KindAuth, op, "", err)
}

// NotCachedError reports that path has never been seen
func NotCachedError(op, path string) error {
	return NewError(KindNotCached, op, path, nil)
}

// RemoteCallError wraps a failed Drive request
func RemoteCallError(op, path string, err error) error {
	return NewError(KindRemoteCall, op, path, err)
}

// LocalIOError wraps a failed local file system operation
func LocalIOError(op, path string, err error) error {
	return NewError(KindLocalIO, op, path, err)
}

// UnsupportedError reports an operation this provider can't do
func UnsupportedError(op, path, reason string) error {
	return NewError(KindUnsupported, op, path, errors.New(reason))
}

// TooDeepError reports that a recursive walk hit its depth limit
func TooDeepError(op, path string, limit int) error {
	return NewError(KindTooDeep, op, path, errors.Errorf("more than %d levels", limit))
}

// KindOf returns the kind of the first *Error in err's chain or
// KindUnknown if there isn't one.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
