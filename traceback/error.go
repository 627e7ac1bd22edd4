package traceback

import (
	"fmt"
	"net/mail"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Error is an error with a parent chain, call-site information, and
// arbitrary structured data. The zero value is not meaningful; use [New],
// [Newf], [Wrap], or [FromError].
//
// The With* methods mutate and return the receiver, so construction chains:
//
//	err := traceback.New(`connection refused`).
//		WithProject(`billing`).
//		WithExtraData(map[string]any{`addr`: addr})
type Error struct {
	ID          uuid.UUID      `json:"id"`
	Message     string         `json:"message"`
	File        string         `json:"file"`
	Line        int            `json:"line"`
	Parent      *Error         `json:"parent,omitempty"`
	TimeCreated time.Time      `json:"time_created"`
	ExtraData   map[string]any `json:"extra_data,omitempty"`
	Subscribers []string       `json:"subscribers,omitempty"`
	Project     string         `json:"project,omitempty"`
	Computer    string         `json:"computer,omitempty"`
	User        string         `json:"user,omitempty"`

	// IsParent marks an error that lives inside another error's chain.
	// Parent errors are never reported on their own.
	IsParent bool `json:"is_parent"`

	// IsHandled marks an error that has already been reported, so a
	// second Report becomes a no-op.
	IsHandled bool `json:"is_handled"`
}

// New returns a new Error with the given message, capturing the caller's
// file and line.
func New(message string) *Error {
	return newAt(2, message)
}

// Newf is [New] with fmt.Sprintf semantics.
func Newf(format string, args ...any) *Error {
	return newAt(2, fmt.Sprintf(format, args...))
}

// Wrap returns a new Error at the caller's file and line, with parent
// attached to its chain. An empty message inherits the parent's message.
func Wrap(parent *Error, message string) *Error {
	if message == `` && parent != nil {
		message = parent.Message
	}
	return newAt(2, message).WithParent(parent)
}

// FromError adopts an arbitrary error. A *Error parent is chained as-is;
// anything else is recorded under the "error" key of the extra data. An
// empty message inherits err's message.
func FromError(err error, message string) *Error {
	if message == `` && err != nil {
		message = err.Error()
	}
	x := newAt(2, message)
	if parent, ok := err.(*Error); ok {
		return x.WithParent(parent)
	}
	if err != nil {
		x.ExtraData = map[string]any{`error`: err.Error()}
	}
	return x
}

func newAt(skip int, message string) *Error {
	x := &Error{
		ID:          uuid.New(),
		Message:     message,
		TimeCreated: time.Now().UTC(),
	}
	if _, file, line, ok := runtime.Caller(skip); ok {
		x.File = file
		x.Line = line
	}
	return x
}

// Error renders the chain, oldest ancestor first, each generation indented
// one tab further, ending with the receiver's own file:line and message.
func (x *Error) Error() string {
	var chain []*Error
	for p := x; p != nil; p = p.Parent {
		chain = append(chain, p)
	}
	var b strings.Builder
	for i := len(chain) - 1; i >= 0; i-- {
		if i != len(chain)-1 {
			b.WriteByte('\n')
		}
		for j := 0; j < len(chain)-1-i; j++ {
			b.WriteByte('\t')
		}
		fmt.Fprintf(&b, `%s:%d: %s`, chain[i].File, chain[i].Line, chain[i].Message)
	}
	return b.String()
}

// Unwrap returns the parent error, if any, enabling use with [errors.Is]
// and [errors.As] through the chain.
func (x *Error) Unwrap() error {
	if x.Parent == nil {
		return nil
	}
	return x.Parent
}

// Equal reports whether the two errors carry the same data, ignoring the
// handled flag (which is bookkeeping, not part of the error), the ID, and
// the creation time.
func (x *Error) Equal(other *Error) bool {
	if x == nil || other == nil {
		return x == other
	}
	if x.Message != other.Message ||
		x.File != other.File ||
		x.Line != other.Line ||
		x.Project != other.Project ||
		x.Computer != other.Computer ||
		x.User != other.User ||
		x.IsParent != other.IsParent ||
		len(x.ExtraData) != len(other.ExtraData) ||
		len(x.Subscribers) != len(other.Subscribers) {
		return false
	}
	for k, v := range x.ExtraData {
		if ov, ok := other.ExtraData[k]; !ok || fmt.Sprint(v) != fmt.Sprint(ov) {
			return false
		}
	}
	for i, s := range x.Subscribers {
		if other.Subscribers[i] != s {
			return false
		}
	}
	return x.Parent.Equal(other.Parent)
}

// WithParent attaches parent to the chain, marking it as a parent so it is
// never reported on its own.
func (x *Error) WithParent(parent *Error) *Error {
	if parent != nil {
		parent.IsParent = true
	}
	x.Parent = parent
	return x
}

// WithExtraData attaches arbitrary structured data, which is included in
// the JSON form of the error.
func (x *Error) WithExtraData(extraData map[string]any) *Error {
	x.ExtraData = extraData
	return x
}

// WithSubscribers sets the email addresses to be notified of this error.
// Invalid addresses are dropped.
func (x *Error) WithSubscribers(subscribers ...string) *Error {
	x.Subscribers = x.Subscribers[:0]
	for _, s := range subscribers {
		if _, err := mail.ParseAddress(s); err != nil {
			logger().Debug().
				Str(`address`, s).
				Log(`traceback: dropped invalid subscriber address`)
			continue
		}
		x.Subscribers = append(x.Subscribers, s)
	}
	return x
}

// WithProject sets the project name.
func (x *Error) WithProject(project string) *Error {
	x.Project = project
	return x
}

// WithComputerName sets the computer name.
func (x *Error) WithComputerName(computer string) *Error {
	x.Computer = computer
	return x
}

// WithUsername sets the user name.
func (x *Error) WithUsername(user string) *Error {
	x.User = user
	return x
}

// WithEnvVars populates the project, computer, and user fields from the
// environment: the GO_PROJECT_NAME variable, the hostname, and the
// USER/USERNAME variables, respectively, with explanatory placeholders when
// unavailable.
func (x *Error) WithEnvVars() *Error {
	x.Project = envOr(`GO_PROJECT_NAME`, `Unknown due to GO_PROJECT_NAME missing`)
	if host, err := os.Hostname(); err == nil {
		x.Computer = host
	} else {
		x.Computer = `Unknown due to hostname lookup failure`
	}
	if user := os.Getenv(`USER`); user != `` {
		x.User = user
	} else {
		x.User = envOr(`USERNAME`, `Unknown due to USER and USERNAME missing`)
	}
	return x
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != `` {
		return v
	}
	return fallback
}
