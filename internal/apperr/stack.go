package apperr

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// stackTracer is implemented by pkg/errors values and by the error kinds of
// this package.
type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// StackTrace renders the first stack trace found in err's chain, one frame
// per line. It returns "" when no error in the chain carries a stack.
func StackTrace(err error) string {
	var st stackTracer
	if !errors.As(err, &st) {
		return ""
	}
	frames := st.StackTrace()
	if len(frames) == 0 {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%+v", frames))
}
