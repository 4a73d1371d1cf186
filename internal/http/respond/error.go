package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workflow-backend/internal/apperr"
)

const unknownErrorMessage = "Unknown error"

// BuildErrorEnvelope resolves the status and envelope for err.
//
// Unclassified errors give 500 with code 0 and the error's own message.
// Domain errors contribute their status, application code, hint and meta.
// External-API errors contribute their allow-listed fields. The stack trace
// is attached only when devMode is set.
func BuildErrorEnvelope(err error, devMode bool) (int, ErrorEnvelope) {
	status := http.StatusInternalServerError
	env := ErrorEnvelope{Message: unknownErrorMessage}
	if err == nil {
		return status, env
	}
	if msg := err.Error(); msg != "" {
		env.Message = msg
	}

	if re, ok := apperr.AsResponseError(err); ok {
		if validStatus(re.Status) {
			status = re.Status
		}
		env.Code = re.Code
		env.Hint = re.Hint
		env.Meta = re.Meta
	}
	if ee, ok := apperr.AsExternalAPIError(err); ok {
		env.Extra = ee.Fields()
	}
	if devMode {
		env.Stacktrace = apperr.StackTrace(err)
	}
	return status, env
}

func validStatus(s int) bool { return s >= 100 && s <= 599 }

// writeError writes the JSON error envelope and stops the handler chain. A
// response that already started cannot be replaced; the chain is only
// aborted then.
func writeError(c *gin.Context, status int, env ErrorEnvelope) {
	if c.Writer.Written() {
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, env)
}
