package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/httperr"
	"github.com/profilehub/profilehub/pkg/logger"
	"github.com/profilehub/profilehub/pkg/metrics"
	"github.com/profilehub/profilehub/pkg/respond"
)

// Shield wraps the entire downstream pipeline in a failure boundary. Every
// unhandled failure, whether a panic or an error attached to the context,
// becomes exactly one envelope:
//
//	domain not-found        -> 404, the failure's own message
//	oversized request body  -> 400, "payload too large, max N kilobytes"
//	anything else           -> 500, fixed shield message (never the original
//	                           text); the original is logged with its stack
//
// If the response already started streaming, no envelope can follow the
// flushed bytes: the failure is logged as a warning and swallowed here.
// In gin debug mode an unrecognized panic is re-raised after the envelope is
// written so development tooling still sees it; the two distinguished kinds
// are always fully handled.
func Shield(f respond.Factory, exec respond.Executor) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", r)
				}
				if shieldFailure(c, f, exec, err, true) && gin.Mode() == gin.DebugMode {
					panic(r)
				}
			}
		}()
		c.Next()
		if len(c.Errors) > 0 {
			shieldFailure(c, f, exec, c.Errors.Last().Err, false)
		}
	}
}

// shieldFailure converts one failure into an envelope. It reports whether
// the failure was generic (not one of the distinguished kinds), which is
// what decides re-raising in debug mode.
func shieldFailure(c *gin.Context, f respond.Factory, exec respond.Executor, err error, fromPanic bool) bool {
	if c.Writer.Written() {
		// bytes are on the wire; nothing more can be written
		logger.Warnf("failure after response started on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		metrics.ShieldedErrors.WithLabelValues("late").Inc()
		return false
	}

	var env respond.Envelope
	generic := false
	switch {
	case httperr.IsNotFound(err):
		var nf *httperr.NotFoundError
		errors.As(err, &nf)
		env = f.Message(http.StatusNotFound, nf.Error())
		metrics.ShieldedErrors.WithLabelValues("not_found").Inc()
	case isPayloadTooLarge(err, &env, f):
		metrics.ShieldedErrors.WithLabelValues("payload_too_large").Inc()
	default:
		generic = true
		env = f.Message(http.StatusInternalServerError, respond.ShieldMessage)
		metrics.ShieldedErrors.WithLabelValues("internal").Inc()
		if fromPanic {
			logger.Errorf("panic on %s %s: %v\n%s", c.Request.Method, c.Request.URL.Path, err, debug.Stack())
		} else {
			logger.Errorf("unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
	}

	c.Abort()
	if werr := exec.Execute(c, env); werr != nil {
		// double-write is an ordering bug; surface it, never hide it
		logger.Errorf("failed to write error envelope: %v", werr)
	}
	return generic
}

// isPayloadTooLarge matches the two typed oversize signals: the pipeline's
// own tag and the transport's *http.MaxBytesError raised by MaxBytesReader.
// No message-string matching is involved.
func isPayloadTooLarge(err error, env *respond.Envelope, f respond.Factory) bool {
	var limit int64
	var ptl *httperr.PayloadTooLarge
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &ptl):
		limit = ptl.MaxBytes
	case errors.As(err, &mbe):
		limit = mbe.Limit
	default:
		return false
	}
	*env = f.Message(http.StatusBadRequest, fmt.Sprintf("payload too large, max %d kilobytes", limit/1024))
	return true
}
