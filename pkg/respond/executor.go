package respond

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// Executor writes a prepared envelope directly onto an in-flight response.
// It exists because the shielding middleware runs outside gin's handler
// dispatch, so the status/serialize/flush sequence the framework normally
// performs has to be reproduced here.
type Executor struct{}

// Execute writes the envelope and returns once the body has been flushed.
// Calling it after the response has started is an ordering bug in the
// pipeline, not a recoverable condition; it fails loudly so double-write
// bugs surface in testing instead of silently corrupting responses.
func (Executor) Execute(c *gin.Context, env Envelope) error {
	if c == nil {
		panic("respond: Execute called without a request context")
	}
	w := c.Writer
	if w.Written() {
		return fmt.Errorf("respond: response already started with status %d, refusing second write", w.Status())
	}
	// the envelope defines its own representation; entity headers pending
	// from the aborted attempt must not leak onto it (Retry-After and the
	// like are about the failure itself and survive)
	hdr := w.Header()
	for _, k := range []string{"Content-Type", "Content-Length", "Content-Encoding", "ETag", "Last-Modified"} {
		hdr.Del(k)
	}
	status := env.Status
	if status == 0 {
		status = 500
	}
	c.Status(status)
	if err := (render.JSON{Data: env.Body}).Render(w); err != nil {
		return fmt.Errorf("respond: render envelope: %w", err)
	}
	w.Flush()
	return nil
}
