package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/pkg/respond"
)

// RequireHTTPS is a pre-action guard that short-circuits any request not
// arriving over a secure transport with a 403 envelope. Behind a TLS-
// terminating proxy the X-Forwarded-Proto header counts as secure. Install
// it only when deployment configuration requires HTTPS; otherwise it is not
// in the pipeline at all.
func RequireHTTPS(f respond.Factory, exec respond.Executor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			c.Next()
			return
		}
		c.Abort()
		env := f.Message(http.StatusForbidden, "SSL is required")
		if err := exec.Execute(c, env); err != nil {
			panic(err)
		}
	}
}
