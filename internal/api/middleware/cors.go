package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/hostkit/internal/infrastructure/tracing"
)

// inspectorMethods are the verbs the inspector routes answer to.
var inspectorMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}

// InspectorCORS lets browser tools on origins read the inspector, open
// /stream and follow its traces. No origins, or "*", admits every origin;
// the inspector carries no credentials, so credentials stay disallowed.
func InspectorCORS(origins ...string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = inspectorMethods
	cfg.AddAllowHeaders(tracing.TraceHeader, tracing.SpanHeader)
	// clients backing off need Retry-After; trace headers tie a request to its log lines
	cfg.AddExposeHeaders("Retry-After", tracing.TraceHeader, tracing.SpanHeader)
	cfg.AllowWebSockets = true
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}
