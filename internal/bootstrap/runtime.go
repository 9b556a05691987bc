package bootstrap

import (
	"github.com/citizen-portaal/portaal-backend/config"
	"github.com/citizen-portaal/portaal-backend/internal/logging"
	"github.com/gin-gonic/gin"
)

// ConfigureRuntime applies the process-wide settings taken from APP_ENV and
// LOG_LEVEL. Call it once, before the router is built.
func ConfigureRuntime(app config.AppConfig) {
	gin.SetMode(ginModeFor(app.Environment))
	logging.SetLevel(app.LogLevel)
}

func ginModeFor(env string) string {
	switch env {
	case "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
