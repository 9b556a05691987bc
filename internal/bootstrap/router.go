package bootstrap

import (
	"database/sql"
	"time"

	httpapi "github.com/citizen-portaal/portaal-backend/internal/api/http"
	"github.com/citizen-portaal/portaal-backend/internal/api/http/middleware"
	"github.com/citizen-portaal/portaal-backend/internal/auth"
	authhttp "github.com/citizen-portaal/portaal-backend/internal/auth/http"
	authmw "github.com/citizen-portaal/portaal-backend/internal/auth/middleware"
	projectshttp "github.com/citizen-portaal/portaal-backend/internal/projects/http"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	CallbackSecret string
	DB             *sql.DB
	Verifier       auth.TokenVerifier
	Services       *Services
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB)
	healthHandler.RegisterRoutes(r)

	projects := projectshttp.New(
		dep.Services.Analysis,
		dep.Services.Status,
		dep.Services.Projects,
		dep.Services.Subscriber,
	)

	api := r.Group("/api")

	callbacks := api.Group("")
	callbacks.Use(middleware.SharedSecret(middleware.CallbackSecretHeader, dep.CallbackSecret))
	projects.RegisterCallbackRoutes(callbacks)

	user := api.Group("")
	user.Use(authmw.RequireUser(dep.Verifier))
	projects.Register(user)
	authhttp.New().Register(user)

	return r
}
