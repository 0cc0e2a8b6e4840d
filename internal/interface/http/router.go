package http

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/flat-price/internal/infra/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, form *FormHandler, valuation *ValuationHandler, health *HealthHandler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With("component", "http.router")

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.tmpl")))
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	// One limiter so every visitor-facing route draws from the same per-IP budget.
	rateLimit := rateLimitMiddleware(cfg.HTTP.RateLimit, logger)

	pages := router.Group("/", rateLimit)
	{
		pages.GET("/", form.Page)
		pages.POST("/submit", form.SubmitPage)
		pages.POST("/overlay/close", form.CloseOverlayPage)
		pages.POST("/toast/close", form.CloseToastPage)
	}

	api := router.Group("/api", rateLimit)
	{
		api.POST("/predict", valuation.Predict)
	}

	v1 := api.Group("/v1")
	{
		v1.GET("/form", form.GetForm)
		v1.PUT("/form/fields/:name", form.ChangeField)
		v1.POST("/form/submit", form.Submit)
		v1.POST("/form/overlay/close", form.CloseOverlay)
		v1.POST("/form/toast/close", form.CloseToast)
		v1.GET("/predictions", valuation.Recent)
		v1.POST("/predictions/comparables", valuation.Comparables)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
