package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/malecare/trialmatch/config"
	"github.com/malecare/trialmatch/dialog"
	"github.com/malecare/trialmatch/nlu"
	"github.com/malecare/trialmatch/registry"
	"github.com/malecare/trialmatch/session"
)

// Run wires the session store, NLU gateway, registry client and
// conversation engine together and serves the chat API.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}
	extractor, err := nlu.NewExtractor(nlu.Client(cfg.NLU.Type), cfg.NLU)
	if err != nil {
		return err
	}
	engine := dialog.NewEngine(store, extractor, registry.NewClient(cfg.Registry))

	h := &ChatHandler{Engine: engine}
	h.Register(e)

	baseLogger.Printf("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}
