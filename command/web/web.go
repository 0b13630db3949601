package web

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloudspend/connectors/config"
	ccsv "cloudspend/connectors/csv"
	"cloudspend/domain/costs"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Run starts the Echo web server behind the cost dashboard SPA.
//
// Usage:
//
//	cloudspend web [-addr :8080] [-data ./data] [-ui ./ui/dist]
//
// Endpoints (all derived views accept provider, team, env, service,
// range (30d|90d|6m|1y) and q query parameters):
//
//	GET /api/spend          -> full normalized set, date descending: {data, count}
//	GET /api/spend/filters  -> distinct teams/services for the dropdowns
//	GET /api/spend/summary  -> KPI totals and month-over-month trends
//	GET /api/spend/daily    -> per-day cost series, ascending
//	GET /api/spend/services -> top services by cost (limit param, default 5)
//	GET /api/spend/teams    -> per-team cost, descending
//	GET /api/spend/export   -> filtered set as a CSV download
//
// When -ui points to a built Vite app (index.html exists), static files are
// served at / and unknown routes fall back to index.html for SPA routing.
func Run(args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", "", "http listen address (host:port), overrides config")
	dataDir := fs.String("data", "", "directory containing billing export CSVs, overrides config")
	uiDir := fs.String("ui", "", "directory containing built UI (Vite dist), overrides config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.LoadOrDefault()
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dataDir != "" {
		cfg.Server.DataDir = *dataDir
	}
	if *uiDir != "" {
		cfg.Server.UIDir = *uiDir
	}

	e := newServer(cfg)
	slog.Info("web.listen", "addr", cfg.Server.Addr, "data", cfg.Server.DataDir)
	return e.Start(cfg.Server.Addr)
}

func newServer(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	corsConfig := middleware.DefaultCORSConfig
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}
	e.Use(middleware.CORSWithConfig(corsConfig))

	// Each request re-reads the export files; the canonical set is immutable
	// for the lifetime of one fetch and never shared across requests.
	load := func() ([]costs.CostRecord, error) {
		return ccsv.LoadSpend(cfg.Server.DataDir, cfg.Providers)
	}

	e.GET("/api/spend", func(c echo.Context) error {
		records, err := load()
		if err != nil {
			return loadError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"data": records, "count": len(records)})
	})

	e.GET("/api/spend/filters", func(c echo.Context) error {
		// Dropdown options come from the unfiltered set so active filters
		// never hide options.
		records, err := load()
		if err != nil {
			return loadError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{
			"teams":    costs.Distinct(records, func(r costs.CostRecord) string { return r.Team }),
			"services": costs.Distinct(records, func(r costs.CostRecord) string { return r.Service }),
		})
	})

	e.GET("/api/spend/summary", func(c echo.Context) error {
		records, err := load()
		if err != nil {
			return loadError(c, err)
		}
		return c.JSON(http.StatusOK, costs.Summarize(filterFromQuery(c).Apply(records)))
	})

	e.GET("/api/spend/daily", func(c echo.Context) error {
		records, err := load()
		if err != nil {
			return loadError(c, err)
		}
		return c.JSON(http.StatusOK, costs.DailyTotals(filterFromQuery(c).Apply(records)))
	})

	e.GET("/api/spend/services", func(c echo.Context) error {
		records, err := load()
		if err != nil {
			return loadError(c, err)
		}
		limit := 5
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		return c.JSON(http.StatusOK, costs.TopServices(filterFromQuery(c).Apply(records), limit))
	})

	e.GET("/api/spend/teams", func(c echo.Context) error {
		records, err := load()
		if err != nil {
			return loadError(c, err)
		}
		return c.JSON(http.StatusOK, costs.TeamTotals(filterFromQuery(c).Apply(records)))
	})

	e.GET("/api/spend/export", func(c echo.Context) error {
		records, err := load()
		if err != nil {
			return loadError(c, err)
		}
		filtered := filterFromQuery(c).Apply(records)
		name := fmt.Sprintf("cloud_spend_report_%s.csv", time.Now().UTC().Format("2006-01-02"))
		c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
		c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+name)
		c.Response().WriteHeader(http.StatusOK)
		return ccsv.WriteSpendReport(c.Response(), filtered)
	})

	// Static UI (optional)
	indexPath := filepath.Join(cfg.Server.UIDir, "index.html")
	if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
		e.Static("/", cfg.Server.UIDir)
		e.GET("/", func(c echo.Context) error { return c.File(indexPath) })

		// Fallback to index.html for non-API 404s (SPA routing) while keeping
		// static assets working
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
				p := c.Request().URL.Path
				if !strings.HasPrefix(p, "/api") {
					_ = c.File(indexPath)
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
		}
	}

	return e
}

// filterFromQuery maps the query parameters onto the engine's filter state.
// Absent parameters are wildcards.
func filterFromQuery(c echo.Context) costs.Filter {
	return costs.Filter{
		Provider:  c.QueryParam("provider"),
		Team:      c.QueryParam("team"),
		Env:       c.QueryParam("env"),
		Service:   c.QueryParam("service"),
		DateRange: c.QueryParam("range"),
		Search:    c.QueryParam("q"),
	}
}

// loadError reports an ingestion failure: the whole fetch fails, no partial
// dataset is ever returned.
func loadError(c echo.Context, err error) error {
	slog.Error("web.spend.load.error", "error", err)
	if errors.Is(err, os.ErrNotExist) {
		return c.JSON(http.StatusNotFound, map[string]any{
			"error":   err.Error(),
			"message": "billing export file is missing",
		})
	}
	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error":   err.Error(),
		"message": "failed to load spend data",
	})
}
