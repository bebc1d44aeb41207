package main

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/shroud/internal/api"
	"github.com/JaimeStill/shroud/internal/config"
	"github.com/JaimeStill/shroud/internal/infrastructure"
	"github.com/JaimeStill/shroud/pkg/lifecycle"
	"github.com/JaimeStill/shroud/pkg/middleware"
	"github.com/JaimeStill/shroud/pkg/module"
	"github.com/JaimeStill/shroud/web/scalar"
)

type Modules struct {
	API    *module.Module
	Scalar *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	modules := &Modules{API: apiModule}
	if !cfg.API.OpenAPI.Disabled {
		modules.Scalar = scalar.NewModule("/scalar", cfg.API.BasePath+"/openapi.json")
		modules.Scalar.Use(middleware.Logger(infra.Logger))
	}
	return modules, nil
}

// Mount attaches every built module to router. Scalar is nil when the OpenAPI
// document is disabled.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	if m.Scalar != nil {
		router.Mount(m.Scalar)
	}
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", readyz(infra.Lifecycle))

	router.HandleNative("GET /metrics", promhttp.Handler().ServeHTTP)

	return router
}

type readiness struct {
	Status   string            `json:"status"`
	Degraded map[string]string `json:"degraded,omitempty"`
}

// readyz reports 503 until every startup hook has finished. Unavailable
// detectors do not block readiness; their languages run pattern-only and are
// listed under "degraded".
func readyz(reporter lifecycle.HealthReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !reporter.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(readiness{Status: "not ready"})
			return
		}

		body := readiness{Status: "ready", Degraded: reporter.Degraded()}
		if len(body.Degraded) > 0 {
			body.Status = "degraded"
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(body)
	}
}
