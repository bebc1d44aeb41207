package api

import (
	"fmt"
	"maps"
	"net/http"
	"slices"

	"github.com/JaimeStill/shroud/internal/config"
	"github.com/JaimeStill/shroud/internal/redaction"
	"github.com/JaimeStill/shroud/pkg/openapi"
	"github.com/JaimeStill/shroud/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) error {
	api := domain.Redaction.Handler(cfg.API.MaxUploadSizeBytes()).Routes()
	routes.Register(mux, api)

	if cfg.API.OpenAPI.Disabled {
		return nil
	}

	spec, err := buildSpec(cfg, api)
	if err != nil {
		return err
	}
	routes.Register(mux, routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/openapi.json", Handler: openapi.ServeSpec(spec)},
		},
	})
	return nil
}

// buildSpec serializes the OpenAPI document for the documented routes in groups.
func buildSpec(cfg *config.Config, groups ...routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	spec.Components.AddSchemas(redaction.Schemas())
	tags := redaction.Tags()
	for _, name := range slices.Sorted(maps.Keys(tags)) {
		spec.AddTag(name, tags[name])
	}
	spec.AddPaths("", routes.Paths(groups...))

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("openapi: %w", err)
	}
	return data, nil
}
