package routes

import (
	"net/http"

	"github.com/JaimeStill/shroud/pkg/openapi"
)

// Route binds an HTTP method and pattern to a handler. Doc is the route's
// OpenAPI operation; undocumented routes are served but left out of Paths.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	Doc     *openapi.Operation
}
