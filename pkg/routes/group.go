package routes

import (
	"net/http"

	"github.com/JaimeStill/shroud/pkg/openapi"
)

// Group nests routes and child groups under a shared path prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux as "METHOD prefix+pattern".
func Register(mux *http.ServeMux, groups ...Group) {
	walk(groups, func(path string, r Route) {
		mux.HandleFunc(r.Method+" "+path, r.Handler)
	})
}

// Paths collects the documented routes in groups into OpenAPI path items
// keyed by full path, so the published document always matches what
// Register serves.
func Paths(groups ...Group) map[string]*openapi.PathItem {
	paths := make(map[string]*openapi.PathItem)
	walk(groups, func(path string, r Route) {
		if r.Doc == nil {
			return
		}
		item, ok := paths[path]
		if !ok {
			item = &openapi.PathItem{}
			paths[path] = item
		}
		switch r.Method {
		case http.MethodGet:
			item.Get = r.Doc
		case http.MethodPost:
			item.Post = r.Doc
		case http.MethodPut:
			item.Put = r.Doc
		case http.MethodDelete:
			item.Delete = r.Doc
		}
	})
	return paths
}

func walk(groups []Group, visit func(path string, r Route)) {
	for _, g := range groups {
		walkGroup("", g, visit)
	}
}

func walkGroup(parent string, g Group, visit func(path string, r Route)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		visit(prefix+r.Pattern, r)
	}
	for _, child := range g.Children {
		walkGroup(prefix, child, visit)
	}
}
