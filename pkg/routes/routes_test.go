package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/shroud/pkg/openapi"
	"github.com/JaimeStill/shroud/pkg/routes"
)

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(name))
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(
		mux,
		routes.Group{
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/detectors", Handler: named("detectors")},
			},
			Children: []routes.Group{
				{
					Prefix: "/redactions",
					Routes: []routes.Route{
						{Method: "POST", Pattern: "/detect", Handler: named("detect")},
						{Method: "POST", Pattern: "/apply", Handler: named("apply")},
					},
				},
			},
		},
		routes.Group{
			Prefix: "/docs",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: named("docs")},
			},
		},
	)

	tests := []struct {
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{"GET", "/detectors", http.StatusOK, "detectors"},
		{"POST", "/redactions/detect", http.StatusOK, "detect"},
		{"POST", "/redactions/apply", http.StatusOK, "apply"},
		{"GET", "/docs", http.StatusOK, "docs"},
		{"GET", "/redactions/detect", http.StatusMethodNotAllowed, ""},
		{"POST", "/redactions/auto", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body: got %s, want %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	detect := &openapi.Operation{Summary: "detect"}
	apply := &openapi.Operation{Summary: "apply"}
	list := &openapi.Operation{Summary: "list"}

	paths := routes.Paths(
		routes.Group{
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/detectors", Handler: named("detectors"), Doc: list},
				{Method: "GET", Pattern: "/openapi.json", Handler: named("spec")},
			},
			Children: []routes.Group{
				{
					Prefix: "/redactions",
					Routes: []routes.Route{
						{Method: "POST", Pattern: "/detect", Handler: named("detect"), Doc: detect},
						{Method: "POST", Pattern: "/apply", Handler: named("apply"), Doc: apply},
					},
				},
			},
		},
	)

	tests := []struct {
		path string
		get  *openapi.Operation
		post *openapi.Operation
	}{
		{"/detectors", list, nil},
		{"/redactions/detect", nil, detect},
		{"/redactions/apply", nil, apply},
	}

	if len(paths) != len(tests) {
		t.Errorf("got %d paths, want %d: %v", len(paths), len(tests), paths)
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			item := paths[tt.path]
			if item == nil {
				t.Fatal("path missing")
			}
			if item.Get != tt.get || item.Post != tt.post {
				t.Errorf("item = %+v", item)
			}
		})
	}

	if _, ok := paths["/openapi.json"]; ok {
		t.Error("undocumented route published")
	}
}
