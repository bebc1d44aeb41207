package scalar_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/shroud/pkg/module"
	"github.com/JaimeStill/shroud/web/scalar"
)

func TestModuleServesReference(t *testing.T) {
	router := module.NewRouter()
	router.Mount(scalar.NewModule("/scalar", "/api/openapi.json"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/scalar", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %s", ct)
	}
	if !strings.Contains(rec.Body.String(), `data-url="/api/openapi.json"`) {
		t.Errorf("body missing spec url:\n%s", rec.Body.String())
	}
}
