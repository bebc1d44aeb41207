package ner_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JaimeStill/shroud/internal/detection"
	"github.com/JaimeStill/shroud/internal/detection/ner"
)

func newSidecar(t *testing.T, analyze http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /analyze", analyze)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDetect(t *testing.T) {
	text := "שלום Dana Levi"

	srv := newSidecar(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text     string   `json:"text"`
			Language string   `json:"language"`
			Entities []string `json:"entities"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Language != "he" || req.Text != text || len(req.Entities) != 1 || req.Entities[0] != "PERSON" {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"entities":[{"start":5,"end":14,"entity_group":"per","score":87.5}]}`))
	})

	c := ner.New(ner.Config{URL: srv.URL + "/", Timeout: time.Second})
	raws, err := c.Detect(context.Background(), text, "he")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("got %d results, want 1", len(raws))
	}

	src := detection.Source{Name: c.Name(), Kind: c.Kind()}
	res, ok := detection.Adapt(raws[0], src, text, detection.DefaultFloor)
	if !ok {
		t.Fatal("result discarded")
	}
	if res.Text != "Dana Levi" || res.EntityType != "PERSON" || res.Score != 0.875 {
		t.Errorf("result = %+v", res)
	}
}

func TestDetectDropsUnconfiguredEntities(t *testing.T) {
	text := "Dana Levi flew to Paris on 3 May"

	srv := newSidecar(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"text":"Dana Levi","entity_type":"B-PER","score":0.9},
			{"text":"Paris","entity_type":"LOCATION","score":0.9},
			{"text":"3 May","label":"DATE","score":0.9}
		]`))
	})

	tests := []struct {
		name     string
		entities []string
		want     []string
	}{
		{"default person only", nil, []string{"PERSON"}},
		{"person and location", []string{"person", "LOC"}, []string{"PERSON", "LOCATION"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ner.New(ner.Config{URL: srv.URL, Timeout: time.Second, Entities: tt.entities})
			raws, err := c.Detect(context.Background(), text, "en")
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}

			src := detection.Source{Name: c.Name(), Kind: c.Kind()}
			var got []string
			for _, raw := range raws {
				res, ok := detection.Adapt(raw, src, text, detection.DefaultFloor)
				if !ok {
					t.Fatalf("result discarded: %+v", raw)
				}
				got = append(got, res.EntityType)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("entities = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entities = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDetectBareArray(t *testing.T) {
	srv := newSidecar(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"text":"John Smith","label":"PERSON","confidence":0.42}]`))
	})

	c := ner.New(ner.Config{URL: srv.URL, Timeout: time.Second})
	raws, err := c.Detect(context.Background(), "Contact John Smith", "en")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	src := detection.Source{Name: c.Name(), Kind: c.Kind()}
	if _, ok := detection.Adapt(raws[0], src, "Contact John Smith", detection.DefaultFloor); ok {
		t.Error("result below the floor should be discarded")
	}
}

func TestDetectErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"entities":`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSidecar(t, tt.handler)
			c := ner.New(ner.Config{URL: srv.URL, Timeout: time.Second})
			if _, err := c.Detect(context.Background(), "text", "en"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCheck(t *testing.T) {
	srv := newSidecar(t, func(w http.ResponseWriter, r *http.Request) {})
	c := ner.New(ner.Config{URL: srv.URL, Timeout: time.Second})
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("Check: %v", err)
	}

	srv.Close()
	if err := c.Check(context.Background()); err == nil {
		t.Error("expected check failure after close")
	}
}

func TestDefaults(t *testing.T) {
	c := ner.New(ner.Config{URL: "http://localhost:1"})
	if c.Name() != "ner" || c.Kind() != detection.KindStatistical {
		t.Errorf("Name/Kind = %s/%s", c.Name(), c.Kind())
	}
	if got := c.Entities(); len(got) != 1 || got[0] != "PERSON" {
		t.Errorf("Entities = %v, want [PERSON]", got)
	}
}
