package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/proctor/pkg/routes"
)

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(name))
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix: "/sessions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: named("list")},
			{Method: "GET", Pattern: "/all", Handler: named("all")},
			{Method: "GET", Pattern: "/exam/{examId}", Handler: named("exam")},
			{Method: "GET", Pattern: "/evidence/{id}", Handler: named("evidence")},
			{Method: "GET", Pattern: "/{id}", Handler: named("find")},
			{Method: "POST", Pattern: "/{id}/submit", Handler: named("submit")},
		},
	})

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"GET", "/sessions", "list"},
		{"GET", "/sessions/all", "all"},
		{"GET", "/sessions/exam/e1", "exam"},
		{"GET", "/sessions/evidence/s1", "evidence"},
		{"GET", "/sessions/s1", "find"},
		{"POST", "/sessions/s1/submit", "submit"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200", rec.Code)
			}
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("handler: got %q, want %q", got, tt.want)
			}
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/sessions/s1", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("unregistered method: got %d, want 405", rec.Code)
	}
}

func TestNestedGroups(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix: "/api",
		Children: []routes.Group{
			{
				Prefix: "/exams",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/{id}", Handler: named("exam")},
				},
			},
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/exams/e1", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "exam" {
		t.Errorf("nested route: got %d %q", rec.Code, rec.Body.String())
	}
}
