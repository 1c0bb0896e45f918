package pagination_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/JaimeStill/proctor/pkg/pagination"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_PAGE_SIZE", "50")

	cfg := pagination.Config{}
	if err := cfg.Finalize(&pagination.ConfigEnv{DefaultPageSize: "TEST_PAGE_SIZE"}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.DefaultPageSize != 50 || cfg.MaxPageSize != 100 {
		t.Errorf("got %+v", cfg)
	}

	bad := pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}
	if err := bad.Finalize(nil); err == nil {
		t.Error("expected default > max to fail validation")
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		page     int
		pageSize int
		sorts    int
	}{
		{"empty", "", 1, 20, 0},
		{"explicit", "page=3&page_size=10&sort=-started_at", 3, 10, 1},
		{"clamped", "page=-1&page_size=1000", 1, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.PageRequestFromQuery(values, defaultConfig())

			if req.Page != tt.page || req.PageSize != tt.pageSize {
				t.Errorf("got page=%d size=%d", req.Page, req.PageSize)
			}
			if len(req.Sort) != tt.sorts {
				t.Errorf("sort = %v", req.Sort)
			}
		})
	}
}

func TestSortFieldsUnmarshal(t *testing.T) {
	var req pagination.PageRequest
	if err := json.Unmarshal([]byte(`{"page":2,"sort":"subject_email,-started_at"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(req.Sort) != 2 || !req.Sort[1].Descending {
		t.Errorf("sort = %+v", req.Sort)
	}

	if err := json.Unmarshal([]byte(`{"sort":[{"field":"id","descending":true}]}`), &req); err != nil {
		t.Fatalf("unmarshal array: %v", err)
	}
	if len(req.Sort) != 1 || req.Sort[0].Field != "id" {
		t.Errorf("sort = %+v", req.Sort)
	}
}

func TestNewPageResult(t *testing.T) {
	result := pagination.NewPageResult[int](nil, 41, 2, 20)
	if result.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", result.TotalPages)
	}
	if result.Data == nil {
		t.Error("Data should be an empty slice, not nil")
	}

	empty := pagination.NewPageResult([]int{}, 0, 1, 20)
	if empty.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", empty.TotalPages)
	}
}
