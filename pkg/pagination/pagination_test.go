package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/isoone/pkg/pagination"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 24, MaxPageSize: 96}
}

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := pagination.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.DefaultPageSize != 24 {
		t.Errorf("DefaultPageSize = %d, want 24", cfg.DefaultPageSize)
	}
	if cfg.MaxPageSize != 96 {
		t.Errorf("MaxPageSize = %d, want 96", cfg.MaxPageSize)
	}
}

func TestConfigFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PAGE_SIZE", "10")
	t.Setenv("TEST_MAX_PAGE", "50")

	cfg := pagination.Config{}
	if err := cfg.Finalize(&pagination.ConfigEnv{
		DefaultPageSize: "TEST_PAGE_SIZE",
		MaxPageSize:     "TEST_MAX_PAGE",
	}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.DefaultPageSize != 10 || cfg.MaxPageSize != 50 {
		t.Errorf("got %+v", cfg)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Setenv("TEST_PAGE_SIZE", "500")

	cfg := pagination.Config{}
	if err := cfg.Finalize(&pagination.ConfigEnv{DefaultPageSize: "TEST_PAGE_SIZE"}); err == nil {
		t.Error("expected error when default exceeds max")
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"empty", "", 1, 24},
		{"explicit", "page=3&page_size=10", 3, 10},
		{"clamped", "page=-1&page_size=1000", 1, 96},
		{"garbage", "page=x&page_size=y", 1, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.PageRequestFromQuery(values, defaultConfig())
			if req.Page != tt.wantPage || req.PageSize != tt.wantPageSize {
				t.Errorf("got page=%d size=%d, want page=%d size=%d", req.Page, req.PageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name      string
		page      int
		size      int
		want      []int
		wantPages int
		prev      bool
		next      bool
	}{
		{"first", 1, 3, []int{1, 2, 3}, 3, false, true},
		{"middle", 2, 3, []int{4, 5, 6}, 3, true, true},
		{"last partial", 3, 3, []int{7}, 3, true, false},
		{"past end", 9, 3, []int{}, 3, true, false},
		{"all", 1, 10, items, 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pagination.Paginate(items, pagination.PageRequest{Page: tt.page, PageSize: tt.size})
			if len(res.Data) != len(tt.want) {
				t.Fatalf("data: got %v, want %v", res.Data, tt.want)
			}
			for i := range tt.want {
				if res.Data[i] != tt.want[i] {
					t.Errorf("data[%d]: got %d, want %d", i, res.Data[i], tt.want[i])
				}
			}
			if res.Total != len(items) {
				t.Errorf("total: got %d", res.Total)
			}
			if res.TotalPages != tt.wantPages {
				t.Errorf("total pages: got %d, want %d", res.TotalPages, tt.wantPages)
			}
			if res.HasPrev() != tt.prev || res.HasNext() != tt.next {
				t.Errorf("prev/next: got %v/%v, want %v/%v", res.HasPrev(), res.HasNext(), tt.prev, tt.next)
			}
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	res := pagination.Paginate([]string(nil), pagination.PageRequest{Page: 1, PageSize: 5})
	if res.Data == nil {
		t.Error("data should be an empty slice, not nil")
	}
	if res.TotalPages != 1 {
		t.Errorf("total pages: got %d, want 1", res.TotalPages)
	}
}
