package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func pageQueryFor(t *testing.T, rawQuery string) (int, int) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)

	return pageQuery(c)
}

func TestPageQuery(t *testing.T) {
	cases := []struct {
		name        string
		query       string
		wantPage    int
		wantPerPage int
	}{
		{"defaults", "", 1, defaultPerPage},
		{"explicit", "page=3&per_page=10", 3, 10},
		{"zero page clamps to first", "page=0", 1, defaultPerPage},
		{"zero per_page falls back", "per_page=0", 1, defaultPerPage},
		{"per_page capped", "per_page=1000", 1, maxPerPage},
		{"garbage falls back", "page=abc&per_page=-5", 1, defaultPerPage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, perPage := pageQueryFor(t, tc.query)
			if page != tc.wantPage || perPage != tc.wantPerPage {
				t.Fatalf("pageQuery(%q) = (%d, %d), want (%d, %d)",
					tc.query, page, perPage, tc.wantPage, tc.wantPerPage)
			}
		})
	}
}
