package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/librarium/apiserver/internal/services"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query               string
		page, limit, offset int
		wantErr             bool
	}{
		{query: "", page: 1, limit: 10, offset: 0},
		{query: "page=3&limit=5", page: 3, limit: 5, offset: 10},
		{query: "limit=500", page: 1, limit: 100, offset: 0},
		{query: "page=0", wantErr: true},
		{query: "limit=abc", wantErr: true},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/books?"+tc.query, nil)
		page, limit, offset, err := parsePagination(req)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.query)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.query, err)
		}
		if page != tc.page || limit != tc.limit || offset != tc.offset {
			t.Fatalf("%q: got page=%d limit=%d offset=%d", tc.query, page, limit, offset)
		}
	}
}

func TestTotalPages(t *testing.T) {
	if got := totalPages(0, 10); got != 0 {
		t.Fatalf("expected 0 pages, got %d", got)
	}
	if got := totalPages(21, 10); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
}

func TestStatusForKind(t *testing.T) {
	cases := map[services.Kind]int{
		services.KindUnauthenticated: http.StatusUnauthorized,
		services.KindForbidden:       http.StatusForbidden,
		services.KindNotFound:        http.StatusNotFound,
		services.KindConflict:        http.StatusBadRequest,
		services.KindValidation:      http.StatusBadRequest,
		services.KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := statusForKind(kind); got != want {
			t.Fatalf("%s: expected %d, got %d", kind, want, got)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("secret")
	token, err := issueToken(42, secret, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	subject, err := parseTokenSubject(token, secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if subject != "42" {
		t.Fatalf("unexpected subject %q", subject)
	}

	if _, err := parseTokenSubject(token, []byte("other")); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
	expired, err := issueToken(42, secret, -time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := parseTokenSubject(expired, secret); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := bearerToken(req); err == nil {
		t.Fatalf("expected missing header to fail")
	}
	req.Header.Set("Authorization", "Basic abc")
	if _, err := bearerToken(req); err == nil {
		t.Fatalf("expected non-bearer scheme to fail")
	}
	req.Header.Set("Authorization", "bearer abc.def")
	token, err := bearerToken(req)
	if err != nil || token != "abc.def" {
		t.Fatalf("unexpected token %q err %v", token, err)
	}
}
