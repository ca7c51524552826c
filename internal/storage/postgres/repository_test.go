package postgres

import (
	"context"
	"testing"
	"time"
)

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"postgresql://u:p@db:5432/saldo", "postgres://u:p@db:5432/saldo?sslmode=disable"},
		{"postgres://db/saldo?application_name=x", "postgres://db/saldo?application_name=x&sslmode=disable"},
		{"postgres://db/saldo?sslmode=require", "postgres://db/saldo?sslmode=require"},
		{"  ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Fatalf("%q: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOpenRejectsBadURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := Open(ctx, "postgres://%zz"); err == nil {
		t.Fatalf("expected error for malformed url")
	}
}
