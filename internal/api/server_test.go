package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fishbanks/internal/game"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Bearer   abc123  ", "abc123"},
		{"Basic abc123", ""},
		{"Bearer", ""},
	}
	for _, c := range cases {
		if got := bearerToken(c.header); got != c.want {
			t.Errorf("bearerToken(%q) = %q, want %q", c.header, got, c.want)
		}
	}
}

func TestWriteDomainErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{game.ErrInsufficientFunds, http.StatusBadRequest},
		{game.ErrAlreadyInClan, http.StatusBadRequest},
		{game.ErrShipNotFound, http.StatusNotFound},
		{game.ErrAreaNotFound, http.StatusNotFound},
		{game.ErrClanNotFound, http.StatusNotFound},
		{game.ErrDuplicateIdempotency, http.StatusConflict},
		{game.ErrTxConflict, http.StatusConflict},
		{game.ErrClanNameTaken, http.StatusConflict},
		{game.ErrNotClanCreator, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("buy ship: %w", game.ErrInsufficientFunds), http.StatusBadRequest},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeDomainError(rec, c.err)
		if rec.Code != c.want {
			t.Errorf("writeDomainError(%v) status = %d, want %d", c.err, rec.Code, c.want)
		}
	}
}

func TestIdempotencyKeyHeader(t *testing.T) {
	r := httptest.NewRequest("POST", "/v1/ships/buy", nil)
	r.Header.Set("Idempotency-Key", "my-key")
	if got := idempotencyKey(r); got != "my-key" {
		t.Fatalf("idempotencyKey = %q, want my-key", got)
	}
}

func TestIdempotencyKeyGenerated(t *testing.T) {
	r := httptest.NewRequest("POST", "/v1/ships/buy", nil)
	first := idempotencyKey(r)
	second := idempotencyKey(r)
	if first == "" || second == "" {
		t.Fatal("generated key is empty")
	}
	if first == second {
		t.Fatal("generated keys should differ per call")
	}
}
