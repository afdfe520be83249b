package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func runCLI(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--url", srv.URL}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1}); err != nil {
		t.Fatalf("printJSON: %v", err)
	}

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestQuerySkipsEmpty(t *testing.T) {
	q := query("start", "2026-01-01", "end", "", "currency", "USD")
	if q.Encode() != "currency=USD&start=2026-01-01" {
		t.Fatalf("unexpected query %q", q.Encode())
	}
}

func TestBalanceCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/balance" || r.URL.Query().Get("currency") != "USD" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"range_start":"2026-01-01","range_end":"2026-01-31","display_currency":"USD","opening_balance":"80","range_net":"-6","final_balance":"74","rates_stale":true}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, srv, "balance", "--start", "2026-01-01", "--end", "2026-01-31", "--currency", "USD")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Final:    74") || !strings.Contains(out, "Warning") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestOverrideSetCmd(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"applied":true}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, srv, "override", "set", "2026-01-10", "usd", "13000")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if gotPath != "PUT /api/v1/overrides/2026-01-10/USD" {
		t.Fatalf("unexpected request %s", gotPath)
	}
	if gotBody["rate"] != "13000" {
		t.Fatalf("unexpected body %v", gotBody)
	}
	if strings.TrimSpace(out) != "applied" {
		t.Fatalf("unexpected output %q", out)
	}

	_, err = runCLI(t, srv, "override", "set", "2026-01-10", "USD", "null")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if v, ok := gotBody["rate"]; !ok || v != nil {
		t.Fatalf("expected explicit null rate, got %v", gotBody)
	}
}

func TestLedgerContinuityCmdFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"status":"inconsistent","consistent":false}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, srv, "ledger", "continuity", "--a", "2026-01-01", "--b", "2026-01-31", "--c", "2026-02-28")
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("expected a 409 failure, got %v", err)
	}
}

func TestEntriesCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entries":[{"id":"client_transaction-0000000000000001","flow_sign":"inflow","amount":"10","currency":"USD","date":"2026-01-02","origin":"client_transaction"}],"count":1}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, srv, "entries")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "client_transaction-0000...") || !strings.Contains(out, "2026-01-02") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
