package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := Root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := run(t, append(args, "--json")...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
}

func TestFees(t *testing.T) {
	var got map[string]string
	runJSON(t, &got, "fees", "1000")
	if got["totalFees"] != "3.5000" || got["totalCost"] != "1003.50" || got["makerFee"] != "1.0000" {
		t.Errorf("fees = %v", got)
	}

	out, err := run(t, "fees", "1000")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "totalCost:") || !strings.Contains(out, "1003.50") {
		t.Errorf("yaml output = %q", out)
	}

	if _, err := run(t, "fees", "-5"); err == nil {
		t.Error("negative amount accepted")
	}
}

func TestPayout(t *testing.T) {
	var got struct {
		Odds      int    `json:"odds"`
		PayoutEst string `json:"payoutEst"`
	}
	runJSON(t, &got, "payout", "1000", "67")
	if got.Odds != 67 || got.PayoutEst != "1489.04" {
		t.Errorf("payout = %+v", got)
	}
	if _, err := run(t, "payout", "1000", "0"); err == nil {
		t.Error("zero odds accepted")
	}
}

func TestScoreAndBadge(t *testing.T) {
	var s scoreOutput
	runJSON(t, &s, "score", "yes", "70")
	if !s.Outcome || s.Brier != "0.090" {
		t.Errorf("score = %+v", s)
	}
	if _, err := run(t, "score", "maybe", "70"); err == nil {
		t.Error("bad outcome accepted")
	}

	var b map[string]string
	runJSON(t, &b, "badge", "93")
	if b["badge"] != "platinum" || b["name"] != "Platinum" {
		t.Errorf("badge = %v", b)
	}
}

func TestGameSimulate(t *testing.T) {
	var res struct {
		TotalRounds int    `json:"totalRounds"`
		Badge       string `json:"badge"`
		Advice      struct {
			Trend string `json:"trend"`
		} `json:"advice"`
	}
	runJSON(t, &res, "game", "simulate", "--seed", "42", "--side", "NO", "--confidence", "50")
	if res.TotalRounds != 10 || res.Badge == "" || res.Advice.Trend == "" {
		t.Errorf("result = %+v", res)
	}
	if _, err := run(t, "game", "simulate", "--confidence", "42"); err == nil {
		t.Error("invalid confidence accepted")
	}
}

func TestStateValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(good, []byte(`{"counterValue":3,"balances":{"AGORA":10},"transport":{"mode":"mock","validatorUrl":"http://x"}}`), 0o644)
	os.WriteFile(bad, []byte(`{"transport":{"mode":"satellite","validatorUrl":"http://x"}}`), 0o644)

	var v validateOutput
	runJSON(t, &v, "state", "validate", good)
	if !v.Valid || v.Counter == nil || *v.Counter != 3 || v.Transport != "mock" {
		t.Errorf("validate = %+v", v)
	}

	_, err := run(t, "state", "validate", bad)
	if err == nil || !strings.Contains(err.Error(), "transport.mode must be one of") {
		t.Errorf("err = %v", err)
	}
}

func TestStateExportImport(t *testing.T) {
	var imported []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/state/export":
			w.Write([]byte(`{"counterValue":7}`))
		case r.Method == http.MethodPost && r.URL.Path == "/state/import":
			imported, _ = io.ReadAll(r.Body)
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	defer srv.Close()

	out, err := run(t, "state", "export", "--url", srv.URL+"/")
	if err != nil || out != `{"counterValue":7}` {
		t.Fatalf("export = %q, %v", out, err)
	}

	file := filepath.Join(t.TempDir(), "state.json")
	if _, err := run(t, "state", "export", "--url", srv.URL, "-o", file); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "state", "import", file, "--url", srv.URL); err != nil {
		t.Fatal(err)
	}
	if string(imported) != `{"counterValue":7}` {
		t.Errorf("imported = %q", imported)
	}

	if _, err := call(context.Background(), http.MethodGet, srv.URL+"/nope", nil); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v", err)
	}
}
