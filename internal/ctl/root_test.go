package ctl

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aquariumd/pkg/types"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"happy", 0, false},
		{"SAD", 1, false},
		{"Angry", 2, false},
		{"0", 0, false},
		{"2", 2, false},
		{"3", 0, true},
		{"-1", 0, true},
		{"grumpy", 0, true},
	}
	for _, tc := range cases {
		got, err := parseCategory(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseCategory(%q) err = %v", tc.in, err)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("parseCategory(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func runCmd(t *testing.T, srvURL string, args ...string) (string, error) {
	t.Helper()
	root := BuildRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--addr", srvURL}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(types.StatusResponse{State: "ok"})
	}))
	defer srv.Close()

	out, err := runCmd(t, srv.URL, "status")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"state": "ok"`) {
		t.Fatalf("output = %s", out)
	}
}

func TestSetCommandSendsParam(t *testing.T) {
	var got types.UpdateParamRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/params" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(types.Snapshot{})
	}))
	defer srv.Close()

	if _, err := runCmd(t, srv.URL, "set", "ph", "7.4"); err != nil {
		t.Fatal(err)
	}
	if got.Kind != "ph" || got.Value != 7.4 {
		t.Fatalf("request = %+v", got)
	}

	if _, err := runCmd(t, srv.URL, "set", "ph", "high"); err == nil {
		t.Fatal("non-numeric value must fail before any request")
	}
}

func TestCommandSurfacesDaemonError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(types.ErrorResponse{Error: "unknown parameter kind: salinity", Code: 400})
	}))
	defer srv.Close()

	_, err := runCmd(t, srv.URL, "set", "salinity", "1")
	if err == nil || !strings.Contains(err.Error(), "unknown parameter kind") {
		t.Fatalf("err = %v", err)
	}
}

func TestAdviceCommandPrintsTip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.AdviceResponse{Advice: "Do a partial water change."})
	}))
	defer srv.Close()

	out, err := runCmd(t, srv.URL, "advice")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "Do a partial water change." {
		t.Fatalf("output = %q", out)
	}
}

func TestHistoryCommandRendersCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("kind"); got != "clean" {
			t.Errorf("kind = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"kind": "clean",
			"days": []types.DayCount{{Day: "2026-08-25", Count: 0}, {Day: "2026-08-26", Count: 1}},
		})
	}))
	defer srv.Close()

	out, err := runCmd(t, srv.URL, "history", "--kind", "clean", "--days", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2026-08-26  1") {
		t.Fatalf("output = %q", out)
	}
}
