package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mge-engine/reflection/describe"
)

func newTestEnv(t *testing.T, overrides ...string) (*env, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	e, err := newEnv(context.Background(), &CLI{Set: overrides}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("newEnv failed: %v", err)
	}
	return e, &stdout, &stderr
}

func TestNewEnvInvalidOverride(t *testing.T) {
	var out bytes.Buffer
	_, err := newEnv(context.Background(), &CLI{Set: []string{"log.level=loud"}}, &out, &out)
	if err == nil {
		t.Fatal("expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("expected oneof validation error, got %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	e, stdout, _ := newTestEnv(t)
	if err := (&VersionCmd{}).Run(e); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got, want := stdout.String(), Version()+"\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDescribeCmdJSON(t *testing.T) {
	e, stdout, _ := newTestEnv(t)
	if err := (&DescribeCmd{}).Run(e); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	m, err := describe.Read(stdout)
	if err != nil {
		t.Fatalf("expected JSON output for a non-terminal writer: %v", err)
	}
	for _, name := range []string{"mge::fvec3", "mge::configuration", "mge::log_severity"} {
		if m.FindType(name) == nil {
			t.Errorf("expected %s in manifest", name)
		}
	}
}

func TestDescribeCmdModule(t *testing.T) {
	e, stdout, _ := newTestEnv(t)
	if err := (&DescribeCmd{Module: "mge::math"}).Run(e); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	m, err := describe.Read(stdout)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	if m.Root.FullName != "mge::math" {
		t.Errorf("expected root mge::math, got %s", m.Root.FullName)
	}

	if err := (&DescribeCmd{Module: "mge::nope"}).Run(e); err == nil {
		t.Error("expected error for unknown module")
	}
}

func TestPrintManifest(t *testing.T) {
	e, _, _ := newTestEnv(t)
	var out bytes.Buffer
	if err := printManifest(&out, describe.Build(e.registry)); err != nil {
		t.Fatalf("printManifest failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"module (root)\n",
		"  module mge\n",
		"    module mge::math\n",
		"func dot(",
		"var configuration ",
		"ERROR_SEVERITY = 1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected outline to contain %q, got:\n%s", want, got)
		}
	}
}

func TestStubsCmd(t *testing.T) {
	e, stdout, _ := newTestEnv(t)
	dir := t.TempDir()
	if err := (&StubsCmd{Out: dir, Overwrite: true}).Run(e); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "mge.lua"))
	if err != nil {
		t.Fatalf("expected mge.lua to be written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("---@meta")) {
		t.Errorf("expected ---@meta header, got %q", data[:min(len(data), 20)])
	}
	if !strings.Contains(stdout.String(), "mge.lua") {
		t.Errorf("expected mge.lua in listing, got %q", stdout.String())
	}

	if err := (&StubsCmd{Out: dir, Overwrite: false}).Run(e); err == nil {
		t.Error("expected error when overwrite is disabled and files exist")
	}
}

func TestRunCmd(t *testing.T) {
	e, _, stderr := newTestEnv(t)
	script := filepath.Join(t.TempDir(), "hello.lua")
	src := `
local v = mge.fvec3.new(0, 3, 4)
if v:length() ~= 5 then error("bad length") end
mge.log(mge.log_severity.WARNING_SEVERITY, "hello from script")
`
	if err := os.WriteFile(script, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := (&RunCmd{File: script}).Run(e); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(stderr.String(), "hello from script") {
		t.Errorf("expected script log line, got %q", stderr.String())
	}

	bad := filepath.Join(t.TempDir(), "bad.lua")
	if err := os.WriteFile(bad, []byte(`error("boom")`), 0o644); err != nil {
		t.Fatal(err)
	}
	err := (&RunCmd{File: bad}).Run(e)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected boom error, got %v", err)
	}
}

func TestServe(t *testing.T) {
	e, _, _ := newTestEnv(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, e, ln) }()

	url := "http://" + ln.Addr().String() + "/Registry/Type?name=mge::fvec3"
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d: %s", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected default CORS origin *, got %q", got)
	}
	if !strings.Contains(string(body), `"fvec3"`) {
		t.Errorf("expected fvec3 descriptor, got %s", body)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}
