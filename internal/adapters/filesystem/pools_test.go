package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/harvest/internal/core/errs"
	"github.com/example/harvest/internal/core/identity"
)

func TestPoolFiles_Proxies(t *testing.T) {
	dir := t.TempDir()
	proxyPath := filepath.Join(dir, "proxy.txt")
	content := "# residential\n10.0.0.1:8080:user:pass\n\n  http://u:p@10.0.0.2:3128  \r\n#10.0.0.3:80\n10.0.0.4:1080\n"
	if err := os.WriteFile(proxyPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	pools := NewPoolFiles(proxyPath, filepath.Join(dir, "ua.txt"))
	got, err := pools.Proxies(context.Background())
	if err != nil {
		t.Fatalf("Proxies failed: %v", err)
	}

	want := []string{"10.0.0.1:8080:user:pass", "http://u:p@10.0.0.2:3128", "10.0.0.4:1080"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPoolFiles_ProxiesMissingIsConfigError(t *testing.T) {
	pools := NewPoolFiles(filepath.Join(t.TempDir(), "proxy.txt"), "")

	_, err := pools.Proxies(context.Background())
	if !errs.IsConfig(err) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}

func TestPoolFiles_UserAgentsFromFile(t *testing.T) {
	dir := t.TempDir()
	uaPath := filepath.Join(dir, "ua.txt")
	if err := os.WriteFile(uaPath, []byte("UA/1\nUA/2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, generated, err := NewPoolFiles("", uaPath).UserAgents(context.Background())
	if err != nil {
		t.Fatalf("UserAgents failed: %v", err)
	}
	if generated {
		t.Error("expected pool read from file, got generated")
	}
	if len(got) != 2 || got[0] != "UA/1" {
		t.Errorf("unexpected agents: %v", got)
	}
}

func TestPoolFiles_UserAgentsGeneratedWhenEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{"missing", nil},
		{"blank", ptr("\n  \n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uaPath := filepath.Join(t.TempDir(), "ua.txt")
			if tt.content != nil {
				if err := os.WriteFile(uaPath, []byte(*tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			pools := NewPoolFiles("", uaPath)
			pools.seed = func() uint64 { return 7 }

			got, generated, err := pools.UserAgents(context.Background())
			if err != nil {
				t.Fatalf("UserAgents failed: %v", err)
			}
			if !generated {
				t.Error("expected generated pool")
			}
			if len(got) != DefaultUserAgentCount {
				t.Fatalf("expected %d agents, got %d", DefaultUserAgentCount, len(got))
			}
			if got[0] != identity.GenerateUserAgents(1, 7)[0] {
				t.Errorf("agents not generated from seed: %q", got[0])
			}

			// Generating leaves the file as it was.
			data, err := os.ReadFile(uaPath)
			switch {
			case tt.content == nil && !os.IsNotExist(err):
				t.Errorf("expected no user agent file, stat error = %v", err)
			case tt.content != nil && string(data) != *tt.content:
				t.Errorf("user agent file rewritten: %q", data)
			}
		})
	}
}

func TestPoolFiles_OverlongLineIsError(t *testing.T) {
	dir := t.TempDir()
	// bufio.Scanner rejects tokens over 64 KiB.
	content := "10.0.0.1:8080\n" + strings.Repeat("x", 70*1024) + "\n"
	proxyPath := filepath.Join(dir, "proxy.txt")
	uaPath := filepath.Join(dir, "ua.txt")
	for _, path := range []string{proxyPath, uaPath} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	pools := NewPoolFiles(proxyPath, uaPath)

	if got, err := pools.Proxies(context.Background()); err == nil {
		t.Errorf("expected error for overlong proxy line, got %d entries", len(got))
	}
	if got, _, err := pools.UserAgents(context.Background()); err == nil {
		t.Errorf("expected error for overlong user agent line, got %d entries", len(got))
	}
}

func TestPoolFiles_WriteUserAgents(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "custom.txt")
	pools := NewPoolFiles("", filepath.Join(dir, "ua.txt"))

	if err := pools.WriteUserAgents(context.Background(), out, []string{"A", "B"}); err != nil {
		t.Fatalf("WriteUserAgents failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "A\nB\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func ptr(s string) *string { return &s }
