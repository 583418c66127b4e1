package cli

import (
	"bytes"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := RootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := RootCmd()
	want := []string{"run", "stats", "history", "accounts", "ua", "version"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q", name)
		}
	}

	for _, flag := range []string{"config", "db", "log-level", "log-json"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected persistent flag --%s", flag)
		}
	}
}

func TestRunCmd_Validation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing family", args: []string{"run"}, wantErr: "accepts 1 arg"},
		{name: "unknown family", args: []string{"run", "harvest"}, wantErr: "unknown operation"},
		{name: "extra args", args: []string{"run", "checkin", "unlock"}, wantErr: "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunCmd_Flags(t *testing.T) {
	cmd := RunCmd()
	for _, flag := range []string{"concurrency", "dry-run", "metrics-file"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected flag --%s", flag)
		}
	}
	if len(cmd.ValidArgs) != 4 {
		t.Errorf("expected 4 valid families, got %v", cmd.ValidArgs)
	}
}

func TestAccountsResetCmd_RejectsAddressesWithAll(t *testing.T) {
	_, err := execute(t, "accounts", "reset", "--all", "Wallet01")
	if err == nil || !strings.Contains(err.Error(), "not both") {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestHistoryShowCmd_RequiresID(t *testing.T) {
	if _, err := execute(t, "history", "show"); err == nil {
		t.Fatal("expected error without run id")
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "harvest ") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestHistoryPruneCmd_RejectsZeroDays(t *testing.T) {
	_, err := execute(t, "history", "prune", "--days", "0")
	if err == nil || !strings.Contains(err.Error(), "--days") {
		t.Fatalf("expected days error, got %v", err)
	}
}
