package account

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/harvest/internal/core/errs"
)

func TestRecord_RoundTripPreservesUnknownFields(t *testing.T) {
	in := `{"mnemonic":"word word","privateKey":"SECRET","publicKey":"AbCdEfGhIjKl","userAgent":"UA/1","deviceId":"abc","lastCheckinDate":"2026-10-14T08:30:00.000Z"}`

	var r Record
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Address != "AbCdEfGhIjKl" || r.Secret != "SECRET" || r.UserAgent != "UA/1" || r.DeviceID != "abc" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if r.LastCheckin == nil || !r.LastCheckin.Equal(time.Date(2026, 10, 14, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("LastCheckin = %v", r.LastCheckin)
	}

	out, err := json.Marshal(&r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"mnemonic":"word word"`) {
		t.Errorf("mnemonic not preserved: %s", out)
	}
	if !strings.HasPrefix(string(out), `{"publicKey":"AbCdEfGhIjKl","privateKey":"SECRET"`) {
		t.Errorf("known fields not written first: %s", out)
	}
	if !strings.Contains(string(out), `"lastCheckinDate":"2026-10-14T08:30:00.000Z"`) {
		t.Errorf("timestamp layout changed: %s", out)
	}
}

func TestRecord_OmitsEmptyOptionalFields(t *testing.T) {
	r := &Record{Address: "addr", Secret: "s"}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"publicKey":"addr","privateKey":"s"}` {
		t.Errorf("got %s", out)
	}
}

func TestRecord_StringHidesSecret(t *testing.T) {
	r := &Record{Address: "AbCdEfGhIjKlMnOp", Secret: "super-secret"}
	if s := r.String(); strings.Contains(s, "super-secret") || s != "account(AbCdEfGh...)" {
		t.Errorf("String() = %q", s)
	}
}

func TestRecord_DropTransient(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`{"publicKey":"a","privateKey":"b","vcrcsCookie":"x","allCookies":"y","mnemonic":"m"}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !r.DropTransient() {
		t.Fatal("expected transient fields to be dropped")
	}
	if r.DropTransient() {
		t.Error("second DropTransient should be a no-op")
	}
	if _, ok := r.Extra("mnemonic"); !ok {
		t.Error("mnemonic should be kept")
	}
	if _, ok := r.Extra("vcrcsCookie"); ok {
		t.Error("vcrcsCookie should be gone")
	}
}

func TestRecord_ResetIdentity(t *testing.T) {
	r := &Record{Address: "a", IdentityID: "px-1", UserAgent: "UA"}
	if !r.ResetIdentity() {
		t.Fatal("expected change")
	}
	if r.IdentityID != "" || r.UserAgent != "" {
		t.Errorf("identity not cleared: %+v", r)
	}
	if r.ResetIdentity() {
		t.Error("second reset should report no change")
	}
}

func TestRecord_CloneIsDeep(t *testing.T) {
	now := time.Now()
	r := &Record{Address: "a", LastCheckin: &now}
	r.SetExtra("mnemonic", json.RawMessage(`"m"`))

	c := r.Clone()
	later := now.Add(time.Hour)
	c.LastCheckin = &later
	c.SetExtra("mnemonic", json.RawMessage(`"other"`))

	if !r.LastCheckin.Equal(now) {
		t.Error("clone shares LastCheckin")
	}
	if v, _ := r.Extra("mnemonic"); string(v) != `"m"` {
		t.Error("clone shares extra map")
	}
}

func TestValidateSet(t *testing.T) {
	tests := []struct {
		name    string
		records []*Record
		wantErr error
	}{
		{
			name:    "unique addresses",
			records: []*Record{{Address: "a"}, {Address: "b"}},
		},
		{
			name:    "duplicate address",
			records: []*Record{{Address: "a"}, {Address: "a"}},
			wantErr: errs.ErrDuplicateAccount,
		},
		{
			name:    "missing address",
			records: []*Record{{Address: " "}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSet(tt.records)
			switch {
			case tt.name == "missing address":
				if !errs.IsConfig(err) {
					t.Errorf("expected ConfigError, got %v", err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			default:
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestShort(t *testing.T) {
	if got := Short("1234567890"); got != "12345678..." {
		t.Errorf("Short() = %q", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short() = %q", got)
	}
}
