// Package account contains the AccountRecord type and its pure helpers.
// This is part of the Functional Core - no I/O, only pure functions.
package account

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/harvest/internal/core/errs"
)

// isoMillis matches the timestamp layout the accounts file has always used.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Known JSON keys, in the order they are written.
const (
	keyAddress     = "publicKey"
	keySecret      = "privateKey"
	keyDeviceID    = "deviceId"
	keyUserAgent   = "userAgent"
	keyIdentityID  = "proxyId"
	keyLastCheckin = "lastCheckinDate"
)

// transientKeys are session leftovers from older tool versions; they are stale on every run.
var transientKeys = []string{"createdAt", "cookieExpiresAt", "cookieCreatedAt", "vcrcsCookie", "allCookies"}

// Record is one managed wallet account.
// Secret is owned by the record and must never reach a logger or the console.
type Record struct {
	Address     string
	Secret      string
	DeviceID    string
	UserAgent   string
	IdentityID  string
	LastCheckin *time.Time

	// extra holds fields this tool does not interpret (e.g. mnemonic); they survive rewrites.
	extra map[string]json.RawMessage
}

// String keeps the secret out of %v formatting.
func (r *Record) String() string {
	return fmt.Sprintf("account(%s)", Short(r.Address))
}

// Short truncates an address for logs and console output.
func Short(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:8] + "..."
}

// MarkCheckedIn records a check-in at now.
func (r *Record) MarkCheckedIn(now time.Time) {
	t := now
	r.LastCheckin = &t
}

// ResetIdentity clears the persisted identity and user agent.
// Returns true if anything was cleared.
func (r *Record) ResetIdentity() bool {
	changed := r.IdentityID != "" || r.UserAgent != ""
	r.IdentityID = ""
	r.UserAgent = ""
	return changed
}

// DropTransient removes stale session fields. Returns true if any were present.
func (r *Record) DropTransient() bool {
	changed := false
	for _, k := range transientKeys {
		if _, ok := r.extra[k]; ok {
			delete(r.extra, k)
			changed = true
		}
	}
	return changed
}

// Extra returns the raw value of an uninterpreted field.
func (r *Record) Extra(key string) (json.RawMessage, bool) {
	v, ok := r.extra[key]
	return v, ok
}

// SetExtra stores an uninterpreted field.
func (r *Record) SetExtra(key string, value json.RawMessage) {
	if r.extra == nil {
		r.extra = make(map[string]json.RawMessage)
	}
	r.extra[key] = value
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	if r.LastCheckin != nil {
		t := *r.LastCheckin
		c.LastCheckin = &t
	}
	if r.extra != nil {
		c.extra = make(map[string]json.RawMessage, len(r.extra))
		for k, v := range r.extra {
			c.extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

// UnmarshalJSON decodes a record, keeping unknown fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	str := func(key string) (string, error) {
		v, ok := raw[key]
		delete(raw, key)
		if !ok || string(v) == "null" {
			return "", nil
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", fmt.Errorf("field %s: %w", key, err)
		}
		return s, nil
	}

	var err error
	if r.Address, err = str(keyAddress); err != nil {
		return err
	}
	if r.Secret, err = str(keySecret); err != nil {
		return err
	}
	if r.DeviceID, err = str(keyDeviceID); err != nil {
		return err
	}
	if r.UserAgent, err = str(keyUserAgent); err != nil {
		return err
	}
	if r.IdentityID, err = str(keyIdentityID); err != nil {
		return err
	}
	last, err := str(keyLastCheckin)
	if err != nil {
		return err
	}
	r.LastCheckin = nil
	if last != "" {
		t, err := time.Parse(time.RFC3339Nano, last)
		if err != nil {
			return fmt.Errorf("field %s: %w", keyLastCheckin, err)
		}
		r.LastCheckin = &t
	}

	r.extra = nil
	if len(raw) > 0 {
		r.extra = raw
	}
	return nil
}

// MarshalJSON writes known fields first, then preserved fields in key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value any) error {
		enc, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(enc)
		return nil
	}

	if err := write(keyAddress, r.Address); err != nil {
		return nil, err
	}
	if err := write(keySecret, r.Secret); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(r.extra))
	for k := range r.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, r.extra[k]); err != nil {
			return nil, err
		}
	}

	optional := []struct {
		key   string
		value string
	}{
		{keyDeviceID, r.DeviceID},
		{keyUserAgent, r.UserAgent},
		{keyIdentityID, r.IdentityID},
	}
	for _, f := range optional {
		if f.value == "" {
			continue
		}
		if err := write(f.key, f.value); err != nil {
			return nil, err
		}
	}
	if r.LastCheckin != nil {
		if err := write(keyLastCheckin, r.LastCheckin.UTC().Format(isoMillis)); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ValidateSet checks that every record has an address and addresses are unique.
func ValidateSet(records []*Record) error {
	seen := make(map[string]int, len(records))
	for i, r := range records {
		addr := strings.TrimSpace(r.Address)
		if addr == "" {
			return errs.Configf(nil, "account #%d has no publicKey", i+1)
		}
		if prev, ok := seen[addr]; ok {
			return errs.Configf(errs.ErrDuplicateAccount, "accounts #%d and #%d share %s", prev+1, i+1, Short(addr))
		}
		seen[addr] = i
	}
	return nil
}
