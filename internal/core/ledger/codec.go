package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type wireResult struct {
	Total     int    `json:"total_nfts"`
	Succeeded int    `json:"success_count"`
	Failed    int    `json:"failed_count"`
	Timestamp string `json:"timestamp"`
}

type wireItem struct {
	TemplateID  string      `json:"templateId"`
	State       State       `json:"state,omitempty"`
	Staked      bool        `json:"staked,omitempty"`
	StakedAt    string      `json:"stakedAt,omitempty"`
	StakeResult *wireResult `json:"stakeResult,omitempty"`
}

// MarshalJSON writes items as objects. Staked items also carry the legacy
// staked flag so older readers still see them as staked.
func (it Item) MarshalJSON() ([]byte, error) {
	w := wireItem{TemplateID: it.TemplateID, State: it.State}
	if it.State == Staked {
		w.Staked = true
		if it.StakedAt != nil {
			w.StakedAt = it.StakedAt.UTC().Format(isoMillis)
		}
		if it.Result != nil {
			w.StakeResult = &wireResult{
				Total:     it.Result.Total,
				Succeeded: it.Result.Succeeded,
				Failed:    it.Result.Failed,
				Timestamp: it.Result.At.UTC().Format(isoMillis),
			}
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts a bare template id string, a legacy object with a
// staked flag, or the current object form with an explicit state.
func (it *Item) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*it = Item{TemplateID: id, State: Unlocked}
		return nil
	}

	var w wireItem
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Item{TemplateID: w.TemplateID, State: w.State}
	switch {
	case out.State == "" && w.Staked:
		out.State = Staked
	case out.State == "":
		out.State = Unlocked
	case !out.State.Valid():
		return fmt.Errorf("item %s: unknown state %q", w.TemplateID, w.State)
	}

	if out.State == Staked {
		if w.StakedAt != "" {
			t, err := time.Parse(time.RFC3339Nano, w.StakedAt)
			if err != nil {
				return fmt.Errorf("item %s: stakedAt: %w", w.TemplateID, err)
			}
			out.StakedAt = &t
		}
		if w.StakeResult != nil {
			r := StakeResult{
				Total:     w.StakeResult.Total,
				Succeeded: w.StakeResult.Succeeded,
				Failed:    w.StakeResult.Failed,
			}
			if w.StakeResult.Timestamp != "" {
				t, err := time.Parse(time.RFC3339Nano, w.StakeResult.Timestamp)
				if err != nil {
					return fmt.Errorf("item %s: stakeResult.timestamp: %w", w.TemplateID, err)
				}
				r.At = t
			}
			out.Result = &r
		}
	}
	*it = out
	return nil
}

// MarshalJSON writes the ledger as an object keyed by address, in first-seen order.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, addr := range l.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(addr)
		if err != nil {
			return nil, err
		}
		items := l.entries[addr]
		if items == nil {
			items = []Item{}
		}
		v, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an address-keyed object, keeping the file's key order.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("progress ledger: expected object, got %v", tok)
	}

	fresh := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		addr, ok := tok.(string)
		if !ok {
			return fmt.Errorf("progress ledger: expected address key, got %v", tok)
		}
		var items []Item
		if err := dec.Decode(&items); err != nil {
			return fmt.Errorf("progress ledger: %s: %w", addr, err)
		}
		fresh.touch(addr)
		fresh.entries[addr] = append(fresh.entries[addr], items...)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = *fresh
	return nil
}
