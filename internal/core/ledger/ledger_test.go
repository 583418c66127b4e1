package ledger

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLedger_StakeTransitions(t *testing.T) {
	l := New()
	l.Append("addr", "labubu-00000-1")
	l.Append("addr", "labubu-00000-4")

	if !l.HasItems("addr") {
		t.Fatal("HasItems() = false, want true")
	}
	if l.IsStaked("addr") {
		t.Fatal("IsStaked() = true before staking")
	}

	if n := l.MarkStakePending("addr"); n != 2 {
		t.Errorf("MarkStakePending() = %d, want 2", n)
	}
	if l.IsStaked("addr") {
		t.Error("StakePending must not count as staked")
	}

	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	result := StakeResult{Total: 2, Succeeded: 2, At: at}
	if n := l.MarkStaked("addr", result); n != 2 {
		t.Errorf("MarkStaked() = %d, want 2", n)
	}
	for _, it := range l.Items("addr") {
		if it.State != Staked {
			t.Errorf("item %s state = %s, want staked", it.TemplateID, it.State)
		}
		if it.Result == nil || it.Result.Total != 2 || !it.StakedAt.Equal(at) {
			t.Errorf("item %s missing stake result: %+v", it.TemplateID, it)
		}
	}

	if n := l.MarkStaked("addr", StakeResult{Total: 9, At: at.Add(time.Hour)}); n != 0 {
		t.Errorf("second MarkStaked() = %d, want 0", n)
	}
	if got := l.Items("addr")[0].Result.Total; got != 2 {
		t.Errorf("re-stake overwrote result: total = %d", got)
	}
}

func TestLedger_MarkStakedFromUnlocked(t *testing.T) {
	l := New()
	l.Append("addr", "x")
	if n := l.MarkStaked("addr", StakeResult{At: time.Now()}); n != 1 {
		t.Errorf("MarkStaked() = %d, want 1", n)
	}
}

func TestLedger_UnknownAddress(t *testing.T) {
	l := New()
	if l.HasItems("nope") || l.IsStaked("nope") {
		t.Error("unknown address should have no items")
	}
	if n := l.MarkStakePending("nope"); n != 0 {
		t.Errorf("MarkStakePending() = %d, want 0", n)
	}
	if len(l.Addresses()) != 0 {
		t.Error("mark on unknown address must not create an entry")
	}
}

func TestLedger_CloneIsDeep(t *testing.T) {
	l := New()
	l.Append("a", "x")
	c := l.Clone()
	c.Append("a", "y")
	c.MarkStaked("a", StakeResult{At: time.Now()})

	if len(l.Items("a")) != 1 || l.Items("a")[0].State != Unlocked {
		t.Errorf("clone shares state with original: %+v", l.Items("a"))
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{Unlocked, StakePending, true},
		{Unlocked, Staked, true},
		{StakePending, Staked, true},
		{Staked, Staked, true},
		{Staked, Unlocked, false},
		{StakePending, Unlocked, false},
		{Staked, StakePending, false},
		{State("bogus"), Staked, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestLedger_DecodeLegacyShapes(t *testing.T) {
	in := `{
		"zzz": ["labubu-00000-1", {"templateId": "labubu-00000-2", "staked": true, "stakedAt": "2026-10-01T00:00:00.000Z",
			"stakeResult": {"total_nfts": 2, "success_count": 2, "failed_count": 0, "timestamp": "2026-10-01T00:00:00.000Z"}}],
		"aaa": [{"templateId": "labubu-00000-5"}],
		"mmm": []
	}`

	var l Ledger
	if err := json.Unmarshal([]byte(in), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	addrs := l.Addresses()
	if strings.Join(addrs, ",") != "zzz,aaa,mmm" {
		t.Errorf("Addresses() = %v, want file order", addrs)
	}

	zzz := l.Items("zzz")
	if len(zzz) != 2 {
		t.Fatalf("zzz items = %d, want 2", len(zzz))
	}
	if zzz[0].State != Unlocked || zzz[0].TemplateID != "labubu-00000-1" {
		t.Errorf("bare string decoded as %+v", zzz[0])
	}
	if zzz[1].State != Staked || zzz[1].Result == nil || zzz[1].Result.Succeeded != 2 {
		t.Errorf("legacy staked object decoded as %+v", zzz[1])
	}
	if !l.IsStaked("zzz") {
		t.Error("zzz should be staked")
	}
	if l.Items("aaa")[0].State != Unlocked {
		t.Error("object without staked flag should be Unlocked")
	}
	if l.HasItems("mmm") {
		t.Error("empty entry should have no items")
	}
}

func TestLedger_RoundTrip(t *testing.T) {
	l := New()
	l.Append("b", "labubu-00000-1")
	l.Append("a", "labubu-00000-3")
	l.MarkStakePending("a")
	l.Append("c", "labubu-00000-4")
	l.MarkStaked("c", StakeResult{Total: 1, Succeeded: 1, At: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)})

	out, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.HasPrefix(string(out), `{"b":`) {
		t.Errorf("address order not kept: %s", out)
	}
	if !strings.Contains(string(out), `"staked":true`) {
		t.Errorf("staked items must carry the legacy flag: %s", out)
	}

	var back Ledger
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Items("a")[0].State != StakePending {
		t.Errorf("StakePending lost in round trip: %+v", back.Items("a"))
	}
	if got := back.Items("c")[0]; got.State != Staked || got.Result.Total != 1 {
		t.Errorf("Staked item lost in round trip: %+v", got)
	}
}

func TestLedger_DecodeRejectsUnknownState(t *testing.T) {
	var l Ledger
	err := json.Unmarshal([]byte(`{"a":[{"templateId":"x","state":"burned"}]}`), &l)
	if err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestSummarize(t *testing.T) {
	l := New()
	l.Append("a", "labubu-00000-1")
	l.Append("a", "labubu-00000-5")
	l.Append("b", "labubu-00000-4")
	l.Append("b", "mystery")
	l.MarkStaked("b", StakeResult{At: time.Now()})

	s := Summarize(l)
	if s.Accounts != 2 || s.AccountsStaked != 1 || s.Items != 4 {
		t.Errorf("Summarize() = %+v", s)
	}
	if s.ItemsUnlocked != 2 || s.ItemsStaked != 2 {
		t.Errorf("state counts = %+v", s)
	}
	if s.ByTier[Tier10x] != 1 || s.ByTier[Tier100x] != 1 || s.ByTier[Tier1000x] != 1 || s.ByTier[TierUnknown] != 1 {
		t.Errorf("ByTier = %v", s.ByTier)
	}
}
