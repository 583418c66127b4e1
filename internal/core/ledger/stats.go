package ledger

// Tier is the multiplier class of an item template.
type Tier string

const (
	Tier10x     Tier = "10x"
	Tier100x    Tier = "100x"
	Tier1000x   Tier = "1000x"
	TierUnknown Tier = "unknown"
)

// Template describes a known item template.
type Template struct {
	Name string
	Tier Tier
}

var templates = map[string]Template{
	"labubu-00000-1": {Name: "Blooming Spirit", Tier: Tier10x},
	"labubu-00000-2": {Name: "Wise Spirit", Tier: Tier10x},
	"labubu-00000-3": {Name: "Guardian Spirit", Tier: Tier10x},
	"labubu-00000-4": {Name: "Midnight Spirit", Tier: Tier100x},
	"labubu-00000-5": {Name: "Starlight Angel", Tier: Tier1000x},
}

// Lookup returns the template for id, or an Unknown template.
func Lookup(templateID string) Template {
	if t, ok := templates[templateID]; ok {
		return t
	}
	return Template{Name: "Unknown", Tier: TierUnknown}
}

// Stats summarizes a ledger.
type Stats struct {
	Accounts       int
	AccountsStaked int
	Items          int
	ItemsUnlocked  int
	ItemsPending   int
	ItemsStaked    int
	ByTier         map[Tier]int
}

// Summarize computes stats over every address in the ledger.
func Summarize(l *Ledger) Stats {
	s := Stats{ByTier: map[Tier]int{}}
	for _, addr := range l.order {
		items := l.entries[addr]
		if len(items) == 0 {
			continue
		}
		s.Accounts++
		if l.IsStaked(addr) {
			s.AccountsStaked++
		}
		for _, it := range items {
			s.Items++
			s.ByTier[Lookup(it.TemplateID).Tier]++
			switch it.State {
			case Unlocked:
				s.ItemsUnlocked++
			case StakePending:
				s.ItemsPending++
			case Staked:
				s.ItemsStaked++
			}
		}
	}
	return s
}
