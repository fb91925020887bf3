package scoring

import (
	"fmt"
	"math"
	"sort"

	"lease-risk-workers/internal/models"
)

// TierOutcomes holds one outcome per concrete tier column.
type TierOutcomes map[models.Tier]models.DeltaOutcome

func columns(excellent, good, fair, poor models.DeltaOutcome) TierOutcomes {
	return TierOutcomes{
		models.TierExcellent: excellent,
		models.TierGood:      good,
		models.TierFair:      fair,
		models.TierPoor:      poor,
	}
}

// uniform applies the same numeric delta to all four columns.
func uniform(delta int) TierOutcomes {
	d := models.Delta(delta)
	return columns(d, d, d, d)
}

type PostcodeEntry struct {
	Prefix string
	Delta  int
	Region string
}

type NACEEntry struct {
	Codes    []string
	Sector   string
	Outcomes TierOutcomes
}

// AgeBracket covers company ages in [MinMonths, MaxMonths).
type AgeBracket struct {
	MinMonths int
	MaxMonths int
	Outcomes  TierOutcomes
}

type Tables struct {
	Postcodes []PostcodeEntry
	NACE      []NACEEntry
	Age       []AgeBracket
}

// Validate checks the structural guarantees the calculator relies on:
// unique numeric postcode prefixes, four tier columns per row, and age
// brackets that start at zero and are contiguous.
func (t Tables) Validate() error {
	seen := make(map[string]struct{}, len(t.Postcodes))
	for _, p := range t.Postcodes {
		if p.Prefix == "" || !isDigits(p.Prefix) {
			return fmt.Errorf("postcode prefix %q must be numeric", p.Prefix)
		}
		if _, dup := seen[p.Prefix]; dup {
			return fmt.Errorf("duplicate postcode prefix %q", p.Prefix)
		}
		seen[p.Prefix] = struct{}{}
	}

	for _, e := range t.NACE {
		if len(e.Codes) == 0 {
			return fmt.Errorf("industry entry %q has no codes", e.Sector)
		}
		if err := checkColumns(e.Outcomes); err != nil {
			return fmt.Errorf("industry entry %q: %w", e.Sector, err)
		}
	}

	if len(t.Age) == 0 {
		return fmt.Errorf("age table is empty")
	}
	brackets := make([]AgeBracket, len(t.Age))
	copy(brackets, t.Age)
	sort.Slice(brackets, func(i, j int) bool { return brackets[i].MinMonths < brackets[j].MinMonths })
	if brackets[0].MinMonths != 0 {
		return fmt.Errorf("age table must start at 0 months, starts at %d", brackets[0].MinMonths)
	}
	for i, b := range brackets {
		if b.MaxMonths <= b.MinMonths {
			return fmt.Errorf("age bracket [%d,%d) is empty", b.MinMonths, b.MaxMonths)
		}
		if i > 0 && brackets[i-1].MaxMonths != b.MinMonths {
			return fmt.Errorf("age brackets not contiguous at %d months", b.MinMonths)
		}
		if err := checkColumns(b.Outcomes); err != nil {
			return fmt.Errorf("age bracket [%d,%d): %w", b.MinMonths, b.MaxMonths, err)
		}
	}
	return nil
}

func checkColumns(o TierOutcomes) error {
	for _, tier := range models.ConcreteTiers {
		if _, ok := o[tier]; !ok {
			return fmt.Errorf("missing %s column", tier)
		}
	}
	return nil
}

var (
	reject = models.Reject()
	manual = models.Manual()
	d      = models.Delta
)

// DefaultTables returns the production adjustment tables.
func DefaultTables() Tables {
	return Tables{
		Postcodes: []PostcodeEntry{
			{Prefix: "10", Delta: -20, Region: "Brussels city"},
			{Prefix: "1070", Delta: -30, Region: "Anderlecht"},
			{Prefix: "1080", Delta: -30, Region: "Molenbeek-Saint-Jean"},
			{Prefix: "1030", Delta: -25, Region: "Schaerbeek"},
			{Prefix: "1210", Delta: -25, Region: "Saint-Josse-ten-Noode"},
			{Prefix: "11", Delta: -10, Region: "Brussels south-east"},
			{Prefix: "1180", Delta: 5, Region: "Uccle"},
			{Prefix: "1640", Delta: 5, Region: "Rhode-Saint-Genese"},
			{Prefix: "12", Delta: -10, Region: "Brussels north-east"},
			{Prefix: "20", Delta: -10, Region: "Antwerp city"},
			{Prefix: "40", Delta: -10, Region: "Liege"},
			{Prefix: "60", Delta: -15, Region: "Charleroi"},
			{Prefix: "70", Delta: -10, Region: "Mons"},
			{Prefix: "8300", Delta: 5, Region: "Knokke-Heist"},
			{Prefix: "9000", Delta: -5, Region: "Ghent"},
		},
		NACE: []NACEEntry{
			{Codes: []string{"92"}, Sector: "gambling and betting", Outcomes: columns(reject, reject, reject, reject)},
			{Codes: []string{"64.19", "64.92", "66.12"}, Sector: "financial intermediation", Outcomes: columns(d(-10), d(-10), manual, reject)},
			{Codes: []string{"49.32"}, Sector: "taxi operation", Outcomes: columns(d(-10), d(-15), manual, reject)},
			{Codes: []string{"77.11", "77.12"}, Sector: "vehicle rental", Outcomes: columns(manual, manual, manual, reject)},
			{Codes: []string{"56"}, Sector: "food and beverage service", Outcomes: columns(d(-15), d(-15), d(-20), manual)},
			{Codes: []string{"41", "43"}, Sector: "construction", Outcomes: columns(d(-10), d(-10), d(-15), manual)},
			{Codes: []string{"45.11", "45.19"}, Sector: "motor vehicle trade", Outcomes: columns(d(-5), d(-5), d(-10), d(-10))},
			{Codes: []string{"93.29"}, Sector: "nightlife and amusement", Outcomes: columns(manual, manual, reject, reject)},
			{Codes: []string{"68"}, Sector: "real estate", Outcomes: uniform(-5)},
			{Codes: []string{"62", "63"}, Sector: "information technology", Outcomes: uniform(5)},
			{Codes: []string{"86"}, Sector: "human health", Outcomes: uniform(5)},
			{Codes: []string{"69"}, Sector: "legal and accounting", Outcomes: uniform(5)},
		},
		Age: []AgeBracket{
			{MinMonths: 0, MaxMonths: 6, Outcomes: columns(reject, reject, reject, manual)},
			{MinMonths: 6, MaxMonths: 12, Outcomes: columns(manual, d(-20), d(-15), d(-10))},
			{MinMonths: 12, MaxMonths: 24, Outcomes: columns(d(-15), d(-10), d(-10), d(-5))},
			{MinMonths: 24, MaxMonths: 36, Outcomes: columns(d(-10), d(-5), d(-5), d(0))},
			{MinMonths: 36, MaxMonths: 60, Outcomes: columns(d(-5), d(0), d(0), d(0))},
			{MinMonths: 60, MaxMonths: 120, Outcomes: uniform(0)},
			{MinMonths: 120, MaxMonths: math.MaxInt32, Outcomes: uniform(5)},
		},
	}
}
