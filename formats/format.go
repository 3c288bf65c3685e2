package formats

type StageKind string

const (
	StagePoolPlay  StageKind = "poolPlay"
	StageCrossover StageKind = "crossover"
	StagePlayoffs  StageKind = "playoffs"
)

type BracketType string

const (
	BracketSingleElim         BracketType = "singleElim"
	BracketSingleElimWithByes BracketType = "singleElimWithByes"
	// BracketFixed is a small round-robin-into-placement bracket whose
	// every pairing is declared explicitly in the format data.
	BracketFixed BracketType = "fixed"
)

type PoolShape struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// SlotRef names the team that feeds one destination slot. SourcePool ""
// means "rank within the overall seed order" and is used by first stages;
// otherwise Rank is 1-based within the named source pool's standings.
type SlotRef struct {
	SourcePool string `json:"source_pool,omitempty"`
	Rank       int    `json:"rank"`
}

// CanonicalMapping lists, per destination pool, the ordered slot sources.
type CanonicalMapping map[string][]SlotRef

// CrossoverRule pairs the two source pools rank-to-rank: rank 1 of A
// plays rank 1 of B, and so on down the table.
type CrossoverRule struct {
	SourcePools [2]string `json:"source_pools"`
}

// FixedPairing is one declared match of a fixed bracket. Seeds are
// 1-based within the bracket's seed range.
type FixedPairing struct {
	Round int `json:"round"`
	SeedA int `json:"seed_a"`
	SeedB int `json:"seed_b"`
}

type BracketShape struct {
	Name     string      `json:"name"`
	Size     int         `json:"size"`
	SeedFrom int         `json:"seed_from"`
	SeedTo   int         `json:"seed_to"`
	Type     BracketType `json:"type"`
	// Fixed holds the full declared pairing list for BracketFixed shapes.
	Fixed []FixedPairing `json:"fixed,omitempty"`
}

type StageDefinition struct {
	Kind StageKind `json:"kind"`
	Key  string    `json:"key"`
	Name string    `json:"name"`

	// SourceStage is the stage whose standings feed this one; empty for
	// a first stage seeded from the tournament's team seeds.
	SourceStage string `json:"source_stage,omitempty"`

	Pools     []PoolShape      `json:"pools,omitempty"`
	Mapping   CanonicalMapping `json:"mapping,omitempty"`
	Crossover *CrossoverRule   `json:"crossover,omitempty"`
	Brackets  []BracketShape   `json:"brackets,omitempty"`

	// CourtBindings maps a pool name, bracket name, or (for crossover
	// stages) the stage key to a slot index into the tournament's
	// active court list. Binding is static per format; the venue layout
	// supplies the actual facility and court names.
	CourtBindings map[string]int `json:"court_bindings,omitempty"`
}

type FormatDefinition struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	SupportedTeamCounts []int             `json:"supported_team_counts"`
	MinCourts           int               `json:"min_courts"`
	MaxCourts           int               `json:"max_courts"` // 0 = unbounded
	Stages              []StageDefinition `json:"stages"`
}

func (f FormatDefinition) SupportsTeamCount(n int) bool {
	for _, c := range f.SupportedTeamCounts {
		if c == n {
			return true
		}
	}
	return false
}

func (f FormatDefinition) SupportsCourtCount(n int) bool {
	if n < f.MinCourts {
		return false
	}
	if f.MaxCourts > 0 && n > f.MaxCourts {
		return false
	}
	return true
}

func (f FormatDefinition) Stage(key string) (StageDefinition, bool) {
	for _, s := range f.Stages {
		if s.Key == key {
			return s, true
		}
	}
	return StageDefinition{}, false
}

// PlayoffStage returns the playoffs stage; every shipped format has
// exactly one.
func (f FormatDefinition) PlayoffStage() (StageDefinition, bool) {
	for _, s := range f.Stages {
		if s.Kind == StagePlayoffs {
			return s, true
		}
	}
	return StageDefinition{}, false
}

// StagesBefore lists the stage keys preceding the given key in format
// order. Used for rematch lookups and cumulative standings scopes.
func (f FormatDefinition) StagesBefore(key string) []string {
	var keys []string
	for _, s := range f.Stages {
		if s.Key == key {
			break
		}
		keys = append(keys, s.Key)
	}
	return keys
}
