package formats

func seed(rank int) SlotRef              { return SlotRef{Rank: rank} }
func from(pool string, rank int) SlotRef { return SlotRef{SourcePool: pool, Rank: rank} }

// rr3/rr4/rr5 are the declared schedules for fixed placement brackets:
// a full round robin among the bracket seeds, one pairing list per round,
// each round leaving the bye seed free to referee or rest.
var rr3 = []FixedPairing{
	{Round: 1, SeedA: 2, SeedB: 3},
	{Round: 2, SeedA: 1, SeedB: 3},
	{Round: 3, SeedA: 1, SeedB: 2},
}

var rr4 = []FixedPairing{
	{Round: 1, SeedA: 1, SeedB: 4},
	{Round: 1, SeedA: 2, SeedB: 3},
	{Round: 2, SeedA: 1, SeedB: 3},
	{Round: 2, SeedA: 4, SeedB: 2},
	{Round: 3, SeedA: 1, SeedB: 2},
	{Round: 3, SeedA: 3, SeedB: 4},
}

var rr5 = []FixedPairing{
	{Round: 1, SeedA: 2, SeedB: 5},
	{Round: 1, SeedA: 3, SeedB: 4},
	{Round: 2, SeedA: 1, SeedB: 5},
	{Round: 2, SeedA: 2, SeedB: 3},
	{Round: 3, SeedA: 1, SeedB: 4},
	{Round: 3, SeedA: 3, SeedB: 5},
	{Round: 4, SeedA: 1, SeedB: 3},
	{Round: 4, SeedA: 2, SeedB: 4},
	{Round: 5, SeedA: 1, SeedB: 2},
	{Round: 5, SeedA: 4, SeedB: 5},
}

func init() {
	register(volley15)
	register(volley14Crossover)
	register(volley12)
	register(volley7Crossover)
}

// volley7Crossover: the small-club format. Uneven pools, a short
// crossover, and fixed placement brackets all the way down.
var volley7Crossover = FormatDefinition{
	ID:                  "volley7-2pool-crossover",
	Name:                "7 Teams / 2 Pools with Crossover",
	SupportedTeamCounts: []int{7},
	MinCourts:           2,
	MaxCourts:           2,
	Stages: []StageDefinition{
		{
			Kind:  StagePoolPlay,
			Key:   "phase1",
			Name:  "Pool Play",
			Pools: []PoolShape{{Name: "A", Size: 4}, {Name: "B", Size: 3}},
			Mapping: CanonicalMapping{
				"A": {seed(1), seed(4), seed(5), seed(7)},
				"B": {seed(2), seed(3), seed(6)},
			},
			CourtBindings: map[string]int{"A": 0, "B": 1},
		},
		{
			Kind:          StageCrossover,
			Key:           "crossover",
			Name:          "Crossover",
			SourceStage:   "phase1",
			Crossover:     &CrossoverRule{SourcePools: [2]string{"A", "B"}},
			CourtBindings: map[string]int{"crossover": 0},
		},
		{
			Kind:        StagePlayoffs,
			Key:         "playoffs",
			Name:        "Playoffs",
			SourceStage: "crossover",
			Brackets: []BracketShape{
				{Name: "gold", Size: 4, SeedFrom: 1, SeedTo: 4, Type: BracketFixed, Fixed: rr4},
				{Name: "bronze", Size: 3, SeedFrom: 5, SeedTo: 7, Type: BracketFixed, Fixed: rr3},
			},
			CourtBindings: map[string]int{"gold": 0, "bronze": 1},
		},
	},
}

// volley15: fifteen teams, five pools of three, two pool-play phases with
// the rotating canonical mapping, then gold/silver playoffs.
var volley15 = FormatDefinition{
	ID:                  "volley15-5x3",
	Name:                "15 Teams / 5 Pools of 3",
	SupportedTeamCounts: []int{15},
	MinCourts:           5,
	Stages: []StageDefinition{
		{
			Kind: StagePoolPlay,
			Key:  "phase1",
			Name: "Pool Play I",
			Pools: []PoolShape{
				{Name: "A", Size: 3}, {Name: "B", Size: 3}, {Name: "C", Size: 3},
				{Name: "D", Size: 3}, {Name: "E", Size: 3},
			},
			// Serpentine seeding across the five pools.
			Mapping: CanonicalMapping{
				"A": {seed(1), seed(10), seed(11)},
				"B": {seed(2), seed(9), seed(12)},
				"C": {seed(3), seed(8), seed(13)},
				"D": {seed(4), seed(7), seed(14)},
				"E": {seed(5), seed(6), seed(15)},
			},
			CourtBindings: map[string]int{"A": 0, "B": 1, "C": 2, "D": 3, "E": 4},
		},
		{
			Kind:        StagePoolPlay,
			Key:         "phase2",
			Name:        "Pool Play II",
			SourceStage: "phase1",
			Pools: []PoolShape{
				{Name: "F", Size: 3}, {Name: "G", Size: 3}, {Name: "H", Size: 3},
				{Name: "I", Size: 3}, {Name: "J", Size: 3},
			},
			Mapping: CanonicalMapping{
				"F": {from("A", 1), from("B", 2), from("C", 3)},
				"G": {from("B", 1), from("C", 2), from("D", 3)},
				"H": {from("C", 1), from("D", 2), from("E", 3)},
				"I": {from("D", 1), from("E", 2), from("A", 3)},
				"J": {from("E", 1), from("A", 2), from("B", 3)},
			},
			CourtBindings: map[string]int{"F": 0, "G": 1, "H": 2, "I": 3, "J": 4},
		},
		{
			Kind: StagePlayoffs,
			Key:  "playoffs",
			Name: "Playoffs",
			Brackets: []BracketShape{
				{Name: "gold", Size: 8, SeedFrom: 1, SeedTo: 8, Type: BracketSingleElim},
				{Name: "silver", Size: 7, SeedFrom: 9, SeedTo: 15, Type: BracketSingleElimWithByes},
			},
			CourtBindings: map[string]int{"gold": 0, "silver": 1},
		},
	},
}

// volley14Crossover: two pools of seven in a single facility, a
// rank-to-rank crossover round, then a gold knockout and two fixed
// five-team placement brackets.
var volley14Crossover = FormatDefinition{
	ID:                  "volley14-2x7-crossover",
	Name:                "14 Teams / 2 Pools of 7 with Crossover",
	SupportedTeamCounts: []int{14},
	MinCourts:           2,
	MaxCourts:           4,
	Stages: []StageDefinition{
		{
			Kind:  StagePoolPlay,
			Key:   "phase1",
			Name:  "Pool Play",
			Pools: []PoolShape{{Name: "A", Size: 7}, {Name: "B", Size: 7}},
			Mapping: CanonicalMapping{
				"A": {seed(1), seed(4), seed(5), seed(8), seed(9), seed(12), seed(13)},
				"B": {seed(2), seed(3), seed(6), seed(7), seed(10), seed(11), seed(14)},
			},
			CourtBindings: map[string]int{"A": 0, "B": 1},
		},
		{
			Kind:          StageCrossover,
			Key:           "crossover",
			Name:          "Crossover",
			SourceStage:   "phase1",
			Crossover:     &CrossoverRule{SourcePools: [2]string{"A", "B"}},
			CourtBindings: map[string]int{"crossover": 0},
		},
		{
			Kind:        StagePlayoffs,
			Key:         "playoffs",
			Name:        "Playoffs",
			SourceStage: "crossover",
			Brackets: []BracketShape{
				{Name: "gold", Size: 4, SeedFrom: 1, SeedTo: 4, Type: BracketSingleElim},
				{Name: "silver", Size: 5, SeedFrom: 5, SeedTo: 9, Type: BracketFixed, Fixed: rr5},
				{Name: "bronze", Size: 5, SeedFrom: 10, SeedTo: 14, Type: BracketFixed, Fixed: rr5},
			},
			CourtBindings: map[string]int{"gold": 0, "silver": 1, "bronze": 2},
		},
	},
}

// volley12: twelve teams across four pools of three, re-pooled once, then
// an eight-team gold knockout and a four-team silver placement bracket.
var volley12 = FormatDefinition{
	ID:                  "volley12-4x3",
	Name:                "12 Teams / 4 Pools of 3",
	SupportedTeamCounts: []int{12},
	MinCourts:           4,
	Stages: []StageDefinition{
		{
			Kind: StagePoolPlay,
			Key:  "phase1",
			Name: "Pool Play I",
			Pools: []PoolShape{
				{Name: "A", Size: 3}, {Name: "B", Size: 3},
				{Name: "C", Size: 3}, {Name: "D", Size: 3},
			},
			Mapping: CanonicalMapping{
				"A": {seed(1), seed(8), seed(9)},
				"B": {seed(2), seed(7), seed(10)},
				"C": {seed(3), seed(6), seed(11)},
				"D": {seed(4), seed(5), seed(12)},
			},
			CourtBindings: map[string]int{"A": 0, "B": 1, "C": 2, "D": 3},
		},
		{
			Kind:        StagePoolPlay,
			Key:         "phase2",
			Name:        "Pool Play II",
			SourceStage: "phase1",
			Pools: []PoolShape{
				{Name: "E", Size: 3}, {Name: "F", Size: 3},
				{Name: "G", Size: 3}, {Name: "H", Size: 3},
			},
			Mapping: CanonicalMapping{
				"E": {from("A", 1), from("B", 2), from("C", 3)},
				"F": {from("B", 1), from("C", 2), from("D", 3)},
				"G": {from("C", 1), from("D", 2), from("A", 3)},
				"H": {from("D", 1), from("A", 2), from("B", 3)},
			},
			CourtBindings: map[string]int{"E": 0, "F": 1, "G": 2, "H": 3},
		},
		{
			Kind: StagePlayoffs,
			Key:  "playoffs",
			Name: "Playoffs",
			Brackets: []BracketShape{
				{Name: "gold", Size: 8, SeedFrom: 1, SeedTo: 8, Type: BracketSingleElim},
				{Name: "silver", Size: 4, SeedFrom: 9, SeedTo: 12, Type: BracketFixed, Fixed: rr4},
			},
			CourtBindings: map[string]int{"gold": 0, "silver": 1},
		},
	},
}
