package scheduling

import (
	"fmt"
	"sort"

	"github.com/jacobneff/scorebugger/formats"
)

// BracketSeed ties a team to its 1-based seed within one bracket.
type BracketSeed struct {
	Seed   int
	TeamID int
}

// BracketMatch is one planned playoff match, keyed by its stable
// position in the bracket. Keys encode bracket name, round, and seed
// pairing, e.g. "gold:R1:4v5"; byes use "silver:R1:1vBYE".
type BracketMatch struct {
	Key   string
	Round int
	SeedA int
	TeamA int
	SeedB int  // 0 for a bye
	TeamB *int // nil for a bye
	IsBye bool
}

func matchKey(bracket string, round, seedA, seedB int) string {
	return fmt.Sprintf("%s:R%d:%dv%d", bracket, round, seedA, seedB)
}

func byeKey(bracket string, round, seed int) string {
	return fmt.Sprintf("%s:R%d:%dvBYE", bracket, round, seed)
}

// OpeningRound plans every match of a bracket that is determinable from
// seeds alone. Fixed brackets expand their full declared pairing list;
// elimination brackets produce only round one, since later rounds are
// never pre-created before their inputs are known. Byes are emitted as
// immediate single-participant matches so bracket views stay uniform.
func OpeningRound(b formats.BracketShape, seeds []BracketSeed) ([]BracketMatch, error) {
	if len(seeds) != b.Size {
		return nil, fmt.Errorf("bracket %s wants %d seeds, got %d", b.Name, b.Size, len(seeds))
	}
	ordered := append([]BracketSeed(nil), seeds...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Seed < ordered[j].Seed })

	switch b.Type {
	case formats.BracketFixed:
		return fixedBracket(b, ordered)
	case formats.BracketSingleElim:
		if !isPowerOfTwo(b.Size) {
			return nil, fmt.Errorf("bracket %s: singleElim size %d is not a power of two", b.Name, b.Size)
		}
		return pairSeeds(b.Name, 1, ordered), nil
	case formats.BracketSingleElimWithByes:
		full := nextPowerOfTwo(b.Size)
		byes := full - b.Size
		matches := make([]BracketMatch, 0, byes+(b.Size-byes)/2)
		for i := 0; i < byes; i++ {
			s := ordered[i]
			matches = append(matches, BracketMatch{
				Key:   byeKey(b.Name, 1, s.Seed),
				Round: 1,
				SeedA: s.Seed,
				TeamA: s.TeamID,
				IsBye: true,
			})
		}
		matches = append(matches, pairSeeds(b.Name, 1, ordered[byes:])...)
		return matches, nil
	default:
		return nil, fmt.Errorf("unsupported bracket type %q", b.Type)
	}
}

// NextRound pairs the advancers of a completed round, best remaining
// seed against worst. The advancer count is even by construction once
// round one has resolved any byes.
func NextRound(b formats.BracketShape, round int, advancers []BracketSeed) ([]BracketMatch, error) {
	if len(advancers) < 2 {
		return nil, fmt.Errorf("bracket %s round %d: nothing left to pair", b.Name, round)
	}
	if len(advancers)%2 != 0 {
		return nil, fmt.Errorf("bracket %s round %d: odd advancer count %d", b.Name, round, len(advancers))
	}
	ordered := append([]BracketSeed(nil), advancers...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Seed < ordered[j].Seed })
	return pairSeeds(b.Name, round, ordered), nil
}

// pairSeeds pairs an ordered seed slice top against bottom: 1 vs n,
// 2 vs n-1, and so on inward.
func pairSeeds(bracket string, round int, ordered []BracketSeed) []BracketMatch {
	matches := make([]BracketMatch, 0, len(ordered)/2)
	for i := 0; i < len(ordered)/2; i++ {
		a, b := ordered[i], ordered[len(ordered)-1-i]
		teamB := b.TeamID
		matches = append(matches, BracketMatch{
			Key:   matchKey(bracket, round, a.Seed, b.Seed),
			Round: round,
			SeedA: a.Seed,
			TeamA: a.TeamID,
			SeedB: b.Seed,
			TeamB: &teamB,
		})
	}
	return matches
}

func fixedBracket(b formats.BracketShape, ordered []BracketSeed) ([]BracketMatch, error) {
	byseed := make(map[int]int, len(ordered))
	for _, s := range ordered {
		byseed[s.Seed] = s.TeamID
	}
	matches := make([]BracketMatch, 0, len(b.Fixed))
	for _, p := range b.Fixed {
		ta, okA := byseed[p.SeedA]
		tb, okB := byseed[p.SeedB]
		if !okA || !okB {
			return nil, fmt.Errorf("bracket %s: declared pairing %dv%d outside seed range", b.Name, p.SeedA, p.SeedB)
		}
		teamB := tb
		matches = append(matches, BracketMatch{
			Key:   matchKey(b.Name, p.Round, p.SeedA, p.SeedB),
			Round: p.Round,
			SeedA: p.SeedA,
			TeamA: ta,
			SeedB: p.SeedB,
			TeamB: &teamB,
		})
	}
	return matches, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
