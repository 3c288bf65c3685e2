package formats

import "sort"

// The registry is a static catalogue assembled at init from the
// definitions in this package. Adding a format is a data change; the
// engine code never branches on format ids.
var registry = map[string]FormatDefinition{}

func register(f FormatDefinition) {
	if _, dup := registry[f.ID]; dup {
		panic("formats: duplicate format id " + f.ID)
	}
	registry[f.ID] = f
}

// List returns every registered format, ordered by id.
func List() []FormatDefinition {
	out := make([]FormatDefinition, 0, len(registry))
	for _, f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func Get(id string) (FormatDefinition, bool) {
	f, ok := registry[id]
	return f, ok
}

// Suggest filters the catalogue down to formats usable with the given
// team and court counts.
func Suggest(teamCount, courtCount int) []FormatDefinition {
	var out []FormatDefinition
	for _, f := range List() {
		if f.SupportsTeamCount(teamCount) && f.SupportsCourtCount(courtCount) {
			out = append(out, f)
		}
	}
	return out
}
