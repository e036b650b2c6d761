package features

import (
	"fmt"
	"sort"

	"matchform/pipeline/internal/models"
)

// TeamCodes is the team name to code table shared by training and
// inference. Codes are never reassigned; new names are appended.
type TeamCodes struct {
	byName map[string]int
	next   int
}

// NewTeamCodes builds a table from persisted entries
func NewTeamCodes(entries []models.TeamCode) (*TeamCodes, error) {
	tc := &TeamCodes{byName: make(map[string]int, len(entries))}
	seen := make(map[int]string, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("team code %d has an empty name", e.Code)
		}
		if e.Code < 0 {
			return nil, fmt.Errorf("team %q has negative code %d", e.Name, e.Code)
		}
		if prev, ok := tc.byName[e.Name]; ok && prev != e.Code {
			return nil, fmt.Errorf("team %q mapped to both %d and %d", e.Name, prev, e.Code)
		}
		if other, ok := seen[e.Code]; ok && other != e.Name {
			return nil, fmt.Errorf("code %d assigned to both %q and %q", e.Code, other, e.Name)
		}
		tc.byName[e.Name] = e.Code
		seen[e.Code] = e.Name
		if e.Code >= tc.next {
			tc.next = e.Code + 1
		}
	}
	return tc, nil
}

// Lookup returns the code for name
func (tc *TeamCodes) Lookup(name string) (int, bool) {
	if tc == nil {
		return 0, false
	}
	code, ok := tc.byName[name]
	return code, ok
}

// Len returns the number of known teams
func (tc *TeamCodes) Len() int {
	if tc == nil {
		return 0
	}
	return len(tc.byName)
}

// Extend assigns codes to the unknown names in lexicographic order and
// returns the newly added entries
func (tc *TeamCodes) Extend(names []string) []models.TeamCode {
	var fresh []string
	pending := make(map[string]bool)
	for _, n := range names {
		if _, ok := tc.byName[n]; ok || pending[n] {
			continue
		}
		pending[n] = true
		fresh = append(fresh, n)
	}
	sort.Strings(fresh)

	added := make([]models.TeamCode, 0, len(fresh))
	for _, n := range fresh {
		tc.byName[n] = tc.next
		added = append(added, models.TeamCode{Code: tc.next, Name: n})
		tc.next++
	}
	return added
}

// Clone returns an independent copy
func (tc *TeamCodes) Clone() *TeamCodes {
	out := &TeamCodes{byName: make(map[string]int, tc.Len())}
	if tc == nil {
		return out
	}
	for n, c := range tc.byName {
		out.byName[n] = c
	}
	out.next = tc.next
	return out
}

// Entries returns the table ordered by code
func (tc *TeamCodes) Entries() []models.TeamCode {
	out := make([]models.TeamCode, 0, tc.Len())
	if tc == nil {
		return out
	}
	for n, c := range tc.byName {
		out = append(out, models.TeamCode{Code: c, Name: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
