package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"bilifollow/pkg/bilibili"
)

// Sort modes
const (
	SortDefault   = "default"
	SortFollowers = "followers"
	SortName      = "name"
)

// SortModes lists the accepted sort modes
var SortModes = []string{SortDefault, SortFollowers, SortName}

// SortEntries returns a sorted copy of entries. "default" keeps API order,
// "followers" puts accounts with a follower count first, largest first, and
// "name" orders by name ignoring case. Ties keep API order.
func SortEntries(entries []bilibili.FollowingEntry, mode string) ([]bilibili.FollowingEntry, error) {
	out := make([]bilibili.FollowingEntry, len(entries))
	copy(out, entries)

	switch strings.ToLower(mode) {
	case SortDefault, "":
	case SortFollowers:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].Followers, out[j].Followers
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return *a > *b
			}
		})
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Uname) < strings.ToLower(out[j].Uname)
		})
	default:
		return nil, fmt.Errorf("unknown sort mode %q (want one of %s)", mode, strings.Join(SortModes, ", "))
	}
	return out, nil
}

// FilterEntries keeps the entries whose name or bio fuzzy-matches query,
// ignoring case. An empty query keeps everything.
func FilterEntries(entries []bilibili.FollowingEntry, query string) []bilibili.FollowingEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}

	var out []bilibili.FollowingEntry
	for _, e := range entries {
		if fuzzy.MatchFold(query, e.Uname) || fuzzy.MatchFold(query, e.Bio()) {
			out = append(out, e)
		}
	}
	return out
}
