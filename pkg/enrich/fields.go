package enrich

import "strings"

// Field names accepted in configuration and on the command line
const (
	FieldFollowers = "followers"
	FieldLikes     = "likes"
	FieldVideos    = "videos"
	FieldLevel     = "level"
	FieldOfficial  = "official"
)

// FieldSelection says which supplementary fields to fetch for every entry.
// It is read-only once a run starts.
type FieldSelection struct {
	Followers bool
	Likes     bool
	Videos    bool
	Level     bool
	Official  bool
}

// SelectionFromNames builds a selection from field names; unknown names are ignored
func SelectionFromNames(names []string) FieldSelection {
	var s FieldSelection
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case FieldFollowers:
			s.Followers = true
		case FieldLikes:
			s.Likes = true
		case FieldVideos:
			s.Videos = true
		case FieldLevel:
			s.Level = true
		case FieldOfficial:
			s.Official = true
		}
	}
	return s
}

// Any reports whether at least one field is selected
func (s FieldSelection) Any() bool {
	return s.Followers || s.Likes || s.Videos || s.Level || s.Official
}

// accountInfo reports whether the account info endpoint is needed
func (s FieldSelection) accountInfo() bool {
	return s.Level || s.Official
}

// Names lists the selected fields in a stable order
func (s FieldSelection) Names() []string {
	var names []string
	if s.Followers {
		names = append(names, FieldFollowers)
	}
	if s.Likes {
		names = append(names, FieldLikes)
	}
	if s.Videos {
		names = append(names, FieldVideos)
	}
	if s.Level {
		names = append(names, FieldLevel)
	}
	if s.Official {
		names = append(names, FieldOfficial)
	}
	return names
}

// Requests returns how many sub-requests one entry costs
func (s FieldSelection) Requests() int {
	n := 0
	for _, on := range []bool{s.Followers, s.Likes, s.Videos, s.accountInfo()} {
		if on {
			n++
		}
	}
	return n
}
