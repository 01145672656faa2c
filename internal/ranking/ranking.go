// Package ranking implements DagzRank, the composite 0-100 recommendation
// score. Score is pure: no I/O and no clock beyond the passed-in now.
package ranking

import (
	"math"
	"strings"
	"time"
)

// Media carries the signals DagzRank scores an item on.
type Media struct {
	Genres          []string // genre names (library source)
	GenreIDs        []int    // TMDB genre ids (discover source)
	CommunityRating float64  // 0-10
	VoteAverage     float64  // 0-10, public fallback for CommunityRating
	Year            int      // release year, 0 when unknown
	Played          bool
}

// Preferences are the user's onboarding genre choices.
type Preferences struct {
	FavoriteGenres []string
	DislikedGenres []string
}

// HistoryEntry is one watched title, most recent first.
type HistoryEntry struct {
	ID     string
	Genres []string
}

// Component bands. Genre match 0-40, history affinity 0-25, community
// score 0-20, freshness bonus 0-10, watched penalty -50 with an
// intermediate floor at zero.
const (
	genreMatchMax   = 40.0
	genreDislikeMax = 20.0
	genreDefault    = 15.0
	affinityMax     = 25.0
	affinityDefault = 10.0
	communityMax    = 20.0
	watchedPenalty  = 50.0
)

// Score computes the DagzRank for one item. Deterministic for identical
// inputs; the result is always in [0, 100].
func Score(m Media, prefs Preferences, history []HistoryEntry, now time.Time) int {
	score := 0.0
	genres := ResolveGenres(m)

	score += genreMatch(genres, prefs)
	score += historyAffinity(genres, history)
	score += communityScore(m)
	score += freshnessBonus(m.Year, now)

	if m.Played {
		score = math.Max(0, score-watchedPenalty)
	}

	return int(math.Min(100, math.Round(score)))
}

// genreMatch rewards overlap with favorite genres and penalizes overlap
// with disliked ones, both scaled by the item's genre count. Items with
// no genre data, or users with no favorites, get a flat middle-of-the-road
// contribution.
func genreMatch(genres []string, prefs Preferences) float64 {
	if len(genres) == 0 || len(prefs.FavoriteGenres) == 0 {
		return genreDefault
	}

	favorites := lowerSet(prefs.FavoriteGenres)
	disliked := lowerSet(prefs.DislikedGenres)

	matches, dislikes := 0, 0
	for _, g := range genres {
		key := strings.ToLower(g)
		if favorites[key] {
			matches++
		}
		if disliked[key] {
			dislikes++
		}
	}

	count := float64(len(genres))
	matchScore := float64(matches) / count * genreMatchMax
	dislikePenalty := float64(dislikes) / count * genreDislikeMax
	return math.Max(0, matchScore-dislikePenalty)
}

// historyAffinity rewards items whose genres are well represented in the
// watch history. Each of the item's genres contributes its relative weight
// (count divided by the most-watched genre's count) times 25; the sum is
// capped at 25. The cap is the contract, not an artifact: an item matching
// several dominant history genres still maxes out at one full band.
func historyAffinity(genres []string, history []HistoryEntry) float64 {
	if len(history) == 0 {
		return affinityDefault
	}

	counts := make(map[string]int)
	maxCount := 1
	for _, h := range history {
		for _, g := range h.Genres {
			key := strings.ToLower(g)
			counts[key]++
			if counts[key] > maxCount {
				maxCount = counts[key]
			}
		}
	}

	affinity := 0.0
	for _, g := range genres {
		if count, ok := counts[strings.ToLower(g)]; ok {
			affinity += float64(count) / float64(maxCount) * affinityMax
		}
	}

	return math.Min(affinityMax, affinity)
}

// communityScore maps the best available 0-10 rating onto 0-20.
func communityScore(m Media) float64 {
	rating := m.CommunityRating
	if rating == 0 {
		rating = m.VoteAverage
	}
	return rating / 10 * communityMax
}

// freshnessBonus rewards recent releases by whole-year age bands.
func freshnessBonus(year int, now time.Time) float64 {
	if year == 0 {
		return 0
	}
	age := now.Year() - year
	switch {
	case age <= 1:
		return 10
	case age <= 3:
		return 7
	case age <= 5:
		return 4
	case age <= 10:
		return 2
	default:
		return 0
	}
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}
