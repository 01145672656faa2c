package ranking

import (
	"testing"
	"time"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestScore_Scenario(t *testing.T) {
	// Genre match 20 + history default 10 + community 16 + freshness 10.
	item := Media{
		Genres:          []string{"Action", "Drama"},
		CommunityRating: 8.0,
		Year:            now.Year(),
	}
	prefs := Preferences{FavoriteGenres: []string{"Action"}}

	got := Score(item, prefs, nil, now)
	if got != 56 {
		t.Errorf("Score() = %d, want 56", got)
	}

	// Same item already played: 56 - 50, floored at 0 before the final clamp.
	item.Played = true
	got = Score(item, prefs, nil, now)
	if got != 6 {
		t.Errorf("Score() played = %d, want 6", got)
	}
}

func TestScore_Bounds(t *testing.T) {
	items := []Media{
		{},
		{Genres: []string{"Action"}, CommunityRating: 10, Year: now.Year()},
		{Genres: []string{"Horror"}, Played: true},
		{GenreIDs: []int{28, 18, 35}, VoteAverage: 9.9, Year: now.Year()},
		{Genres: []string{"Drama"}, CommunityRating: 10, VoteAverage: 10, Year: 1950, Played: true},
	}
	prefs := Preferences{
		FavoriteGenres: []string{"Action", "Drama", "Comedy"},
		DislikedGenres: []string{"Horror"},
	}
	history := []HistoryEntry{
		{ID: "1", Genres: []string{"Action", "Drama"}},
		{ID: "2", Genres: []string{"Action"}},
	}

	for i, item := range items {
		got := Score(item, prefs, history, now)
		if got < 0 || got > 100 {
			t.Errorf("item %d: Score() = %d, out of [0,100]", i, got)
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	item := Media{Genres: []string{"Action", "Comedy"}, CommunityRating: 7.5, Year: 2020}
	prefs := Preferences{FavoriteGenres: []string{"Comedy"}, DislikedGenres: []string{"Action"}}
	history := []HistoryEntry{{ID: "1", Genres: []string{"Comedy"}}}

	first := Score(item, prefs, history, now)
	for i := 0; i < 10; i++ {
		if got := Score(item, prefs, history, now); got != first {
			t.Fatalf("Score() = %d on run %d, want %d", got, i, first)
		}
	}
}

func TestScore_PlayedNeverIncreases(t *testing.T) {
	items := []Media{
		{Genres: []string{"Action"}, CommunityRating: 9, Year: now.Year()},
		{},
		{GenreIDs: []int{18}, VoteAverage: 3, Year: 2000},
	}
	prefs := Preferences{FavoriteGenres: []string{"Action"}}

	for i, item := range items {
		unplayed := item
		unplayed.Played = false
		played := item
		played.Played = true

		if Score(played, prefs, nil, now) > Score(unplayed, prefs, nil, now) {
			t.Errorf("item %d: played score exceeds unplayed score", i)
		}
	}
}

func TestGenreMatch(t *testing.T) {
	tests := []struct {
		name   string
		genres []string
		prefs  Preferences
		want   float64
	}{
		{"no genres flat default", nil, Preferences{FavoriteGenres: []string{"Action"}}, 15},
		{"no favorites flat default", []string{"Action"}, Preferences{}, 15},
		{"full match", []string{"Action"}, Preferences{FavoriteGenres: []string{"Action"}}, 40},
		{"half match", []string{"Action", "Drama"}, Preferences{FavoriteGenres: []string{"Action"}}, 20},
		{
			"dislike offsets match",
			[]string{"Action", "Horror"},
			Preferences{FavoriteGenres: []string{"Action"}, DislikedGenres: []string{"Horror"}},
			10, // 40/2 - 20/2
		},
		{
			"dislikes floor at zero",
			[]string{"Horror"},
			Preferences{FavoriteGenres: []string{"Action"}, DislikedGenres: []string{"Horror"}},
			0,
		},
		{
			"matching is case-insensitive",
			[]string{"action"},
			Preferences{FavoriteGenres: []string{"ACTION"}},
			40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := genreMatch(tt.genres, tt.prefs); got != tt.want {
				t.Errorf("genreMatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHistoryAffinity(t *testing.T) {
	history := []HistoryEntry{
		{ID: "1", Genres: []string{"Action", "Drama"}},
		{ID: "2", Genres: []string{"Action"}},
		{ID: "3", Genres: []string{"Action", "Comedy"}},
	}
	// Histogram: action=3 (max), drama=1, comedy=1.

	tests := []struct {
		name    string
		genres  []string
		history []HistoryEntry
		want    float64
	}{
		{"empty history flat default", []string{"Action"}, nil, 10},
		{"dominant genre full weight", []string{"Action"}, history, 25},
		{"minor genre partial weight", []string{"Drama"}, history, 25.0 / 3},
		{"unseen genre no weight", []string{"Western"}, history, 0},
		// 25 + 25/3 exceeds the band; the cap holds at 25.
		{"sum capped at 25", []string{"Action", "Drama"}, history, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := historyAffinity(tt.genres, tt.history)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("historyAffinity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFreshnessBonus(t *testing.T) {
	tests := []struct {
		year int
		want float64
	}{
		{0, 0},
		{now.Year(), 10},
		{now.Year() - 1, 10},
		{now.Year() - 2, 7},
		{now.Year() - 3, 7},
		{now.Year() - 4, 4},
		{now.Year() - 5, 4},
		{now.Year() - 6, 2},
		{now.Year() - 10, 2},
		{now.Year() - 11, 0},
		{1960, 0},
	}

	for _, tt := range tests {
		if got := freshnessBonus(tt.year, now); got != tt.want {
			t.Errorf("freshnessBonus(%d) = %v, want %v", tt.year, got, tt.want)
		}
	}
}

func TestCommunityScore_FallsBackToVoteAverage(t *testing.T) {
	if got := communityScore(Media{CommunityRating: 8}); got != 16 {
		t.Errorf("communityScore() = %v, want 16", got)
	}
	if got := communityScore(Media{VoteAverage: 5}); got != 10 {
		t.Errorf("communityScore() with vote average = %v, want 10", got)
	}
	if got := communityScore(Media{CommunityRating: 8, VoteAverage: 2}); got != 16 {
		t.Errorf("communityScore() prefers community rating, got %v, want 16", got)
	}
	if got := communityScore(Media{}); got != 0 {
		t.Errorf("communityScore() default = %v, want 0", got)
	}
}

func TestResolveGenres(t *testing.T) {
	if got := ResolveGenres(Media{Genres: []string{"Action"}, GenreIDs: []int{18}}); len(got) != 1 || got[0] != "Action" {
		t.Errorf("ResolveGenres() = %v, want [Action]", got)
	}
	got := ResolveGenres(Media{GenreIDs: []int{28, 878, 424242}})
	want := []string{"Action", "Science Fiction", "Genre_424242"}
	if len(got) != len(want) {
		t.Fatalf("ResolveGenres() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ResolveGenres()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := ResolveGenres(Media{}); got != nil {
		t.Errorf("ResolveGenres() empty = %v, want nil", got)
	}
}
