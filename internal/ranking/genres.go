package ranking

import "fmt"

// tmdbGenreNames maps TMDB genre ids to the names the library upstream
// uses, so discover-sourced items score against the same genre vocabulary
// as library items.
var tmdbGenreNames = map[int]string{
	// Movies
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
	// TV-specific
	10759: "Action & Adventure",
	10762: "Kids",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
}

// GenreName resolves a TMDB genre id to its display name.
func GenreName(id int) string {
	if name, ok := tmdbGenreNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Genre_%d", id)
}

// ResolveGenres returns an item's genres regardless of source: library
// items carry genre names, discover items carry TMDB genre ids.
func ResolveGenres(m Media) []string {
	if len(m.Genres) > 0 {
		return m.Genres
	}
	if len(m.GenreIDs) > 0 {
		names := make([]string, len(m.GenreIDs))
		for i, id := range m.GenreIDs {
			names[i] = GenreName(id)
		}
		return names
	}
	return nil
}
