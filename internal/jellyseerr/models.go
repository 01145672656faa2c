package jellyseerr

// Raw Jellyseerr payload shapes.

type searchResponse struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"totalPages"`
	TotalResults int         `json:"totalResults"`
	Results      []rawResult `json:"results"`
}

type rawResult struct {
	ID                  int               `json:"id"`
	MediaType           string            `json:"mediaType"`
	Title               string            `json:"title"`
	Name                string            `json:"name"`
	Overview            string            `json:"overview"`
	PosterPath          string            `json:"posterPath"`
	BackdropPath        string            `json:"backdropPath"`
	ReleaseDate         string            `json:"releaseDate"`
	FirstAirDate        string            `json:"firstAirDate"`
	VoteAverage         float64           `json:"voteAverage"`
	GenreIDs            []int             `json:"genreIds"`
	Runtime             int               `json:"runtime"`
	MediaInfo           *rawMedia         `json:"mediaInfo"`
	BelongsToCollection *rawCollectionRef `json:"belongsToCollection"`
}

type rawMedia struct {
	ID     int `json:"id"`
	TmdbID int `json:"tmdbId"`
	Status int `json:"status"`
}

type rawCollectionRef struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	PosterPath   string `json:"posterPath"`
	BackdropPath string `json:"backdropPath"`
}

type movieDetailsResponse struct {
	ID                  int               `json:"id"`
	Title               string            `json:"title"`
	Overview            string            `json:"overview"`
	BelongsToCollection *rawCollectionRef `json:"belongsToCollection"`
	MediaInfo           *rawMedia         `json:"mediaInfo"`
}

type collectionResponse struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	Overview     string      `json:"overview"`
	PosterPath   string      `json:"posterPath"`
	BackdropPath string      `json:"backdropPath"`
	Parts        []rawResult `json:"parts"`
}

type videosResponse struct {
	ID      int        `json:"id"`
	Results []rawVideo `json:"results"`
}

type rawVideo struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type statusResponse struct {
	Version string `json:"version"`
}

type requestResponse struct {
	ID     int       `json:"id"`
	Status int       `json:"status"`
	Media  *rawMedia `json:"media"`
}

// Normalized shapes.

// Result is a normalized discovery/search result from the request
// service's catalog.
type Result struct {
	TmdbID       int      `json:"tmdbId"`
	MediaType    string   `json:"mediaType"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview"`
	PosterURL    string   `json:"posterUrl"`
	BackdropURL  string   `json:"backdropUrl"`
	Year         int      `json:"year"`
	VoteAverage  float64  `json:"voteAverage"`
	GenreIDs     []int    `json:"genreIds"`
	Genres       []string `json:"genres"`
	Runtime      int      `json:"runtime,omitempty"`
	MediaStatus  *int     `json:"mediaStatus,omitempty"`
	CollectionID int      `json:"collectionId,omitempty"`
}

// ResultsPage is one page of normalized results.
type ResultsPage struct {
	Page         int      `json:"page"`
	TotalPages   int      `json:"totalPages"`
	TotalResults int      `json:"totalResults"`
	Results      []Result `json:"results"`
}

// Collection is a franchise grouping with its member titles.
type Collection struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Overview    string   `json:"overview"`
	PosterURL   string   `json:"posterUrl"`
	BackdropURL string   `json:"backdropUrl"`
	Parts       []Result `json:"parts"`
}

// Video is a remote trailer or clip.
type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
	URL      string `json:"url"`
}

// RequestResult is the outcome of submitting a media request.
type RequestResult struct {
	RequestID   int  `json:"requestId"`
	Status      int  `json:"status"`
	MediaStatus *int `json:"mediaStatus,omitempty"`
}
