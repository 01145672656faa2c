// Package recommend builds the personalized "For You" shelf: it fuses
// the local library with the remote discovery catalog, scores every
// candidate with DagzRank and returns the ranked shelf.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dagzflix/dagzflix/internal/jellyfin"
	"github.com/dagzflix/dagzflix/internal/jellyseerr"
	"github.com/dagzflix/dagzflix/internal/preferences"
	"github.com/dagzflix/dagzflix/internal/ranking"
)

const (
	catalogSampleSize = 100
	historyLimit      = 50
	minScore          = 20
	shelfLimit        = 30

	wizardPageLimit  = 5
	wizardMinResults = 10
	wizardResultCap  = 20
)

// ErrNoSources is returned when neither the library nor the discovery
// catalog produced any candidates.
var ErrNoSources = errors.New("no recommendation sources available")

// RankedItem is one scored shelf entry from either source.
type RankedItem struct {
	Source          string   `json:"source"` // library or discover
	DagzRank        int      `json:"dagzRank"`
	ID              string   `json:"id,omitempty"`
	TmdbID          int      `json:"tmdbId,omitempty"`
	MediaType       string   `json:"mediaType"`
	Title           string   `json:"title"`
	Overview        string   `json:"overview"`
	PosterURL       string   `json:"posterUrl"`
	BackdropURL     string   `json:"backdropUrl,omitempty"`
	Year            int      `json:"year"`
	Genres          []string `json:"genres"`
	CommunityRating float64  `json:"communityRating"`
	MediaStatus     *int     `json:"mediaStatus,omitempty"`
	IsPlayed        bool     `json:"isPlayed"`
}

// Response is the ranked shelf plus scoring metadata.
type Response struct {
	Recommendations []RankedItem `json:"recommendations"`
	TotalScored     int          `json:"totalScored"`
	FromLibrary     int          `json:"fromLibrary"`
	FromRemote      int          `json:"fromRemote"`
	GeneratedAt     time.Time    `json:"generatedAt"`
}

// Service assembles recommendations.
type Service struct {
	jellyfin    *jellyfin.Client
	jellyseerr  *jellyseerr.Client
	preferences *preferences.Service
	logger      zerolog.Logger
}

// NewService creates a recommendation service.
func NewService(jf *jellyfin.Client, js *jellyseerr.Client, prefs *preferences.Service, logger zerolog.Logger) *Service {
	return &Service{
		jellyfin:    jf,
		jellyseerr:  js,
		preferences: prefs,
		logger:      logger.With().Str("component", "recommend").Logger(),
	}
}

// Recommendations builds the shelf for one user.
//
// The library catalog and the discovery catalog are both candidates;
// watch history is a scoring signal only. History and discovery are
// best-effort: when either fails, scoring degrades gracefully. The call
// fails only when no candidates could be fetched from either source.
func (s *Service) Recommendations(ctx context.Context, userID, token string) (*Response, error) {
	prefs, err := s.preferences.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	var (
		wg             sync.WaitGroup
		history        []ranking.HistoryEntry
		catalog        []jellyfin.Item
		catalogErr     error
		discover       []jellyseerr.Result
		discoverFailed bool
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		items, err := s.jellyfin.PlayedItems(ctx, token, userID, historyLimit)
		if err != nil {
			s.logger.Warn().Err(err).Msg("watch history unavailable, scoring without it")
			return
		}
		for _, item := range items {
			history = append(history, ranking.HistoryEntry{ID: item.ID, Genres: item.Genres})
		}
	}()

	go func() {
		defer wg.Done()
		catalog, catalogErr = s.jellyfin.CatalogSample(ctx, token, userID, catalogSampleSize)
		if catalogErr != nil {
			s.logger.Warn().Err(catalogErr).Msg("library catalog unavailable")
		}
	}()

	go func() {
		defer wg.Done()
		if !s.jellyseerr.IsConfigured(ctx) {
			return
		}
		for _, mediaType := range []string{"movie", "tv"} {
			page, err := s.jellyseerr.Discover(ctx, jellyseerr.DiscoverQuery{MediaType: mediaType})
			if err != nil {
				discoverFailed = true
				s.logger.Warn().Err(err).Str("mediaType", mediaType).Msg("discover unavailable")
				continue
			}
			discover = append(discover, page.Results...)
		}
	}()

	wg.Wait()

	if catalogErr != nil && len(discover) == 0 {
		return nil, fmt.Errorf("%w: library failed and discover %s", ErrNoSources,
			discoverReason(s.jellyseerr.IsConfigured(ctx), discoverFailed))
	}

	rankPrefs := ranking.Preferences{
		FavoriteGenres: prefs.FavoriteGenres,
		DislikedGenres: prefs.DislikedGenres,
	}

	now := time.Now()
	candidates := fuse(catalog, discover)
	items := make([]RankedItem, len(candidates))
	fromLibrary, fromRemote := 0, 0
	for i, c := range candidates {
		c.item.DagzRank = ranking.Score(c.media, rankPrefs, history, now)
		items[i] = c.item
		if c.item.Source == "library" {
			fromLibrary++
		} else {
			fromRemote++
		}
	}

	totalScored := len(items)

	sort.SliceStable(items, func(i, j int) bool { return items[i].DagzRank > items[j].DagzRank })

	shelf := make([]RankedItem, 0, shelfLimit)
	for _, item := range items {
		if item.DagzRank <= minScore {
			continue
		}
		shelf = append(shelf, item)
		if len(shelf) == shelfLimit {
			break
		}
	}

	return &Response{
		Recommendations: shelf,
		TotalScored:     totalScored,
		FromLibrary:     fromLibrary,
		FromRemote:      fromRemote,
		GeneratedAt:     now.UTC(),
	}, nil
}

type candidate struct {
	item  RankedItem
	media ranking.Media
}

// fuse merges the two candidate pools, deduplicating by lowercased
// title. Library entries win ties so the shelf prefers what is already
// playable.
func fuse(catalog []jellyfin.Item, discover []jellyseerr.Result) []candidate {
	seen := make(map[string]bool, len(catalog))
	candidates := make([]candidate, 0, len(catalog)+len(discover))

	for _, item := range catalog {
		key := strings.ToLower(item.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		mediaType := "movie"
		if item.Type == "Series" {
			mediaType = "tv"
		}
		candidates = append(candidates, candidate{
			item: RankedItem{
				Source:          "library",
				ID:              item.ID,
				MediaType:       mediaType,
				Title:           item.Name,
				Overview:        item.Overview,
				PosterURL:       item.PosterURL,
				BackdropURL:     item.BackdropURL,
				Year:            item.Year,
				Genres:          item.Genres,
				CommunityRating: item.CommunityRating,
				IsPlayed:        item.IsPlayed,
			},
			media: ranking.Media{
				Genres:          item.Genres,
				CommunityRating: item.CommunityRating,
				Year:            item.Year,
				Played:          item.IsPlayed,
			},
		})
	}

	for _, result := range discover {
		key := strings.ToLower(result.Title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		candidates = append(candidates, candidate{
			item: RankedItem{
				Source:          "discover",
				TmdbID:          result.TmdbID,
				MediaType:       result.MediaType,
				Title:           result.Title,
				Overview:        result.Overview,
				PosterURL:       result.PosterURL,
				BackdropURL:     result.BackdropURL,
				Year:            result.Year,
				Genres:          result.Genres,
				CommunityRating: result.VoteAverage,
				MediaStatus:     result.MediaStatus,
			},
			media: ranking.Media{
				GenreIDs:    result.GenreIDs,
				VoteAverage: result.VoteAverage,
				Year:        result.Year,
			},
		})
	}

	return candidates
}

func discoverReason(configured, failed bool) string {
	switch {
	case !configured:
		return "is not configured"
	case failed:
		return "failed"
	default:
		return "returned nothing"
	}
}

// WizardQuery holds the onboarding wizard's discovery filters. Every
// field is optional; a zero query returns the unfiltered trending feed.
type WizardQuery struct {
	Era     string // classic, 90s, 2000s, recent or all
	Mood    string // genre name fragment, matched case-insensitively
	Runtime string // short, medium, long or any; movies only
	Type    string // movie or tv
}

// WizardPage is a filtered slice of the discovery feed.
type WizardPage struct {
	Results    []jellyseerr.Result `json:"results"`
	TotalFound int                 `json:"totalFound"`
}

// WizardDiscover scans discovery pages for titles matching the wizard's
// filters. An empty result after the runtime filter triggers a rescan
// without it, so an over-tight runtime band never blanks the wizard.
func (s *Service) WizardDiscover(ctx context.Context, q WizardQuery) (*WizardPage, error) {
	if !s.jellyseerr.IsConfigured(ctx) {
		return nil, jellyseerr.ErrNotConfigured
	}

	mediaType := "movie"
	if q.Type == "tv" {
		mediaType = "tv"
	}
	now := time.Now()

	results := s.wizardScan(ctx, mediaType, q, true, now)
	if len(results) == 0 && mediaType == "movie" && q.Runtime != "" && q.Runtime != "any" {
		results = s.wizardScan(ctx, mediaType, q, false, now)
	}

	page := &WizardPage{TotalFound: len(results)}
	if len(results) > wizardResultCap {
		results = results[:wizardResultCap]
	}
	if results == nil {
		results = []jellyseerr.Result{}
	}
	page.Results = results
	return page, nil
}

// wizardScan walks discovery pages until enough filtered titles turn up
// or the page budget runs out. A failed page ends the scan with
// whatever was collected so far.
func (s *Service) wizardScan(ctx context.Context, mediaType string, q WizardQuery, withRuntime bool, now time.Time) []jellyseerr.Result {
	var results []jellyseerr.Result
	for page := 1; page <= wizardPageLimit && len(results) < wizardMinResults; page++ {
		resp, err := s.jellyseerr.Discover(ctx, jellyseerr.DiscoverQuery{MediaType: mediaType, Page: page})
		if err != nil {
			s.logger.Warn().Err(err).Int("page", page).Msg("wizard discover page failed")
			break
		}
		results = append(results, wizardFilter(resp.Results, q, withRuntime, now)...)
	}
	return results
}

// wizardFilter applies the era and mood filters, plus the runtime band
// for movies when withRuntime is set. TV runtimes are per-episode, so
// the band never applies there.
func wizardFilter(results []jellyseerr.Result, q WizardQuery, withRuntime bool, now time.Time) []jellyseerr.Result {
	minYear, maxYear := eraRange(q.Era, now)
	minRuntime, maxRuntime := runtimeRange(q.Runtime)
	mood := strings.ToLower(q.Mood)
	runtimeActive := withRuntime && q.Type != "tv" && q.Runtime != "" && q.Runtime != "any"

	var filtered []jellyseerr.Result
	for _, r := range results {
		if r.Year < minYear || r.Year > maxYear {
			continue
		}
		if mood != "" && !matchesMood(r.GenreIDs, mood) {
			continue
		}
		if runtimeActive && (r.Runtime < minRuntime || r.Runtime > maxRuntime) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func matchesMood(genreIDs []int, mood string) bool {
	for _, id := range genreIDs {
		if strings.Contains(strings.ToLower(ranking.GenreName(id)), mood) {
			return true
		}
	}
	return false
}

func eraRange(era string, now time.Time) (minYear, maxYear int) {
	switch era {
	case "classic":
		return 1900, 1979
	case "90s":
		return 1990, 1999
	case "2000s":
		return 2000, 2009
	case "recent":
		return 2010, now.Year()
	default:
		return 1900, now.Year()
	}
}

// runtimeRange maps a runtime preference to a band in minutes. The
// bands overlap so titles near a boundary are not lost to either side.
func runtimeRange(pref string) (minRuntime, maxRuntime int) {
	switch pref {
	case "short":
		return 0, 105
	case "medium":
		return 75, 165
	case "long":
		return 135, math.MaxInt
	default:
		return 0, math.MaxInt
	}
}
