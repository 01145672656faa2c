// Package media is the aggregation layer over both upstreams: smart
// button status, unified search with library fallback, collection
// lookup, trailers and the plain pass-through catalog reads.
package media

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dagzflix/dagzflix/internal/jellyfin"
	"github.com/dagzflix/dagzflix/internal/jellyseerr"
	"github.com/dagzflix/dagzflix/internal/status"
)

// boxSetScanLimit bounds the local collection scan so one lookup never
// walks an arbitrarily large library.
const boxSetScanLimit = 25

// StatusResult drives the smart button for one title.
type StatusResult struct {
	Status            status.Status `json:"status"`
	JellyfinAvailable bool          `json:"jellyfinAvailable"`
	JellyseerrStatus  *int          `json:"jellyseerrStatus"`
	// Sources reports per-upstream signal health: ok, failed or skipped.
	Sources map[string]string `json:"sources"`
}

// SearchPage is a unified search result page from either source.
type SearchPage struct {
	Results      []jellyseerr.Result `json:"results"`
	Page         int                 `json:"page"`
	TotalPages   int                 `json:"totalPages"`
	TotalResults int                 `json:"totalResults"`
	// Fallback is set when the fulfillment catalog was unavailable and
	// the page came from the library instead.
	Fallback bool `json:"fallback,omitempty"`
}

// CollectionSummary describes the franchise a title belongs to.
type CollectionSummary struct {
	Source    string              `json:"source"` // library or discover
	ID        int                 `json:"id,omitempty"`
	Name      string              `json:"name"`
	Overview  string              `json:"overview,omitempty"`
	PosterURL string              `json:"posterUrl,omitempty"`
	Parts     []jellyseerr.Result `json:"parts,omitempty"`
}

// CollectionResult is a franchise lookup outcome. Collection is nil
// when neither source has a match.
type CollectionResult struct {
	Collection *CollectionSummary `json:"collection"`
	Items      []jellyfin.Item    `json:"items"`
}

// TrailerSet carries trailers from both sources for one title.
type TrailerSet struct {
	Local  []jellyfin.Trailer `json:"local"`
	Remote []jellyseerr.Video `json:"remote"`
}

// Detail is a title's full detail view with its related shelf.
type Detail struct {
	Item    *jellyfin.Item  `json:"item"`
	Similar []jellyfin.Item `json:"similar"`
}

// Service aggregates both upstreams.
type Service struct {
	jellyfin   *jellyfin.Client
	jellyseerr *jellyseerr.Client
	logger     zerolog.Logger
}

// NewService creates a media aggregation service.
func NewService(jf *jellyfin.Client, js *jellyseerr.Client, logger zerolog.Logger) *Service {
	return &Service{
		jellyfin:   jf,
		jellyseerr: js,
		logger:     logger.With().Str("component", "media").Logger(),
	}
}

// StatusQuery identifies a title in one or both upstreams.
type StatusQuery struct {
	ItemID    string // library item id, may be empty
	TmdbID    int    // remote catalog id, may be zero
	MediaType string // movie or tv
}

// Status resolves the smart button state for one title by querying both
// upstreams concurrently. Each signal degrades independently; only when
// every queried signal fails is the state unknown.
func (s *Service) Status(ctx context.Context, token, userID string, q StatusQuery) *StatusResult {
	var (
		wg              sync.WaitGroup
		localAvailable  bool
		localErr        error
		fulfillmentCode *int
		fulfillmentErr  error
	)

	sources := map[string]string{"library": "skipped", "fulfillment": "skipped"}
	queried := 0

	if q.ItemID != "" {
		queried++
		wg.Add(1)
		go func() {
			defer wg.Done()
			localAvailable, localErr = s.jellyfin.Available(ctx, token, userID, q.ItemID)
			if errors.Is(localErr, jellyfin.ErrItemNotFound) {
				// Absent is a definitive answer, not a failure.
				localAvailable, localErr = false, nil
			}
		}()
	}

	if q.TmdbID > 0 && s.jellyseerr.IsConfigured(ctx) {
		queried++
		wg.Add(1)
		go func() {
			defer wg.Done()
			fulfillmentCode, fulfillmentErr = s.jellyseerr.MediaStatus(ctx, q.TmdbID, q.MediaType)
		}()
	}

	wg.Wait()

	failed := 0
	if q.ItemID != "" {
		if localErr != nil {
			sources["library"] = "failed"
			failed++
		} else {
			sources["library"] = "ok"
		}
	}
	if q.TmdbID > 0 && s.jellyseerr.IsConfigured(ctx) {
		if fulfillmentErr != nil {
			sources["fulfillment"] = "failed"
			failed++
		} else {
			sources["fulfillment"] = "ok"
		}
	}

	if queried == 0 || failed == queried {
		return &StatusResult{Status: status.Unknown, Sources: sources}
	}

	result := &StatusResult{
		JellyfinAvailable: localErr == nil && localAvailable,
		Sources:           sources,
	}
	if fulfillmentErr == nil {
		result.JellyseerrStatus = fulfillmentCode
	}
	result.Status = status.Reconcile(result.JellyfinAvailable, result.JellyseerrStatus)
	return result
}

// Search queries the full remote catalog, falling back to the library
// when the fulfillment service is unavailable. Fallback results carry
// the available fulfillment code so the button renders correctly.
func (s *Service) Search(ctx context.Context, token, userID, query string, page int) (*SearchPage, error) {
	if s.jellyseerr.IsConfigured(ctx) {
		remote, err := s.jellyseerr.Search(ctx, query, page)
		if err == nil {
			return &SearchPage{
				Results:      remote.Results,
				Page:         remote.Page,
				TotalPages:   remote.TotalPages,
				TotalResults: remote.TotalResults,
			}, nil
		}
		s.logger.Warn().Err(err).Str("query", query).Msg("remote search failed, falling back to library")
	}

	local, err := s.jellyfin.Search(ctx, token, userID, query, 20)
	if err != nil {
		return nil, err
	}

	results := make([]jellyseerr.Result, len(local.Items))
	for i, item := range local.Items {
		results[i] = libraryResult(item)
	}
	return &SearchPage{
		Results:      results,
		Page:         1,
		TotalPages:   1,
		TotalResults: local.TotalCount,
		Fallback:     true,
	}, nil
}

// libraryResult converts a library item into the unified search shape.
func libraryResult(item jellyfin.Item) jellyseerr.Result {
	mediaType := "movie"
	if item.Type == "Series" {
		mediaType = "tv"
	}
	// Everything the library returns is by definition playable, so
	// fallback results carry the fully-available fulfillment code.
	code := status.FulfillmentAvailable
	return jellyseerr.Result{
		MediaType:   mediaType,
		Title:       item.Name,
		Overview:    item.Overview,
		PosterURL:   item.PosterURL,
		BackdropURL: item.BackdropURL,
		Year:        item.Year,
		VoteAverage: item.CommunityRating,
		Genres:      item.Genres,
		MediaStatus: &code,
	}
}

// CollectionQuery identifies a franchise to look up.
type CollectionQuery struct {
	ItemID string // library item whose franchise to find
	TmdbID int    // movie id for the remote collection lookup
}

// Collection finds a title's franchise: a bounded scan of local box
// sets first, then the remote collection endpoint. The first source
// with members wins.
func (s *Service) Collection(ctx context.Context, token, userID string, q CollectionQuery) (*CollectionResult, error) {
	if q.ItemID != "" {
		item, err := s.jellyfin.Item(ctx, token, userID, q.ItemID)
		if err != nil {
			s.logger.Warn().Err(err).Str("itemId", q.ItemID).Msg("collection item lookup failed")
		} else if result := s.localCollection(ctx, token, userID, item.Name); result != nil {
			return result, nil
		}
	}

	if q.TmdbID > 0 && s.jellyseerr.IsConfigured(ctx) {
		collectionID, err := s.jellyseerr.CollectionID(ctx, q.TmdbID)
		if err != nil {
			s.logger.Warn().Err(err).Int("tmdbId", q.TmdbID).Msg("remote collection lookup failed")
		} else if collectionID > 0 {
			collection, err := s.jellyseerr.Collection(ctx, collectionID)
			if err != nil {
				s.logger.Warn().Err(err).Int("collectionId", collectionID).Msg("remote collection fetch failed")
			} else if len(collection.Parts) > 0 {
				return &CollectionResult{
					Collection: &CollectionSummary{
						Source:    "discover",
						ID:        collection.ID,
						Name:      collection.Name,
						Overview:  collection.Overview,
						PosterURL: collection.PosterURL,
						Parts:     collection.Parts,
					},
					Items: []jellyfin.Item{},
				}, nil
			}
		}
	}

	return &CollectionResult{Items: []jellyfin.Item{}}, nil
}

func (s *Service) localCollection(ctx context.Context, token, userID, name string) *CollectionResult {
	boxSets, err := s.jellyfin.BoxSets(ctx, token, userID, boxSetScanLimit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("box set scan failed")
		return nil
	}

	needle := strings.ToLower(strings.TrimSuffix(name, " Collection"))
	for _, set := range boxSets {
		setName := strings.ToLower(strings.TrimSuffix(set.Name, " Collection"))
		if !strings.Contains(setName, needle) && !strings.Contains(needle, setName) {
			continue
		}
		items, err := s.jellyfin.BoxSetItems(ctx, token, userID, set.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("boxSet", set.Name).Msg("box set members fetch failed")
			continue
		}
		if len(items) > 0 {
			return &CollectionResult{
				Collection: &CollectionSummary{Source: "library", Name: set.Name},
				Items:      items,
			}
		}
	}
	return nil
}

// Trailers returns a title's trailers, preferring local ones. The
// remote catalog is consulted only when the library has none. Both legs
// are best-effort; an empty set is a valid answer.
func (s *Service) Trailers(ctx context.Context, token, userID, itemID string, tmdbID int, mediaType string) *TrailerSet {
	set := &TrailerSet{Local: []jellyfin.Trailer{}, Remote: []jellyseerr.Video{}}

	if itemID != "" {
		local, err := s.jellyfin.LocalTrailers(ctx, token, userID, itemID)
		if err != nil {
			s.logger.Debug().Err(err).Str("itemId", itemID).Msg("local trailers unavailable")
		} else if len(local) > 0 {
			set.Local = local
			return set
		}
	}

	if tmdbID > 0 && s.jellyseerr.IsConfigured(ctx) {
		remote, err := s.jellyseerr.Videos(ctx, tmdbID, mediaType)
		if err != nil {
			s.logger.Debug().Err(err).Int("tmdbId", tmdbID).Msg("remote trailers unavailable")
		} else {
			set.Remote = remote
		}
	}

	return set
}

// Detail fetches a title with its related shelf. The related shelf is
// best-effort.
func (s *Service) Detail(ctx context.Context, token, userID, itemID string) (*Detail, error) {
	item, err := s.jellyfin.Item(ctx, token, userID, itemID)
	if err != nil {
		return nil, err
	}

	similar, err := s.jellyfin.Similar(ctx, token, userID, itemID, 12)
	if err != nil {
		s.logger.Debug().Err(err).Str("itemId", itemID).Msg("similar titles unavailable")
		similar = []jellyfin.Item{}
	}

	return &Detail{Item: item, Similar: similar}, nil
}
