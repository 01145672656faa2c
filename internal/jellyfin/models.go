package jellyfin

// Raw Jellyfin payload shapes. Only the fields this service reads are
// declared; everything else the upstream sends is dropped at decode time.

type authenticateResponse struct {
	User        *rawUser `json:"User"`
	AccessToken string   `json:"AccessToken"`
}

type rawUser struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

type systemInfoResponse struct {
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
}

type itemsResponse struct {
	Items            []rawItem `json:"Items"`
	TotalRecordCount int       `json:"TotalRecordCount"`
}

type rawItem struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	OriginalTitle     string            `json:"OriginalTitle"`
	Type              string            `json:"Type"`
	SeriesName        string            `json:"SeriesName"`
	Overview          string            `json:"Overview"`
	Genres            []string          `json:"Genres"`
	CommunityRating   float64           `json:"CommunityRating"`
	OfficialRating    string            `json:"OfficialRating"`
	PremiereDate      string            `json:"PremiereDate"`
	ProductionYear    int               `json:"ProductionYear"`
	RunTimeTicks      int64             `json:"RunTimeTicks"`
	IndexNumber       int               `json:"IndexNumber"`
	ParentIndexNumber int               `json:"ParentIndexNumber"`
	ChildCount        int               `json:"ChildCount"`
	People            []rawPerson       `json:"People"`
	Studios           []rawNamed        `json:"Studios"`
	Taglines          []string          `json:"Taglines"`
	ProviderIDs       map[string]string `json:"ProviderIds"`
	HasSubtitles      bool              `json:"HasSubtitles"`
	UserData          *rawUserData      `json:"UserData"`
	MediaSources      []rawMediaSource  `json:"MediaSources"`
}

type rawPerson struct {
	Name string `json:"Name"`
	Role string `json:"Role"`
	Type string `json:"Type"`
}

type rawNamed struct {
	Name string `json:"Name"`
}

type rawUserData struct {
	Played                bool    `json:"Played"`
	PlaybackPositionTicks int64   `json:"PlaybackPositionTicks"`
	PlayedPercentage      float64 `json:"PlayedPercentage"`
}

type rawMediaSource struct {
	ID           string      `json:"Id"`
	Name         string      `json:"Name"`
	Size         int64       `json:"Size"`
	Container    string      `json:"Container"`
	RunTimeTicks int64       `json:"RunTimeTicks"`
	MediaStreams []rawStream `json:"MediaStreams"`
}

type rawStream struct {
	Index        int    `json:"Index"`
	Type         string `json:"Type"`
	Codec        string `json:"Codec"`
	Language     string `json:"Language"`
	DisplayTitle string `json:"DisplayTitle"`
	Title        string `json:"Title"`
	Channels     int    `json:"Channels"`
	IsDefault    bool   `json:"IsDefault"`
	DeliveryURL  string `json:"DeliveryUrl"`
}

type genresResponse struct {
	Items []rawGenre `json:"Items"`
}

type rawGenre struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

type playbackInfoResponse struct {
	MediaSources  []rawMediaSource `json:"MediaSources"`
	PlaySessionID string           `json:"PlaySessionId"`
}

// Normalized shapes handed to the rest of the service.

// Person is a cast or crew credit.
type Person struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Type string `json:"type"`
}

// Item is the fixed, normalized representation of a library title.
type Item struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name"`
	OriginalTitle         string            `json:"originalTitle,omitempty"`
	Type                  string            `json:"type"`
	SeriesName            string            `json:"seriesName,omitempty"`
	Overview              string            `json:"overview"`
	Genres                []string          `json:"genres"`
	CommunityRating       float64           `json:"communityRating"`
	OfficialRating        string            `json:"officialRating,omitempty"`
	PremiereDate          string            `json:"premiereDate,omitempty"`
	Year                  int               `json:"year"`
	Runtime               int               `json:"runtime"`
	PosterURL             string            `json:"posterUrl"`
	BackdropURL           string            `json:"backdropUrl"`
	ThumbURL              string            `json:"thumbUrl,omitempty"`
	People                []Person          `json:"people,omitempty"`
	Studios               []string          `json:"studios,omitempty"`
	Taglines              []string          `json:"taglines,omitempty"`
	ProviderIDs           map[string]string `json:"providerIds,omitempty"`
	HasSubtitles          bool              `json:"hasSubtitles"`
	IsPlayed              bool              `json:"isPlayed"`
	PlaybackPositionTicks int64             `json:"playbackPositionTicks"`
	PlaybackPercentage    float64           `json:"playbackPercentage,omitempty"`
	HasMediaSources       bool              `json:"mediaSources"`
}

// ItemsPage is a page of normalized items.
type ItemsPage struct {
	Items      []Item
	TotalCount int
}

// Genre is a library genre.
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Season is a normalized series season.
type Season struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	IndexNumber      int     `json:"indexNumber"`
	EpisodeCount     int     `json:"episodeCount"`
	Year             int     `json:"year"`
	PosterURL        string  `json:"posterUrl"`
	IsPlayed         bool    `json:"isPlayed"`
	PlayedPercentage float64 `json:"playedPercentage"`
}

// Episode is a normalized series episode.
type Episode struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	IndexNumber           int    `json:"indexNumber"`
	ParentIndexNumber     int    `json:"parentIndexNumber"`
	Overview              string `json:"overview"`
	Runtime               int    `json:"runtime"`
	ThumbURL              string `json:"thumbUrl"`
	IsPlayed              bool   `json:"isPlayed"`
	PlaybackPositionTicks int64  `json:"playbackPositionTicks"`
	HasMediaSource        bool   `json:"hasMediaSource"`
}

// Trailer is a locally stored trailer.
type Trailer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AuthResult is a successful upstream authentication.
type AuthResult struct {
	UserID      string
	Name        string
	AccessToken string
}

// SubtitleTrack is one selectable subtitle stream.
type SubtitleTrack struct {
	Index        int    `json:"index"`
	Language     string `json:"language"`
	DisplayTitle string `json:"displayTitle"`
	Codec        string `json:"codec"`
	URL          string `json:"url"`
}

// AudioTrack is one selectable audio stream.
type AudioTrack struct {
	Index        int    `json:"index"`
	Language     string `json:"language"`
	DisplayTitle string `json:"displayTitle"`
	Codec        string `json:"codec"`
	Channels     int    `json:"channels"`
	IsDefault    bool   `json:"isDefault"`
}

// StreamInfo carries everything the player needs to start playback.
type StreamInfo struct {
	StreamURL           string          `json:"streamUrl"`
	DirectPlayURL       string          `json:"directPlayUrl"`
	Subtitles           []SubtitleTrack `json:"subtitles"`
	AudioTracks         []AudioTrack    `json:"audioTracks"`
	Duration            int             `json:"duration"`
	PlaySessionID       string          `json:"playSessionId"`
	MediaSourceID       string          `json:"mediaSourceId"`
	NeedsAudioTranscode bool            `json:"needsAudioTranscode"`
	AudioCodec          string          `json:"audioCodec"`
}

// ProgressReport is a playback progress update destined for the upstream.
type ProgressReport struct {
	ItemID        string `json:"itemId"`
	PositionTicks int64  `json:"positionTicks"`
	IsPaused      bool   `json:"isPaused"`
	IsStopped     bool   `json:"isStopped"`
	PlaySessionID string `json:"playSessionId"`
}
