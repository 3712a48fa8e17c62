package discogs

// SearchParams narrow a catalog search. Query is free text; the other
// fields hit Discogs' structured filters.
type SearchParams struct {
	Query   string
	Artist  string
	Title   string
	CatNo   string
	Barcode string
	Limit   int
}

// SearchResult is one release candidate from a catalog search.
type SearchResult struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Year     string `json:"year"`
	Label    string `json:"label"`
	CatNo    string `json:"catno"`
	Country  string `json:"country"`
	Format   string `json:"format"`
	ThumbURL string `json:"thumb_url"`
	CoverURL string `json:"cover_url"`
}

// Raw API response types (internal)

type rawSearchResult struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Year    string   `json:"year"`
	Label   []string `json:"label"`
	CatNo   string   `json:"catno"`
	Country string   `json:"country"`
	Format  []string `json:"format"`
	Thumb   string   `json:"thumb"`
	Cover   string   `json:"cover_image"`
}

type rawRelease struct {
	ID        int           `json:"id"`
	Title     string        `json:"title"`
	Year      int           `json:"year"`
	Artists   []rawArtist   `json:"artists"`
	Labels    []rawLabel    `json:"labels"`
	Genres    []string      `json:"genres"`
	Styles    []string      `json:"styles"`
	Notes     string        `json:"notes"`
	Images    []rawImage    `json:"images"`
	Tracklist []rawPosition `json:"tracklist"`
}

type rawArtist struct {
	Name string `json:"name"`
	Join string `json:"join"`
}

type rawLabel struct {
	Name  string `json:"name"`
	CatNo string `json:"catno"`
}

type rawImage struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

type rawPosition struct {
	Position string `json:"position"`
	Type     string `json:"type_"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}
