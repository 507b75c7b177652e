package catalog

// Listing represents a service offered on the marketplace and maps to the
// `services` table. JSON tags keep the `serviceId`-style contract used by the
// frontend.
type Listing struct {
	ID          int      `json:"serviceId"`
	OwnerID     int      `json:"ownerUserId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	IndustryID  int      `json:"industryId"`
	Published   bool     `json:"published"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Plans       []Plan   `json:"plans,omitempty"`
	Images      []string `json:"images,omitempty"`
	// DistanceKM is only populated on geo searches.
	DistanceKM *float64 `json:"distanceKm,omitempty"`
	CreatedAt  *string  `json:"createdAt,omitempty"`
	UpdatedAt  *string  `json:"updatedAt,omitempty"`
}

// Plan is one pricing option of a listing, stored as jsonb.
type Plan struct {
	Name        string `json:"planName"`
	Price       int    `json:"price"`
	Description string `json:"description,omitempty"`
}

// GeoPoint is an optional search bias point.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SearchFilter is the reduced shape every listing endpoint compiles its
// request into before it reaches the repository. AfterID is the keyset resume
// position taken from a decoded cursor.
type SearchFilter struct {
	Term          string
	IndustryIDs   []int
	Geo           *GeoPoint
	RadiusKM      float64
	PageSize      int
	AfterID       int
	OwnerID       int
	PublishedOnly bool
}

// SearchResult is the page shape returned to the presentation layer.
// NextCursor is nil exactly when there is no more data; callers must not
// infer anything from the page length itself.
type SearchResult struct {
	Items      []Listing `json:"items"`
	NextCursor *string   `json:"nextCursor"`
}
