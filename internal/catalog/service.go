package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/wichananm65/service-market-backend/internal/cursor"
)

var (
	// ErrEmptyServiceIndustries rejects searches that are scoped by neither a
	// keyword nor an industry set; such a query would scan the whole catalog.
	ErrEmptyServiceIndustries = errors.New("search requires a keyword or at least one industry")
	ErrInvalidListing         = errors.New("invalid service payload")
)

// DefaultPageSize applies when a request does not name a page size.
const DefaultPageSize = 20

// PreferenceSource supplies the caller's currently selected industries. The
// owner-scoped search derives its industry scope from here instead of
// trusting industries sent in the request body.
type PreferenceSource interface {
	SelectedIndustryIDs(userID int) ([]int, error)
}

type Service struct {
	repo  Repository
	prefs PreferenceSource
}

func NewService(repo Repository, prefs PreferenceSource) *Service {
	return &Service{repo: repo, prefs: prefs}
}

// SearchRequest is the raw request shape shared by the listing endpoints.
type SearchRequest struct {
	Term        string
	IndustryIDs []int
	Geo         *GeoPoint
	RadiusKM    float64
	PageSize    int
	Cursor      string
}

// SearchForUser searches published listings scoped by the caller's stored
// industry selections.
func (s *Service) SearchForUser(userID int, req SearchRequest) (SearchResult, error) {
	ids, err := s.prefs.SelectedIndustryIDs(userID)
	if err != nil {
		return SearchResult{}, err
	}
	return s.search(SearchFilter{
		Term:          req.Term,
		IndustryIDs:   ids,
		Geo:           req.Geo,
		RadiusKM:      req.RadiusKM,
		PageSize:      req.PageSize,
		PublishedOnly: true,
	}, req.Cursor, true)
}

// SearchGuest searches published listings with an industry set supplied by
// the caller, since a guest has no stored preferences to derive from.
func (s *Service) SearchGuest(req SearchRequest) (SearchResult, error) {
	return s.search(SearchFilter{
		Term:          req.Term,
		IndustryIDs:   req.IndustryIDs,
		Geo:           req.Geo,
		RadiusKM:      req.RadiusKM,
		PageSize:      req.PageSize,
		PublishedOnly: true,
	}, req.Cursor, true)
}

// SearchFeed searches published listings scoped by the target user's stored
// industry selections.
func (s *Service) SearchFeed(targetUserID int, req SearchRequest) (SearchResult, error) {
	ids, err := s.prefs.SelectedIndustryIDs(targetUserID)
	if err != nil {
		return SearchResult{}, err
	}
	return s.search(SearchFilter{
		Term:          req.Term,
		IndustryIDs:   ids,
		Geo:           req.Geo,
		RadiusKM:      req.RadiusKM,
		PageSize:      req.PageSize,
		PublishedOnly: true,
	}, req.Cursor, true)
}

// ListOwn pages through every listing the owner has, published or not. No
// scope requirement applies: the owner filter already bounds the query.
func (s *Service) ListOwn(ownerID int, req SearchRequest) (SearchResult, error) {
	return s.search(SearchFilter{
		Term:     req.Term,
		PageSize: req.PageSize,
		OwnerID:  ownerID,
	}, req.Cursor, false)
}

func (s *Service) search(f SearchFilter, token string, requireScope bool) (SearchResult, error) {
	f.Term = normalizeTerm(f.Term)
	if requireScope && f.Term == "" && len(f.IndustryIDs) == 0 {
		return SearchResult{}, ErrEmptyServiceIndustries
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.Geo != nil && f.RadiusKM <= 0 {
		f.RadiusKM = 50
	}

	fp := fingerprint(f)
	if token != "" {
		state, err := cursor.Decode(token)
		if err != nil {
			return SearchResult{}, err
		}
		// a cursor is only valid against the filter that produced it
		if state.Fingerprint != fp {
			return SearchResult{}, cursor.ErrInvalidCursor
		}
		f.AfterID = state.LastID
	}

	items, hasMore, err := s.repo.Search(f)
	if err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{Items: items}
	if hasMore && len(items) > 0 {
		next := cursor.Encode(cursor.State{LastID: items[len(items)-1].ID, Fingerprint: fp})
		result.NextCursor = &next
	}
	return result, nil
}

func (s *Service) GetByID(id int) (Listing, error) {
	if id <= 0 {
		return Listing{}, ErrNotFound
	}
	return s.repo.GetByID(id)
}

func (s *Service) Create(l Listing) (Listing, error) {
	if l.OwnerID <= 0 || l.Title == "" || l.IndustryID <= 0 {
		return Listing{}, ErrInvalidListing
	}
	return s.repo.Create(l)
}

func (s *Service) Update(id int, ownerID int, l Listing) (Listing, error) {
	if l.Title == "" || l.IndustryID <= 0 {
		return Listing{}, ErrInvalidListing
	}
	return s.repo.Update(id, ownerID, l)
}

func (s *Service) Delete(id int, ownerID int) error {
	return s.repo.Delete(id, ownerID)
}

func (s *Service) SetPublished(id int, ownerID int, published bool) error {
	return s.repo.SetPublished(id, ownerID, published)
}

func (s *Service) SetLocation(id int, ownerID int, lat, lon float64) error {
	return s.repo.SetLocation(id, ownerID, lat, lon)
}

func (s *Service) SetPlans(id int, ownerID int, plans []Plan) error {
	for _, p := range plans {
		if p.Name == "" || p.Price < 0 {
			return ErrInvalidListing
		}
	}
	return s.repo.SetPlans(id, ownerID, plans)
}

func (s *Service) AddImage(id int, ownerID int, path string) error {
	return s.repo.AddImage(id, ownerID, path)
}

// normalizeTerm applies the form-encoded conventions to a free-text term:
// percent-decoding followed by the `+`-means-space substitution.
func normalizeTerm(term string) string {
	if decoded, err := url.QueryUnescape(term); err == nil {
		term = decoded
	}
	term = strings.ReplaceAll(term, "+", " ")
	return strings.TrimSpace(term)
}

// fingerprint hashes the material parts of a filter. The resume position and
// page size are deliberately excluded: they vary between pages of the same
// query.
func fingerprint(f SearchFilter) string {
	ids := make([]int, len(f.IndustryIDs))
	copy(ids, f.IndustryIDs)
	sort.Ints(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "term=%s|industries=%v|owner=%d|published=%t", strings.ToLower(f.Term), ids, f.OwnerID, f.PublishedOnly)
	if f.Geo != nil {
		fmt.Fprintf(&b, "|geo=%.4f,%.4f,%.1f", f.Geo.Lat, f.Geo.Lon, f.RadiusKM)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}
