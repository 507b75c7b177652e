package catalog

import (
	"fmt"
	"testing"

	"github.com/wichananm65/service-market-backend/internal/cursor"
)

type prefsStub struct {
	ids []int
	err error
}

func (p *prefsStub) SelectedIndustryIDs(userID int) ([]int, error) {
	return p.ids, p.err
}

func seedListings(n int) []Listing {
	out := make([]Listing, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Listing{
			ID:          i,
			OwnerID:     1 + i%3,
			Title:       fmt.Sprintf("House painting crew %d", i),
			Description: "interior and exterior painting",
			IndustryID:  1 + i%3,
			Published:   true,
		})
	}
	return out
}

func TestSearchRejectsEmptyScope(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedListings(5)), &prefsStub{})

	if _, err := svc.SearchGuest(SearchRequest{}); err != ErrEmptyServiceIndustries {
		t.Fatalf("expected ErrEmptyServiceIndustries, got %v", err)
	}
	// a user with no selected industries and no term is rejected the same way
	if _, err := svc.SearchForUser(9, SearchRequest{}); err != ErrEmptyServiceIndustries {
		t.Fatalf("expected ErrEmptyServiceIndustries, got %v", err)
	}
}

func TestSearchDerivesIndustriesFromPreferences(t *testing.T) {
	repo := NewInMemoryRepository(seedListings(9))
	svc := NewService(repo, &prefsStub{ids: []int{2}})

	// industries in the request body must be ignored for the user variant
	result, err := svc.SearchForUser(9, SearchRequest{IndustryIDs: []int{1, 3}})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(result.Items) == 0 {
		t.Fatal("expected matches for industry 2")
	}
	for _, l := range result.Items {
		if l.IndustryID != 2 {
			t.Fatalf("industry scope not derived from preferences: got industry %d", l.IndustryID)
		}
	}
}

func TestSearchTermNormalization(t *testing.T) {
	repo := NewInMemoryRepository([]Listing{
		{ID: 1, OwnerID: 1, Title: "Deep Clean Pros", Description: "full home cleaning", IndustryID: 1, Published: true},
		{ID: 2, OwnerID: 1, Title: "Gardening", Description: "lawn care", IndustryID: 1, Published: true},
	})
	svc := NewService(repo, &prefsStub{})

	// "deep+clean" arrives form-encoded; matching is case-insensitive
	result, err := svc.SearchGuest(SearchRequest{Term: "deep+clean"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].ID != 1 {
		t.Fatalf("expected only the cleaning listing, got %+v", result.Items)
	}
}

func TestPaginationIsCompleteAndDuplicateFree(t *testing.T) {
	const total = 25
	repo := NewInMemoryRepository(seedListings(total))
	svc := NewService(repo, &prefsStub{})

	full, err := svc.SearchGuest(SearchRequest{IndustryIDs: []int{1, 2, 3}, PageSize: total + 1})
	if err != nil {
		t.Fatalf("unpaginated query failed: %v", err)
	}
	if full.NextCursor != nil {
		t.Fatal("unpaginated query should have no next cursor")
	}

	for _, pageSize := range []int{1, 3, 7, 20} {
		seen := map[int]bool{}
		tok := ""
		pages := 0
		for {
			result, err := svc.SearchGuest(SearchRequest{IndustryIDs: []int{1, 2, 3}, PageSize: pageSize, Cursor: tok})
			if err != nil {
				t.Fatalf("pageSize=%d page %d failed: %v", pageSize, pages, err)
			}
			for _, l := range result.Items {
				if seen[l.ID] {
					t.Fatalf("pageSize=%d: duplicate service %d", pageSize, l.ID)
				}
				seen[l.ID] = true
			}
			if result.NextCursor == nil {
				break
			}
			if len(result.Items) != pageSize {
				t.Fatalf("pageSize=%d: non-final page has %d items", pageSize, len(result.Items))
			}
			tok = *result.NextCursor
			pages++
			if pages > total {
				t.Fatalf("pageSize=%d: pagination did not terminate", pageSize)
			}
		}
		if len(seen) != len(full.Items) {
			t.Fatalf("pageSize=%d: paged walk saw %d items, unpaginated saw %d", pageSize, len(seen), len(full.Items))
		}
	}
}

func TestLookaheadEndsExactBoundary(t *testing.T) {
	// 20 rows with the default page size of 20: the page is full but there is
	// no more data, so the cursor must be absent.
	repo := NewInMemoryRepository(seedListings(DefaultPageSize))
	svc := NewService(repo, &prefsStub{})

	result, err := svc.SearchGuest(SearchRequest{IndustryIDs: []int{1, 2, 3}})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(result.Items) != DefaultPageSize {
		t.Fatalf("expected a full page, got %d items", len(result.Items))
	}
	if result.NextCursor != nil {
		t.Fatal("full-but-final page must not carry a next cursor")
	}
}

func TestCursorIsScopedToItsFilter(t *testing.T) {
	repo := NewInMemoryRepository(seedListings(30))
	svc := NewService(repo, &prefsStub{})

	first, err := svc.SearchGuest(SearchRequest{IndustryIDs: []int{1, 2, 3}, PageSize: 5})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if first.NextCursor == nil {
		t.Fatal("expected a next cursor")
	}

	// replaying the cursor against a different industry set must fail
	_, err = svc.SearchGuest(SearchRequest{IndustryIDs: []int{2}, PageSize: 5, Cursor: *first.NextCursor})
	if err != cursor.ErrInvalidCursor {
		t.Fatalf("expected ErrInvalidCursor for mismatched filter, got %v", err)
	}

	// garbage tokens fail the same way
	_, err = svc.SearchGuest(SearchRequest{IndustryIDs: []int{1, 2, 3}, PageSize: 5, Cursor: "not-a-cursor"})
	if err != cursor.ErrInvalidCursor {
		t.Fatalf("expected ErrInvalidCursor for garbage token, got %v", err)
	}
}

func TestGuestSearchSeesOnlyPublished(t *testing.T) {
	listings := seedListings(6)
	listings[2].Published = false
	listings[4].Published = false
	repo := NewInMemoryRepository(listings)
	svc := NewService(repo, &prefsStub{})

	result, err := svc.SearchGuest(SearchRequest{IndustryIDs: []int{1, 2, 3}})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(result.Items) != 4 {
		t.Fatalf("expected 4 published listings, got %d", len(result.Items))
	}
	for _, l := range result.Items {
		if !l.Published {
			t.Fatalf("unpublished listing leaked: %+v", l)
		}
	}
}

func TestListOwnIncludesUnpublished(t *testing.T) {
	listings := seedListings(6) // owners cycle 2,3,1,2,3,1
	listings[5].Published = false
	repo := NewInMemoryRepository(listings)
	svc := NewService(repo, &prefsStub{})

	result, err := svc.ListOwn(1, SearchRequest{})
	if err != nil {
		t.Fatalf("ListOwn failed: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 own listings, got %d", len(result.Items))
	}
	for _, l := range result.Items {
		if l.OwnerID != 1 {
			t.Fatalf("foreign listing in own list: %+v", l)
		}
	}
}

func TestGeoFiltersAndReportsDistance(t *testing.T) {
	bangkok := GeoPoint{Lat: 13.7563, Lon: 100.5018}
	near, far := 13.76, 14.50
	repo := NewInMemoryRepository([]Listing{
		{ID: 1, OwnerID: 1, Title: "Near plumber", IndustryID: 1, Published: true, Lat: &near, Lon: &bangkok.Lon},
		{ID: 2, OwnerID: 1, Title: "Far plumber", IndustryID: 1, Published: true, Lat: &far, Lon: &bangkok.Lon},
		{ID: 3, OwnerID: 1, Title: "No location plumber", IndustryID: 1, Published: true},
	})
	svc := NewService(repo, &prefsStub{})

	result, err := svc.SearchGuest(SearchRequest{IndustryIDs: []int{1}, Geo: &bangkok, RadiusKM: 25})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].ID != 1 {
		t.Fatalf("expected only the nearby listing, got %+v", result.Items)
	}
	if result.Items[0].DistanceKM == nil || *result.Items[0].DistanceKM > 25 {
		t.Fatalf("expected a distance within the radius, got %+v", result.Items[0].DistanceKM)
	}

	// absence of geo must not error; it degrades to the plain query
	all, err := svc.SearchGuest(SearchRequest{IndustryIDs: []int{1}})
	if err != nil {
		t.Fatalf("non-geo search failed: %v", err)
	}
	if len(all.Items) != 3 {
		t.Fatalf("expected all 3 listings without geo, got %d", len(all.Items))
	}
}

func TestMutationsEnforceOwnership(t *testing.T) {
	repo := NewInMemoryRepository([]Listing{{ID: 1, OwnerID: 7, Title: "Tutoring", IndustryID: 3, Published: true}})
	svc := NewService(repo, &prefsStub{})

	if _, err := svc.Update(1, 8, Listing{Title: "Hijacked", IndustryID: 3}); err != ErrNotOwner {
		t.Fatalf("expected ErrNotOwner on update, got %v", err)
	}
	if err := svc.Delete(1, 8); err != ErrNotOwner {
		t.Fatalf("expected ErrNotOwner on delete, got %v", err)
	}
	if err := svc.Delete(99, 8); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing service, got %v", err)
	}
	if err := svc.Delete(1, 7); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
}
