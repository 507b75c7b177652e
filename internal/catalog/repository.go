package catalog

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
)

var (
	ErrNotFound = errors.New("service not found")
	ErrNotOwner = errors.New("service belongs to another user")
)

// Repository provides access to service listings. Search performs a one-row
// lookahead: the returned bool reports whether more rows exist beyond the
// requested page.
type Repository interface {
	Search(f SearchFilter) ([]Listing, bool, error)
	GetByID(id int) (Listing, error)
	Create(l Listing) (Listing, error)
	Update(id int, ownerID int, l Listing) (Listing, error)
	Delete(id int, ownerID int) error
	SetPublished(id int, ownerID int, published bool) error
	SetLocation(id int, ownerID int, lat, lon float64) error
	SetPlans(id int, ownerID int, plans []Plan) error
	AddImage(id int, ownerID int, path string) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Listing
	nextID  int
}

func NewInMemoryRepository(seed []Listing) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make([]Listing, 0, len(seed)),
		nextID:  1,
	}
	maxID := 0
	for _, l := range seed {
		r.storage = append(r.storage, l)
		if l.ID > maxID {
			maxID = l.ID
		}
	}
	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) Search(f SearchFilter) ([]Listing, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]Listing, 0)
	for _, l := range r.storage {
		if l.ID <= f.AfterID {
			continue
		}
		if f.OwnerID > 0 && l.OwnerID != f.OwnerID {
			continue
		}
		if f.PublishedOnly && !l.Published {
			continue
		}
		if len(f.IndustryIDs) > 0 && !containsInt(f.IndustryIDs, l.IndustryID) {
			continue
		}
		if f.Term != "" {
			term := strings.ToLower(f.Term)
			if !strings.Contains(strings.ToLower(l.Title), term) &&
				!strings.Contains(strings.ToLower(l.Description), term) {
				continue
			}
		}
		if f.Geo != nil {
			if l.Lat == nil || l.Lon == nil {
				continue
			}
			d := haversineKM(f.Geo.Lat, f.Geo.Lon, *l.Lat, *l.Lon)
			if f.RadiusKM > 0 && d > f.RadiusKM {
				continue
			}
			l.DistanceKM = &d
		}
		matched = append(matched, l)
	}

	// keyset ordering: the resume key must be a stable total order
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	hasMore := len(matched) > f.PageSize
	if hasMore {
		matched = matched[:f.PageSize]
	}
	return matched, hasMore, nil
}

func (r *InMemoryRepository) GetByID(id int) (Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.storage {
		if l.ID == id {
			return l, nil
		}
	}
	return Listing{}, ErrNotFound
}

func (r *InMemoryRepository) Create(l Listing) (Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == 0 {
		l.ID = r.nextID
		r.nextID++
	}
	r.storage = append(r.storage, l)
	return l, nil
}

func (r *InMemoryRepository) Update(id int, ownerID int, l Listing) (Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.indexOfOwned(id, ownerID)
	if err != nil {
		return Listing{}, err
	}
	l.ID = id
	l.OwnerID = ownerID
	l.Images = r.storage[i].Images
	r.storage[i] = l
	return l, nil
}

func (r *InMemoryRepository) Delete(id int, ownerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.indexOfOwned(id, ownerID)
	if err != nil {
		return err
	}
	r.storage = append(r.storage[:i], r.storage[i+1:]...)
	return nil
}

func (r *InMemoryRepository) SetPublished(id int, ownerID int, published bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.indexOfOwned(id, ownerID)
	if err != nil {
		return err
	}
	r.storage[i].Published = published
	return nil
}

func (r *InMemoryRepository) SetLocation(id int, ownerID int, lat, lon float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.indexOfOwned(id, ownerID)
	if err != nil {
		return err
	}
	r.storage[i].Lat = &lat
	r.storage[i].Lon = &lon
	return nil
}

func (r *InMemoryRepository) SetPlans(id int, ownerID int, plans []Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.indexOfOwned(id, ownerID)
	if err != nil {
		return err
	}
	r.storage[i].Plans = plans
	return nil
}

func (r *InMemoryRepository) AddImage(id int, ownerID int, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.indexOfOwned(id, ownerID)
	if err != nil {
		return err
	}
	r.storage[i].Images = append(r.storage[i].Images, path)
	return nil
}

func (r *InMemoryRepository) indexOfOwned(id, ownerID int) (int, error) {
	for i, l := range r.storage {
		if l.ID == id {
			if l.OwnerID != ownerID {
				return 0, ErrNotOwner
			}
			return i, nil
		}
	}
	return 0, ErrNotFound
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(a)))
}
