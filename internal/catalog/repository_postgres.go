package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const listingColumns = `s.service_id, s.owner_user_id, s.title, s.description, s.industry_id, s.published, s.lat, s.lon, s.plans, s.images, s.created_at, s.updated_at`

const (
	getListingQuery    = `SELECT ` + listingColumns + ` FROM services s WHERE s.service_id = $1`
	insertListingQuery = `
		INSERT INTO services (owner_user_id, title, description, industry_id, published, lat, lon, plans, images, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING service_id
	`
	updateListingQuery = `
		UPDATE services
		SET title = $1,
			description = $2,
			industry_id = $3,
			published = $4,
			updated_at = $5
		WHERE service_id = $6 AND owner_user_id = $7
	`
	deleteListingQuery = `DELETE FROM services WHERE service_id = $1 AND owner_user_id = $2`
	ownerOfQuery       = `SELECT owner_user_id FROM services WHERE service_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Search builds one keyset query from the filter. The page is ordered by
// service_id so repeated pagination never skips or duplicates rows, and one
// extra row is fetched to decide whether a next page exists. When a geo point
// is present the haversine distance is computed per row and used as a radius
// filter; the ordering key stays service_id so cursors remain stable.
func (r *PostgresRepository) Search(f SearchFilter) ([]Listing, bool, error) {
	args := make([]any, 0, 8)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	cols := listingColumns
	distExpr := ""
	if f.Geo != nil {
		latP := arg(f.Geo.Lat)
		lonP := arg(f.Geo.Lon)
		distExpr = fmt.Sprintf(
			"6371 * 2 * asin(least(1.0, sqrt(pow(sin(radians(s.lat - %s) / 2), 2) + cos(radians(%s)) * cos(radians(s.lat)) * pow(sin(radians(s.lon - %s) / 2), 2))))",
			latP, latP, lonP,
		)
		cols += ", " + distExpr + " AS distance_km"
	}

	where := []string{"s.service_id > " + arg(f.AfterID)}
	if f.OwnerID > 0 {
		where = append(where, "s.owner_user_id = "+arg(f.OwnerID))
	}
	if f.PublishedOnly {
		where = append(where, "s.published")
	}
	if len(f.IndustryIDs) > 0 {
		where = append(where, "s.industry_id = ANY("+arg(pq.Array(f.IndustryIDs))+"::int[])")
	}
	if f.Term != "" {
		p := arg("%" + f.Term + "%")
		where = append(where, "(s.title ILIKE "+p+" OR s.description ILIKE "+p+")")
	}
	if f.Geo != nil {
		where = append(where, "s.lat IS NOT NULL AND s.lon IS NOT NULL")
		if f.RadiusKM > 0 {
			where = append(where, distExpr+" <= "+arg(f.RadiusKM))
		}
	}

	q := "SELECT " + cols + " FROM services s WHERE " + strings.Join(where, " AND ") +
		" ORDER BY s.service_id LIMIT " + arg(f.PageSize+1)

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	out := make([]Listing, 0, f.PageSize)
	for rows.Next() {
		l, err := scanListing(rows, f.Geo != nil)
		if err != nil {
			return nil, false, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := len(out) > f.PageSize
	if hasMore {
		out = out[:f.PageSize]
	}
	return out, hasMore, nil
}

func (r *PostgresRepository) GetByID(id int) (Listing, error) {
	l, err := scanListing(r.db.QueryRow(getListingQuery, id), false)
	if err != nil {
		if err == sql.ErrNoRows {
			return Listing{}, ErrNotFound
		}
		return Listing{}, err
	}
	return l, nil
}

func (r *PostgresRepository) Create(l Listing) (Listing, error) {
	plans, err := json.Marshal(l.Plans)
	if err != nil {
		return Listing{}, err
	}
	images := l.Images
	if images == nil {
		images = []string{}
	}

	var id int
	err = r.db.QueryRow(
		insertListingQuery,
		l.OwnerID,
		l.Title,
		l.Description,
		l.IndustryID,
		l.Published,
		l.Lat,
		l.Lon,
		string(plans),
		pq.Array(images),
		l.CreatedAt,
		l.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return Listing{}, err
	}
	l.ID = id
	return l, nil
}

func (r *PostgresRepository) Update(id int, ownerID int, l Listing) (Listing, error) {
	result, err := r.db.Exec(updateListingQuery, l.Title, l.Description, l.IndustryID, l.Published, l.UpdatedAt, id, ownerID)
	if err != nil {
		return Listing{}, err
	}
	if err := r.checkOwned(result, id); err != nil {
		return Listing{}, err
	}
	return r.GetByID(id)
}

func (r *PostgresRepository) Delete(id int, ownerID int) error {
	result, err := r.db.Exec(deleteListingQuery, id, ownerID)
	if err != nil {
		return err
	}
	return r.checkOwned(result, id)
}

func (r *PostgresRepository) SetPublished(id int, ownerID int, published bool) error {
	result, err := r.db.Exec(`UPDATE services SET published = $1 WHERE service_id = $2 AND owner_user_id = $3`, published, id, ownerID)
	if err != nil {
		return err
	}
	return r.checkOwned(result, id)
}

func (r *PostgresRepository) SetLocation(id int, ownerID int, lat, lon float64) error {
	result, err := r.db.Exec(`UPDATE services SET lat = $1, lon = $2 WHERE service_id = $3 AND owner_user_id = $4`, lat, lon, id, ownerID)
	if err != nil {
		return err
	}
	return r.checkOwned(result, id)
}

func (r *PostgresRepository) SetPlans(id int, ownerID int, plans []Plan) error {
	b, err := json.Marshal(plans)
	if err != nil {
		return err
	}
	result, err := r.db.Exec(`UPDATE services SET plans = $1 WHERE service_id = $2 AND owner_user_id = $3`, string(b), id, ownerID)
	if err != nil {
		return err
	}
	return r.checkOwned(result, id)
}

func (r *PostgresRepository) AddImage(id int, ownerID int, path string) error {
	result, err := r.db.Exec(`UPDATE services SET images = array_append(coalesce(images, ARRAY[]::text[]), $1) WHERE service_id = $2 AND owner_user_id = $3`, path, id, ownerID)
	if err != nil {
		return err
	}
	return r.checkOwned(result, id)
}

// checkOwned distinguishes "row missing" from "row owned by someone else"
// after a mutation matched zero rows.
func (r *PostgresRepository) checkOwned(result sql.Result, id int) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var owner int
	if err := r.db.QueryRow(ownerOfQuery, id).Scan(&owner); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	return ErrNotOwner
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(scanner rowScanner, withDistance bool) (Listing, error) {
	l := Listing{}
	var (
		lat       sql.NullFloat64
		lon       sql.NullFloat64
		plansRaw  []byte
		images    pq.StringArray
		createdAt sql.NullString
		updatedAt sql.NullString
		distance  sql.NullFloat64
	)

	dest := []any{
		&l.ID,
		&l.OwnerID,
		&l.Title,
		&l.Description,
		&l.IndustryID,
		&l.Published,
		&lat,
		&lon,
		&plansRaw,
		&images,
		&createdAt,
		&updatedAt,
	}
	if withDistance {
		dest = append(dest, &distance)
	}
	if err := scanner.Scan(dest...); err != nil {
		return Listing{}, err
	}

	if lat.Valid {
		l.Lat = &lat.Float64
	}
	if lon.Valid {
		l.Lon = &lon.Float64
	}
	if len(plansRaw) > 0 {
		if err := json.Unmarshal(plansRaw, &l.Plans); err != nil {
			return Listing{}, err
		}
	}
	if len(images) > 0 {
		l.Images = []string(images)
	}
	if createdAt.Valid {
		l.CreatedAt = &createdAt.String
	}
	if updatedAt.Valid {
		l.UpdatedAt = &updatedAt.String
	}
	if distance.Valid {
		l.DistanceKM = &distance.Float64
	}
	return l, nil
}
