package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Person struct {
	ID         int64
	Name       string
	BirthDate  string
	MotherName string
	CityID     int64
	Hydrate    bool
}

const listBacklogPage = `
SELECT id, name, birth_date, mother_name, city_id, hydrate
FROM people
WHERE city_id = ? AND hydrate = 1
ORDER BY id
LIMIT ? OFFSET ?
`

type ListBacklogPageParams struct {
	CityID int64
	Limit  int64
	Offset int64
}

// ListBacklogPage returns one page of people still needing enrichment.
// Ordered by id but not stable across pages: rows that get hydrated
// mid-run drop out of the predicate.
func (q *Queries) ListBacklogPage(ctx context.Context, arg ListBacklogPageParams) ([]Person, error) {
	rows, err := q.db.QueryContext(ctx, listBacklogPage, arg.CityID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.BirthDate, &p.MotherName, &p.CityID, &p.Hydrate); err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

const createPerson = `
INSERT INTO people (name, birth_date, mother_name, city_id, hydrate)
VALUES (?, ?, ?, ?, ?)
`

type CreatePersonParams struct {
	Name       string
	BirthDate  string
	MotherName string
	CityID     int64
	Hydrate    bool
}

func (q *Queries) CreatePerson(ctx context.Context, arg CreatePersonParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createPerson, arg.Name, arg.BirthDate, arg.MotherName, arg.CityID, arg.Hydrate)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const markPersonHydrated = `
UPDATE people SET hydrate = 0 WHERE id = ?
`

func (q *Queries) MarkPersonHydrated(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markPersonHydrated, id)
	return err
}

const getPerson = `
SELECT id, name, birth_date, mother_name, city_id, hydrate
FROM people WHERE id = ?
`

func (q *Queries) GetPerson(ctx context.Context, id int64) (Person, error) {
	var p Person
	err := q.db.QueryRowContext(ctx, getPerson, id).
		Scan(&p.ID, &p.Name, &p.BirthDate, &p.MotherName, &p.CityID, &p.Hydrate)
	return p, err
}

const upsertVoterLocation = `
INSERT INTO voter_locations (
	person_id, enrollment, zone, section, polling_place,
	address, municipality, neighborhood, country, biometrics, updated_at
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (person_id) DO UPDATE SET
	enrollment = excluded.enrollment,
	zone = excluded.zone,
	section = excluded.section,
	polling_place = excluded.polling_place,
	address = excluded.address,
	municipality = excluded.municipality,
	neighborhood = excluded.neighborhood,
	country = excluded.country,
	biometrics = excluded.biometrics,
	updated_at = excluded.updated_at
`

type UpsertVoterLocationParams struct {
	PersonID     int64
	Enrollment   string
	Zone         string
	Section      string
	PollingPlace string
	Address      string
	Municipality string
	Neighborhood string
	Country      string
	Biometrics   bool
	UpdatedAt    int64
}

// UpsertVoterLocation is safe to repeat for the same person id, retries
// converge on the same row.
func (q *Queries) UpsertVoterLocation(ctx context.Context, arg UpsertVoterLocationParams) error {
	_, err := q.db.ExecContext(
		ctx, upsertVoterLocation,
		arg.PersonID, arg.Enrollment, arg.Zone, arg.Section, arg.PollingPlace,
		arg.Address, arg.Municipality, arg.Neighborhood, arg.Country, arg.Biometrics, arg.UpdatedAt,
	)
	return err
}

type VoterLocation struct {
	PersonID     int64
	Enrollment   string
	Zone         string
	Section      string
	PollingPlace string
	Address      string
	Municipality string
	Neighborhood string
	Country      string
	Biometrics   bool
	UpdatedAt    int64
}

const getVoterLocation = `
SELECT person_id, enrollment, zone, section, polling_place,
	address, municipality, neighborhood, country, biometrics, updated_at
FROM voter_locations WHERE person_id = ?
`

func (q *Queries) GetVoterLocation(ctx context.Context, personID int64) (VoterLocation, error) {
	var v VoterLocation
	err := q.db.QueryRowContext(ctx, getVoterLocation, personID).Scan(
		&v.PersonID, &v.Enrollment, &v.Zone, &v.Section, &v.PollingPlace,
		&v.Address, &v.Municipality, &v.Neighborhood, &v.Country, &v.Biometrics, &v.UpdatedAt,
	)
	return v, err
}
