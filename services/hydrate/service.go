package hydrate

import (
	"context"
	"database/sql"
	"time"

	"golang.org/x/sync/singleflight"

	"votolocal-backend/lib/restyutil"
	"votolocal-backend/lib/scrapers/tre"
	"votolocal-backend/lib/timezone"
	"votolocal-backend/services/hydrate/db"
)

// lookupClient is the slice of tre.Client the pipeline needs. Tests
// substitute scripted implementations.
type lookupClient interface {
	Lookup(ctx context.Context, subject tre.Subject) tre.Outcome
}

type Service struct {
	conn     *sql.DB
	qry      *db.Queries
	cache    *Cache
	pipeline PipelineConfig
	profile  tre.Profile
	flight   singleflight.Group

	clock     func() time.Time
	newClient func() (lookupClient, error)
}

func NewService(conn *sql.DB, cache *Cache, config Config) *Service {
	profile := config.Site.Apply(tre.DefaultProfile())

	var snapshots restyutil.InstrumentOutput
	if config.Diagnostics.Dir != "" {
		snapshots = restyutil.NewFilesystemOutput(config.Diagnostics.Dir)
	}
	var httpDump restyutil.InstrumentOutput
	if config.Diagnostics.HttpDumpDir != "" {
		httpDump = restyutil.NewFilesystemOutput(config.Diagnostics.HttpDumpDir)
	}

	return &Service{
		conn:     conn,
		qry:      db.New(conn),
		cache:    cache,
		pipeline: config.Pipeline.withDefaults(),
		profile:  profile,
		clock:    timezone.Now,
		newClient: func() (lookupClient, error) {
			return tre.NewClient(tre.ClientOptions{
				Profile:   profile,
				Snapshots: snapshots,
				HttpDump:  httpDump,
			})
		},
	}
}

// Lookup runs a single one-off lookup outside the batch pipeline,
// bypassing the record store but still consulting the cache.
func (s *Service) Lookup(ctx context.Context, subject tre.Subject) (tre.Outcome, error) {
	if record := s.cache.Get(ctx, subject.Key()); record != nil {
		return tre.Found(record), nil
	}
	client, err := s.newClient()
	if err != nil {
		return tre.Outcome{}, err
	}
	out := client.Lookup(ctx, subject)
	if out.Status == tre.StatusFound {
		s.cache.Put(ctx, subject.Key(), out.Record)
	}
	return out, nil
}
