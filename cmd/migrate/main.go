// Command migrate applies the BigQuery schema migrations for the transactions
// dataset. Applied versions are tracked in a schema_migrations table so the
// tool is safe to re-run.
package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"finview/internal/config"
	"finview/internal/logger"
)

// migration is a single versioned SQL file from the migrations directory.
type migration struct {
	Version  int
	Name     string
	SQL      string
	Checksum string
}

var filenamePattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

func main() {
	cfg := config.Load()

	var (
		projectID = flag.String("project", cfg.BQProjectID, "GCP project ID (or set BQ_PROJECT_ID)")
		datasetID = flag.String("dataset", cfg.BQDataset, "BigQuery dataset ID (or set BQ_DATASET)")
		dir       = flag.String("migrations", "migrations/bigquery", "Path to migrations directory")
		appliedBy = flag.String("applied-by", "migrate-cli", "Name recorded against applied migrations")
	)
	flag.Parse()

	log := logger.New(cfg.LogLevel)

	if *projectID == "" {
		log.Fatal().Msg("Project ID is required: pass -project or set BQ_PROJECT_ID")
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.BQCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.BQCredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, *projectID, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	m := &migrator{
		client:    client,
		projectID: *projectID,
		datasetID: *datasetID,
		appliedBy: *appliedBy,
		log:       log,
	}

	if err := m.run(ctx, *dir); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

type migrator struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	appliedBy string
	log       zerolog.Logger
}

func (m *migrator) run(ctx context.Context, dir string) error {
	m.log.Info().Str("project", m.projectID).Str("dataset", m.datasetID).Msg("Connected to BigQuery")

	if err := m.ensureVersionTable(ctx); err != nil {
		return fmt.Errorf("ensuring schema_migrations table: %w", err)
	}

	migrations, err := loadMigrations(dir, m.projectID, m.datasetID)
	if err != nil {
		return err
	}
	m.log.Info().Int("count", len(migrations)).Msg("Loaded migration files")

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	appliedCount := 0
	for _, mig := range migrations {
		if applied[mig.Version] {
			m.log.Debug().Str("migration", fmt.Sprintf("%04d_%s", mig.Version, mig.Name)).Msg("Already applied")
			continue
		}

		m.log.Info().Str("migration", fmt.Sprintf("%04d_%s", mig.Version, mig.Name)).Msg("Applying")
		if err := m.execute(ctx, mig.SQL); err != nil {
			return fmt.Errorf("executing %04d_%s: %w", mig.Version, mig.Name, err)
		}
		if err := m.record(ctx, mig); err != nil {
			return fmt.Errorf("recording %04d_%s: %w", mig.Version, mig.Name, err)
		}
		appliedCount++
	}

	if appliedCount == 0 {
		m.log.Info().Msg("No new migrations to apply")
	} else {
		m.log.Info().Int("applied", appliedCount).Msg("Migrations applied")
	}
	return nil
}

// loadMigrations reads every NNNN_name.sql file in dir, substitutes the
// project and dataset placeholders, and returns the set sorted by version.
// The checksum covers the original content so the same migration applied to
// different datasets compares equal.
func loadMigrations(dir, projectID, datasetID string) ([]migration, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []migration
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		matches := filenamePattern.FindStringSubmatch(file.Name())
		if matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file.Name(), err)
		}

		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", projectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)

		migrations = append(migrations, migration{
			Version:  version,
			Name:     matches[2],
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func (m *migrator) ensureVersionTable(ctx context.Context) error {
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS `+"`%s.%s.schema_migrations`"+` (
			version    INT64 NOT NULL,
			name       STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum   STRING,
			applied_by STRING
		)
	`, m.projectID, m.datasetID)
	return m.execute(ctx, sql)
}

func (m *migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	sql := fmt.Sprintf(`
		SELECT version
		FROM `+"`%s.%s.schema_migrations`"+`
		ORDER BY version ASC
	`, m.projectID, m.datasetID)

	it, err := m.client.Query(sql).Read(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "Not found") {
			return map[int]bool{}, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	applied := make(map[int]bool)
	for {
		var row struct {
			Version int64
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating applied migrations: %w", err)
		}
		applied[int(row.Version)] = true
	}
	return applied, nil
}

func (m *migrator) record(ctx context.Context, mig migration) error {
	q := m.client.Query(fmt.Sprintf(`
		INSERT INTO `+"`%s.%s.schema_migrations`"+`
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, m.projectID, m.datasetID))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: mig.Version},
		{Name: "name", Value: mig.Name},
		{Name: "checksum", Value: mig.Checksum},
		{Name: "applied_by", Value: m.appliedBy},
	}
	return m.runQuery(ctx, q)
}

func (m *migrator) execute(ctx context.Context, sql string) error {
	return m.runQuery(ctx, m.client.Query(sql))
}

func (m *migrator) runQuery(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
