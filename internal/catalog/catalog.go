// Package catalog stores photometric files in a sqlite database.
//
// Only the LDT or IES text as added is persisted; the summary columns next to
// it are derived from the parsed model when a file is added and exist so that
// List can filter without reparsing every body.
package catalog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/photometric/internal/engine"
	"github.com/banshee-data/photometric/internal/eulumdat"
	"github.com/banshee-data/photometric/internal/fsutil"
	"github.com/banshee-data/photometric/internal/ies"
	"github.com/banshee-data/photometric/internal/monitoring"
	"github.com/banshee-data/photometric/internal/photometry"
	"github.com/banshee-data/photometric/internal/security"
	"github.com/banshee-data/photometric/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var logf = monitoring.Component("catalog")

var (
	// ErrNotFound is returned when no entry has the requested id.
	ErrNotFound = errors.New("catalog entry not found")
	// ErrDuplicate is returned by Add when identical text is already stored.
	ErrDuplicate = errors.New("photometric file already in catalog")
)

// Entry is one stored file. Body is only filled by Get.
type Entry struct {
	ID                uuid.UUID `json:"id"`
	SourceName        string    `json:"source_name"`
	Format            string    `json:"format"`
	LuminaireName     string    `json:"luminaire_name"`
	LuminaireNumber   string    `json:"luminaire_number"`
	Symmetry          int       `json:"symmetry"`
	NumCPlanes        int       `json:"num_c_planes"`
	NumGPlanes        int       `json:"num_g_planes"`
	MaxIntensity      float64   `json:"max_intensity"`
	TotalLuminousFlux float64   `json:"total_luminous_flux"`
	TotalWattage      float64   `json:"total_wattage"`
	Checksum          string    `json:"checksum"`
	AddedAt           time.Time `json:"added_at"`
	Body              string    `json:"body,omitempty"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	// Query is matched case-insensitively against the source name, the
	// luminaire name and the luminaire number.
	Query  string
	Format string
	Limit  int
}

// Catalog is a handle to an open catalog database.
type Catalog struct {
	db    *sql.DB
	clock timeutil.Clock
	fs    fsutil.FileSystem
}

// Open opens or creates the catalog at path and brings its schema up to date.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps the pragmas below in force for every statement.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	c := &Catalog{db: db, clock: timeutil.RealClock{}, fs: fsutil.OSFileSystem{}}
	if err := c.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// SetClock replaces the clock used to stamp new entries.
func (c *Catalog) SetClock(clock timeutil.Clock) {
	c.clock = clock
}

// SetFileSystem replaces the file system Export writes through.
func (c *Catalog) SetFileSystem(fsys fsutil.FileSystem) {
	c.fs = fsys
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(c.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// MigrateUp applies any pending schema migrations.
func (c *Catalog) MigrateUp() error {
	m, err := c.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed: that would close c.db as well.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version and whether the last
// migration failed half way.
func (c *Catalog) SchemaVersion() (version uint, dirty bool, err error) {
	m, err := c.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

func parseAs(format, text string) (*photometry.Luminaire, error) {
	switch format {
	case eulumdat.Format:
		return eulumdat.Parse(text)
	case ies.Format:
		return ies.Parse(text)
	}
	return nil, fmt.Errorf("%w: %q", engine.ErrUnknownFormat, format)
}

func sourceName(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}

func checksum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Add parses text, detecting its format from name and content, and stores
// it. Text that does not parse is rejected with the parser's error.
func (c *Catalog) Add(ctx context.Context, name, text string) (Entry, error) {
	format, err := engine.DetectFormat(name, text)
	if err != nil {
		return Entry{}, err
	}
	l, err := parseAs(format, text)
	if err != nil {
		return Entry{}, err
	}

	sum := checksum(text)
	var existing string
	err = c.db.QueryRowContext(ctx, `SELECT id FROM luminaires WHERE checksum = ? LIMIT 1`, sum).Scan(&existing)
	switch {
	case err == nil:
		return Entry{}, fmt.Errorf("%w as %s", ErrDuplicate, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return Entry{}, err
	}

	info := l.Info()
	e := Entry{
		ID:                uuid.New(),
		SourceName:        sourceName(name),
		Format:            format,
		LuminaireName:     info.LuminaireName,
		LuminaireNumber:   info.LuminaireNumber,
		Symmetry:          info.Symmetry,
		NumCPlanes:        info.NumCPlanes,
		NumGPlanes:        info.NumGPlanes,
		MaxIntensity:      info.MaxIntensity,
		TotalLuminousFlux: info.TotalLuminousFlux,
		TotalWattage:      info.TotalWattage,
		Checksum:          sum,
		AddedAt:           c.clock.Now().UTC(),
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO luminaires (
			id, source_name, format, luminaire_name, luminaire_number,
			symmetry, num_c_planes, num_g_planes, max_intensity,
			total_luminous_flux, total_wattage, body, added_at_ns, checksum
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.SourceName, e.Format, e.LuminaireName, e.LuminaireNumber,
		e.Symmetry, e.NumCPlanes, e.NumGPlanes, e.MaxIntensity,
		e.TotalLuminousFlux, e.TotalWattage, text, e.AddedAt.UnixNano(), e.Checksum,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to insert luminaire: %w", err)
	}
	logf("added %s (%s, %s)", e.ID, e.Format, e.LuminaireName)
	return e, nil
}

const entryColumns = `id, source_name, format, luminaire_name, luminaire_number,
	symmetry, num_c_planes, num_g_planes, max_intensity,
	total_luminous_flux, total_wattage, checksum, added_at_ns`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner, extra ...any) (Entry, error) {
	var (
		e     Entry
		id    string
		added int64
	)
	dest := append([]any{
		&id, &e.SourceName, &e.Format, &e.LuminaireName, &e.LuminaireNumber,
		&e.Symmetry, &e.NumCPlanes, &e.NumGPlanes, &e.MaxIntensity,
		&e.TotalLuminousFlux, &e.TotalWattage, &e.Checksum, &added,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return Entry{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Entry{}, fmt.Errorf("stored id %q: %w", id, err)
	}
	e.ID = parsed
	e.AddedAt = time.Unix(0, added).UTC()
	return e, nil
}

// Get returns the entry with its stored text.
func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+entryColumns+`, body FROM luminaires WHERE id = ?`, id.String())
	var body string
	e, err := scanEntry(row, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, err
	}
	e.Body = body
	return e, nil
}

// List returns matching entries in the order they were added.
func (c *Catalog) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where = append(where, `(lower(source_name) LIKE ? OR lower(luminaire_name) LIKE ? OR lower(luminaire_number) LIKE ?)`)
		args = append(args, like, like, like)
	}
	if f.Format != "" {
		where = append(where, `format = ?`)
		args = append(args, strings.ToUpper(f.Format))
	}

	query := `SELECT ` + entryColumns + ` FROM luminaires`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY added_at_ns, rowid`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes an entry.
func (c *Catalog) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM luminaires WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	logf("deleted %s", id)
	return nil
}

// Luminaire parses the stored text of an entry.
func (c *Catalog) Luminaire(ctx context.Context, id uuid.UUID) (*photometry.Luminaire, Entry, error) {
	e, err := c.Get(ctx, id)
	if err != nil {
		return nil, Entry{}, err
	}
	l, err := parseAs(e.Format, e.Body)
	if err != nil {
		return nil, Entry{}, fmt.Errorf("stored entry %s: %w", id, err)
	}
	return l, e, nil
}

// Load parses an entry into the arena and returns its handle.
func (c *Catalog) Load(ctx context.Context, a *engine.Arena, id uuid.UUID) (engine.Handle, error) {
	l, e, err := c.Luminaire(ctx, id)
	if err != nil {
		return engine.Handle{}, err
	}
	return a.Adopt(l, e.Format, e.SourceName)
}

// Export writes an entry into dir and returns the written path. An empty
// format writes the stored text unchanged; otherwise the model is converted
// to eulumdat.Format or ies.Format. dir is created if needed.
func (c *Catalog) Export(ctx context.Context, id uuid.UUID, dir, format string) (string, error) {
	l, e, err := c.Luminaire(ctx, id)
	if err != nil {
		return "", err
	}

	target := strings.ToUpper(format)
	if target == "" {
		target = e.Format
	}
	var body, ext string
	switch target {
	case eulumdat.Format:
		body, ext = eulumdat.Export(l), ".ldt"
	case ies.Format:
		body, ext = ies.Export(l), ".ies"
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if target == e.Format {
		body = e.Body
	}

	stem := e.LuminaireName
	if stem == "" {
		stem = strings.TrimSuffix(e.SourceName, filepath.Ext(e.SourceName))
	}
	name := security.SanitizeFilename(stem) + "_" + e.ID.String()[:8] + ext

	if err := c.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path, err := security.JoinWithin(dir, name)
	if err != nil {
		return "", err
	}
	// Symlinks only exist on disk.
	if _, onDisk := c.fs.(fsutil.OSFileSystem); onDisk {
		if err := security.ValidatePathWithinDirectory(path, dir); err != nil {
			return "", err
		}
	}
	if err := c.fs.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	logf("exported %s to %s", id, path)
	return path, nil
}
