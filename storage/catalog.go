package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sahilm/fuzzy"
	_ "modernc.org/sqlite"
)

const (
	catalogFile      = "catalog.db"
	catalogCacheSize = 128
	maxSuggestions   = 3
)

var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset is one entry of the catalog a chat session can be opened over
type Dataset struct {
	ID          string
	Name        string
	DisplayName string
	Description string
	RecordCount int
	LastUpdated time.Time
}

// Title returns the display name, falling back to the id
func (d Dataset) Title() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.ID
}

var seedDatasets = []Dataset{
	{
		ID:          "zomato",
		Name:        "zomato",
		DisplayName: "Zomato",
		Description: "Restaurant and food delivery data",
		RecordCount: 15420,
		LastUpdated: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	},
	{
		ID:          "paytm",
		Name:        "paytm",
		DisplayName: "Paytm",
		Description: "Digital payment and transaction data",
		RecordCount: 89530,
		LastUpdated: time.Date(2024, time.January, 14, 0, 0, 0, 0, time.UTC),
	},
}

type Catalog struct {
	db    *sql.DB
	cache *lru.Cache[string, Dataset]
}

func NewCatalog(dataDir string) (*Catalog, error) {
	dbPath := filepath.Join(dataDir, catalogFile)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cache, err := lru.New[string, Dataset](catalogCacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}

	catalog := &Catalog{db: db, cache: cache}

	if err := catalog.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return catalog, nil
}

func (c *Catalog) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		display_name TEXT NOT NULL,
		description TEXT NOT NULL,
		record_count INTEGER NOT NULL DEFAULT 0,
		last_updated DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_datasets_name ON datasets(name);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return err
	}

	for _, ds := range seedDatasets {
		_, err := c.db.Exec(`
		INSERT OR IGNORE INTO datasets (id, name, display_name, description, record_count, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		`, ds.ID, ds.Name, ds.DisplayName, ds.Description, ds.RecordCount, ds.LastUpdated)
		if err != nil {
			return fmt.Errorf("failed to seed dataset %s: %w", ds.ID, err)
		}
	}

	return nil
}

func (c *Catalog) List() ([]Dataset, error) {
	query := `
	SELECT id, name, display_name, description, record_count, last_updated
	FROM datasets
	ORDER BY display_name COLLATE NOCASE
	`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []Dataset
	for rows.Next() {
		var ds Dataset
		err := rows.Scan(
			&ds.ID,
			&ds.Name,
			&ds.DisplayName,
			&ds.Description,
			&ds.RecordCount,
			&ds.LastUpdated,
		)
		if err != nil {
			continue
		}
		datasets = append(datasets, ds)
	}

	return datasets, rows.Err()
}

// Get returns the dataset with the given id or ErrDatasetNotFound
func (c *Catalog) Get(id string) (*Dataset, error) {
	if ds, ok := c.cache.Get(id); ok {
		return &ds, nil
	}

	query := `
	SELECT id, name, display_name, description, record_count, last_updated
	FROM datasets
	WHERE id = ?
	`

	var ds Dataset
	err := c.db.QueryRow(query, id).Scan(
		&ds.ID,
		&ds.Name,
		&ds.DisplayName,
		&ds.Description,
		&ds.RecordCount,
		&ds.LastUpdated,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", ErrDatasetNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	c.cache.Add(id, ds)
	return &ds, nil
}

// Add registers a user supplied dataset. Missing fields get the same
// defaults the upload flow used: a custom-<unix> id and a generic description.
func (c *Catalog) Add(ds Dataset) (*Dataset, error) {
	now := time.Now()
	if ds.ID == "" {
		ds.ID = fmt.Sprintf("custom-%d", now.Unix())
	}
	if ds.Name == "" {
		ds.Name = ds.ID
	}
	if ds.DisplayName == "" {
		ds.DisplayName = ds.Name
	}
	if ds.Description == "" {
		ds.Description = "Custom uploaded dataset"
	}
	if ds.LastUpdated.IsZero() {
		ds.LastUpdated = now.UTC().Truncate(24 * time.Hour)
	}

	_, err := c.db.Exec(`
	INSERT INTO datasets (id, name, display_name, description, record_count, last_updated)
	VALUES (?, ?, ?, ?, ?, ?)
	`, ds.ID, ds.Name, ds.DisplayName, ds.Description, ds.RecordCount, ds.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("failed to add dataset %s: %w", ds.ID, err)
	}

	c.cache.Add(ds.ID, ds)
	return &ds, nil
}

// Suggest returns up to three dataset ids that fuzzily match id.
func (c *Catalog) Suggest(id string) []string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	datasets, err := c.List()
	if err != nil {
		return nil
	}

	// Match against both the id and the display name of every entry
	targets := make([]string, 0, len(datasets)*2)
	owners := make([]string, 0, len(datasets)*2)
	for _, ds := range datasets {
		targets = append(targets, ds.ID, ds.DisplayName)
		owners = append(owners, ds.ID, ds.ID)
	}

	var suggestions []string
	seen := make(map[string]bool)
	for _, match := range fuzzy.Find(id, targets) {
		owner := owners[match.Index]
		if seen[owner] {
			continue
		}
		seen[owner] = true
		suggestions = append(suggestions, owner)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}

func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
