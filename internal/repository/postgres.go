package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"estateflow/internal/model"
	"estateflow/internal/storage"
)

// PostgresRepository handles database operations. It serves both as the
// durable key-value store behind the collections and as a catalog source.
type PostgresRepository struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS properties (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	price       DOUBLE PRECISION NOT NULL,
	location    TEXT NOT NULL,
	bedrooms    INTEGER NOT NULL DEFAULT 0,
	bathrooms   INTEGER NOT NULL DEFAULT 0,
	sqft        INTEGER NOT NULL DEFAULT 0,
	year_built  INTEGER NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	amenities   TEXT[] NOT NULL DEFAULT '{}',
	type        TEXT NOT NULL,
	status      TEXT NOT NULL,
	image_url   TEXT NOT NULL DEFAULT '',
	images      TEXT[] NOT NULL DEFAULT '{}',
	agent_name  TEXT NOT NULL DEFAULT '',
	agent_phone TEXT NOT NULL DEFAULT '',
	agent_image TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const propertyColumns = `
	id, title, price, location, bedrooms, bathrooms, sqft, year_built,
	description, amenities, type, status, image_url, images,
	agent_name, agent_phone, agent_image`

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the kv_store and properties tables if missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Get reads a value from kv_store.
func (r *PostgresRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value, `SELECT value FROM kv_store WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a value into kv_store.
func (r *PostgresRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

// Delete removes a key from kv_store. Missing keys are not an error.
func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

var _ storage.Storage = (*PostgresRepository)(nil)

// propertyRow is the properties table layout.
type propertyRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Price       float64        `db:"price"`
	Location    string         `db:"location"`
	Bedrooms    int            `db:"bedrooms"`
	Bathrooms   int            `db:"bathrooms"`
	Sqft        int            `db:"sqft"`
	YearBuilt   int            `db:"year_built"`
	Description string         `db:"description"`
	Amenities   pq.StringArray `db:"amenities"`
	Type        string         `db:"type"`
	Status      string         `db:"status"`
	ImageURL    string         `db:"image_url"`
	Images      pq.StringArray `db:"images"`
	AgentName   string         `db:"agent_name"`
	AgentPhone  string         `db:"agent_phone"`
	AgentImage  string         `db:"agent_image"`
}

func (row propertyRow) toProperty() model.Property {
	return model.Property{
		ID:          row.ID,
		Title:       row.Title,
		Price:       row.Price,
		Location:    row.Location,
		Bedrooms:    row.Bedrooms,
		Bathrooms:   row.Bathrooms,
		Sqft:        row.Sqft,
		YearBuilt:   row.YearBuilt,
		Description: row.Description,
		Amenities:   nonNil(row.Amenities),
		Type:        model.PropertyType(row.Type),
		Status:      model.ListingStatus(row.Status),
		ImageURL:    row.ImageURL,
		Images:      nonNil(row.Images),
		Agent: model.Agent{
			Name:  row.AgentName,
			Phone: row.AgentPhone,
			Image: row.AgentImage,
		},
	}
}

func rowFromProperty(p model.Property) propertyRow {
	return propertyRow{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Location:    p.Location,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		Sqft:        p.Sqft,
		YearBuilt:   p.YearBuilt,
		Description: p.Description,
		Amenities:   pq.StringArray(nonNil(p.Amenities)),
		Type:        string(p.Type),
		Status:      string(p.Status),
		ImageURL:    p.ImageURL,
		Images:      pq.StringArray(nonNil(p.Images)),
		AgentName:   p.Agent.Name,
		AgentPhone:  p.Agent.Phone,
		AgentImage:  p.Agent.Image,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// FetchCatalog loads every property, oldest first.
func (r *PostgresRepository) FetchCatalog(ctx context.Context) ([]model.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties ORDER BY created_at, id`, propertyColumns)

	var rows []propertyRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to fetch properties: %w", err)
	}

	properties := make([]model.Property, len(rows))
	for i, row := range rows {
		properties[i] = row.toProperty()
	}
	return properties, nil
}

// GetPropertyByID retrieves a single property. A missing id yields nil, nil.
func (r *PostgresRepository) GetPropertyByID(ctx context.Context, id string) (*model.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE id = $1`, propertyColumns)

	var row propertyRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	p := row.toProperty()
	return &p, nil
}

// CountProperties returns the number of stored properties.
func (r *PostgresRepository) CountProperties(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM properties`); err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return total, nil
}

// UpsertProperties writes properties in one transaction and returns how many
// were stored.
func (r *PostgresRepository) UpsertProperties(ctx context.Context, properties []model.Property) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO properties (`+propertyColumns+`)
		VALUES (
			:id, :title, :price, :location, :bedrooms, :bathrooms, :sqft, :year_built,
			:description, :amenities, :type, :status, :image_url, :images,
			:agent_name, :agent_phone, :agent_image
		)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			location = EXCLUDED.location,
			bedrooms = EXCLUDED.bedrooms,
			bathrooms = EXCLUDED.bathrooms,
			sqft = EXCLUDED.sqft,
			year_built = EXCLUDED.year_built,
			description = EXCLUDED.description,
			amenities = EXCLUDED.amenities,
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			image_url = EXCLUDED.image_url,
			images = EXCLUDED.images,
			agent_name = EXCLUDED.agent_name,
			agent_phone = EXCLUDED.agent_phone,
			agent_image = EXCLUDED.agent_image,
			updated_at = NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range properties {
		if _, err := stmt.ExecContext(ctx, rowFromProperty(p)); err != nil {
			return 0, fmt.Errorf("property %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(properties), nil
}
