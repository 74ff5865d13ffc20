package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// OpenPostgres opens a pgx-backed *sql.DB and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := withTimeout(ctx, pingTimeout, db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// PostgresSource reads the catalog from the products and product_tags tables.
// Products keep the order of their position column; tags likewise.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Load(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, description, price, image, rating
			FROM products
			ORDER BY position ASC, id ASC
		`)
		if err != nil {
			return err
		}
		products, err := scanProducts(rows)
		_ = rows.Close()
		if err != nil {
			return err
		}

		rows, err = s.db.QueryContext(ctx, `
			SELECT product_id, tag
			FROM product_tags
			ORDER BY product_id ASC, position ASC
		`)
		if err != nil {
			return err
		}
		tags, err := scanTags(rows)
		_ = rows.Close()
		if err != nil {
			return err
		}

		out = attachTags(products, tags)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return out, nil
}

// rowScanner is the part of *sql.Rows the scan helpers use.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

type productTag struct {
	ProductID int
	Tag       string
}

func scanProducts(rows rowScanner) ([]Product, error) {
	out := make([]Product, 0, 16)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Rating); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanTags(rows rowScanner) ([]productTag, error) {
	var out []productTag
	for rows.Next() {
		var t productTag
		if err := rows.Scan(&t.ProductID, &t.Tag); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// attachTags appends tags to their products in the order given. Tags of
// unknown products are dropped; products without tags fail New later.
func attachTags(products []Product, tags []productTag) []Product {
	idx := make(map[int]int, len(products))
	for i, p := range products {
		idx[p.ID] = i
	}
	for _, t := range tags {
		if i, ok := idx[t.ProductID]; ok {
			products[i].Tags = append(products[i].Tags, t.Tag)
		}
	}
	return products
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
