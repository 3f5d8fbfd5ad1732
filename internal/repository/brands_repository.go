// Package repository provides data access for brands and the embedding queue.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/creatorbrands/directory/internal/models"
)

// ErrBrandNotFound is returned when no brand exists for the given ID.
var ErrBrandNotFound = errors.New("brand not found")

// errEmbeddingScanInvalidType is returned when Scan receives a type other than []byte.
var errEmbeddingScanInvalidType = errors.New("embedding: expected []byte")

// nullableEmbedding scans a vector column that may be NULL without panicking
// (pgvector.Vector.Scan panics on empty/NULL).
type nullableEmbedding []float32

func (n *nullableEmbedding) Scan(src any) error {
	if src == nil {
		*n = nil

		return nil
	}

	buf, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("%w: got %T", errEmbeddingScanInvalidType, src)
	}

	if len(buf) == 0 {
		*n = nil

		return nil
	}

	var vec pgvector.Vector

	if err := vec.DecodeBinary(buf); err != nil {
		return fmt.Errorf("embedding decode: %w", err)
	}

	*n = vec.Slice()

	return nil
}

const brandColumns = `id, name, creators, description, product_category, type_of_influencer,
	approved, last_embedded_at, created_at, updated_at`

// BrandsRepository handles data access for brands.
type BrandsRepository struct {
	db         *pgxpool.Pool
	dimensions int
}

// NewBrandsRepository creates a brands repository. dimensions must match
// the vector column so zero-vector comparisons are well-formed.
func NewBrandsRepository(db *pgxpool.Pool, dimensions int) *BrandsRepository {
	return &BrandsRepository{db: db, dimensions: dimensions}
}

func scanBrand(row pgx.Row) (*models.Brand, error) {
	var brand models.Brand

	err := row.Scan(
		&brand.ID, &brand.Name, &brand.Creators, &brand.Description,
		&brand.ProductCategory, &brand.TypeOfInfluencer,
		&brand.Approved, &brand.LastEmbeddedAt, &brand.CreatedAt, &brand.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBrandNotFound
		}

		return nil, fmt.Errorf("scan brand: %w", err)
	}

	return &brand, nil
}

// Create inserts a new brand. New brands start unapproved and unembedded.
func (r *BrandsRepository) Create(ctx context.Context, req *models.CreateBrandRequest) (*models.Brand, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO brands (name, creators, description, product_category, type_of_influencer)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+brandColumns,
		req.Name, req.Creators, req.Description, req.ProductCategory, req.TypeOfInfluencer,
	)

	brand, err := scanBrand(row)
	if err != nil {
		return nil, fmt.Errorf("create brand: %w", err)
	}

	return brand, nil
}

// GetByID retrieves a single brand by ID, including its embedding.
func (r *BrandsRepository) GetByID(ctx context.Context, id int64) (*models.Brand, error) {
	var (
		brand models.Brand
		emb   nullableEmbedding
	)

	err := r.db.QueryRow(ctx, `
		SELECT `+brandColumns+`, embedding
		FROM brands WHERE id = $1`, id,
	).Scan(
		&brand.ID, &brand.Name, &brand.Creators, &brand.Description,
		&brand.ProductCategory, &brand.TypeOfInfluencer,
		&brand.Approved, &brand.LastEmbeddedAt, &brand.CreatedAt, &brand.UpdatedAt,
		&emb,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBrandNotFound
		}

		return nil, fmt.Errorf("get brand: %w", err)
	}

	brand.Embedding = emb

	return &brand, nil
}

// Update applies the non-nil fields of req and returns the updated brand.
func (r *BrandsRepository) Update(ctx context.Context, id int64, req *models.UpdateBrandRequest) (*models.Brand, error) {
	var (
		sets []string
		args []any
	)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		add("name", *req.Name)
	}

	if req.Creators != nil {
		add("creators", *req.Creators)
	}

	if req.Description != nil {
		add("description", *req.Description)
	}

	if req.ProductCategory != nil {
		add("product_category", *req.ProductCategory)
	}

	if req.TypeOfInfluencer != nil {
		add("type_of_influencer", *req.TypeOfInfluencer)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	add("updated_at", time.Now())
	args = append(args, id)

	row := r.db.QueryRow(ctx, fmt.Sprintf(
		`UPDATE brands SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), brandColumns,
	), args...)

	return scanBrand(row)
}

// Delete removes a brand. The queue's foreign key cascades, so orphaned
// queue rows disappear with it.
func (r *BrandsRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrBrandNotFound
	}

	return nil
}

// SetApproved flips the approval flag.
func (r *BrandsRepository) SetApproved(ctx context.Context, id int64, approved bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE brands SET approved = $1, updated_at = now() WHERE id = $2`,
		approved, id,
	)
	if err != nil {
		return fmt.Errorf("set approved: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrBrandNotFound
	}

	return nil
}

// List returns brands matching the filters, newest first.
func (r *BrandsRepository) List(ctx context.Context, filters *models.ListBrandsFilters) ([]models.Brand, error) {
	var (
		conditions []string
		args       []any
	)

	if filters.ProductCategory != nil {
		args = append(args, *filters.ProductCategory)
		conditions = append(conditions, fmt.Sprintf("product_category = $%d", len(args)))
	}

	if filters.TypeOfInfluencer != nil {
		args = append(args, *filters.TypeOfInfluencer)
		conditions = append(conditions, fmt.Sprintf("type_of_influencer = $%d", len(args)))
	}

	if filters.Approved != nil {
		args = append(args, *filters.Approved)
		conditions = append(conditions, fmt.Sprintf("approved = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filters.Limit, filters.Offset)
	query := fmt.Sprintf(`SELECT %s FROM brands%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		brandColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var brands []models.Brand

	for rows.Next() {
		var brand models.Brand

		if err := rows.Scan(
			&brand.ID, &brand.Name, &brand.Creators, &brand.Description,
			&brand.ProductCategory, &brand.TypeOfInfluencer,
			&brand.Approved, &brand.LastEmbeddedAt, &brand.CreatedAt, &brand.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}

		brands = append(brands, brand)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating brands: %w", err)
	}

	return brands, nil
}

// UpdateEmbedding writes the vector and stamps last_embedded_at. Writing
// the same vector twice is safe, which is what makes queue reprocessing
// idempotent.
func (r *BrandsRepository) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	vec := pgvector.NewVector(embedding)

	tag, err := r.db.Exec(ctx,
		`UPDATE brands SET embedding = $1, last_embedded_at = now() WHERE id = $2`,
		vec, id,
	)
	if err != nil {
		return fmt.Errorf("update embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrBrandNotFound
	}

	return nil
}

// NearestByEmbedding returns brands ranked by cosine similarity (1 - cosine
// distance) to queryEmbedding, keeping only rows with similarity >= minScore,
// capped at limit. Brands with a NULL or all-zero embedding are excluded
// entirely: they are invisible to semantic search until the queue processor
// backfills them.
func (r *BrandsRepository) NearestByEmbedding(
	ctx context.Context, queryEmbedding []float32, minScore float64, limit int,
) ([]models.SearchResult, error) {
	queryVec := pgvector.NewVector(queryEmbedding)
	zeroVec := pgvector.NewVector(make([]float32, r.dimensions))

	rows, err := r.db.Query(ctx, `
		SELECT id, name, creators, product_category, description,
			(1 - (embedding <=> $1)) AS similarity
		FROM brands
		WHERE embedding IS NOT NULL
		  AND embedding != $2
		  AND (1 - (embedding <=> $1)) >= $3
		ORDER BY embedding <=> $1
		LIMIT $4`,
		queryVec, zeroVec, minScore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("nearest brands: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult

	for rows.Next() {
		var (
			row        models.SearchResult
			similarity float64
		)

		if err := rows.Scan(&row.ID, &row.Name, &row.Creators, &row.ProductCategory, &row.Description, &similarity); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}

		row.Similarity = &similarity
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nearest: %w", err)
	}

	return results, nil
}

// SearchByKeyword returns approved brands whose name or creators contain
// the query, case-insensitively. Results carry no similarity score.
func (r *BrandsRepository) SearchByKeyword(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	pattern := "%" + escapeLike(query) + "%"

	rows, err := r.db.Query(ctx, `
		SELECT id, name, creators, product_category, description
		FROM brands
		WHERE approved = TRUE AND (name ILIKE $1 OR creators ILIKE $1)
		ORDER BY name
		LIMIT $2`,
		pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult

	for rows.Next() {
		var row models.SearchResult

		if err := rows.Scan(&row.ID, &row.Name, &row.Creators, &row.ProductCategory, &row.Description); err != nil {
			return nil, fmt.Errorf("scan keyword result: %w", err)
		}

		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keyword results: %w", err)
	}

	return results, nil
}

// ListIDsForBackfill returns IDs of brands whose embedding is NULL or all
// zeros: the ones invisible to semantic search until re-embedded.
func (r *BrandsRepository) ListIDsForBackfill(ctx context.Context) ([]int64, error) {
	zeroVec := pgvector.NewVector(make([]float32, r.dimensions))

	rows, err := r.db.Query(ctx,
		`SELECT id FROM brands WHERE embedding IS NULL OR embedding = $1`,
		zeroVec,
	)
	if err != nil {
		return nil, fmt.Errorf("list brands for backfill: %w", err)
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan brand id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating backfill ids: %w", err)
	}

	return ids, nil
}

// escapeLike escapes LIKE wildcards in user input so a query containing
// "%" or "_" matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)

	return s
}
