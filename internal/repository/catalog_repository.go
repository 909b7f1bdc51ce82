package repository

// A catalog row keeps its sections (and their items) in a JSON column so
// that every mutation is one whole-document save, guarded by the version
// column.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/menu-catalog/internal/model"
)

var tracer = otel.Tracer("github.com/iliyamo/menu-catalog/internal/repository")

// sectionDoc and sectionItemDoc are the persisted shape of the sections
// column. Items are stored by id only.
type sectionDoc struct {
	ID          string           `json:"id"`
	Order       int              `json:"order"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Items       []sectionItemDoc `json:"items"`
}

type sectionItemDoc struct {
	Order  int    `json:"order"`
	ItemID uint64 `json:"item"`
	Actif  bool   `json:"actif"`
}

func encodeSections(secs []model.Section) ([]byte, error) {
	docs := make([]sectionDoc, len(secs))
	for i, s := range secs {
		d := sectionDoc{ID: s.ID, Order: s.Order, Name: s.Name, Description: s.Description,
			Items: make([]sectionItemDoc, len(s.Items))}
		for j, it := range s.Items {
			d.Items[j] = sectionItemDoc{Order: it.Order, ItemID: it.Item.RefID(), Actif: it.Actif}
		}
		docs[i] = d
	}
	return json.Marshal(docs)
}

func decodeSections(b []byte) ([]model.Section, error) {
	var docs []sectionDoc
	if len(b) > 0 {
		if err := json.Unmarshal(b, &docs); err != nil {
			return nil, err
		}
	}
	secs := make([]model.Section, len(docs))
	for i, d := range docs {
		s := model.Section{ID: d.ID, Order: d.Order, Name: d.Name, Description: d.Description,
			Items: make([]model.SectionItem, len(d.Items))}
		for j, it := range d.Items {
			s.Items[j] = model.SectionItem{Order: it.Order, Item: model.Unresolved[model.Item](it.ItemID), Actif: it.Actif}
		}
		secs[i] = s
	}
	return secs, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// CatalogRepo encapsulates all database queries related to catalogs.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

const catalogColumns = "id, branch_id, name, days, start_time, end_time, sections, available, version, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalog(row rowScanner) (*model.Catalog, error) {
	var (
		c          model.Catalog
		branchID   uint64
		days, secs []byte
		start, end sql.NullTime
	)
	if err := row.Scan(&c.ID, &branchID, &c.Name, &days, &start, &end, &secs, &c.Available, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Branch = model.Unresolved[model.Branch](branchID)
	c.StartTime, c.EndTime = start.Time, end.Time
	c.Days = []string{}
	if len(days) > 0 {
		if err := json.Unmarshal(days, &c.Days); err != nil {
			return nil, fmt.Errorf("decode days: %w", err)
		}
	}
	sections, err := decodeSections(secs)
	if err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	c.Sections = sections
	return &c, nil
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrCatalogNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Create inserts a new catalog at version 0 and fills in its id and
// timestamps.
func (r *CatalogRepo) Create(ctx context.Context, c *model.Catalog) (err error) {
	ctx, span := startSpan(ctx, "CatalogRepo.Create", attribute.Int64("branch.id", int64(c.Branch.RefID())))
	defer func() { endSpan(span, err) }()

	if c.Days == nil {
		c.Days = []string{}
	}
	days, err := json.Marshal(c.Days)
	if err != nil {
		return err
	}
	secs, err := encodeSections(c.Sections)
	if err != nil {
		return err
	}
	const q = `INSERT INTO catalogs (branch_id, name, days, start_time, end_time, sections, available, version)
	           VALUES (?, ?, ?, ?, ?, ?, ?, 0)`
	res, err := r.db.ExecContext(ctx, q, c.Branch.RefID(), c.Name, days, nullTime(c.StartTime), nullTime(c.EndTime), secs, c.Available)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.Version = 0
	return r.db.QueryRowContext(ctx, "SELECT created_at, updated_at FROM catalogs WHERE id = ?", c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetByID loads the full catalog document. Refs are returned unresolved.
func (r *CatalogRepo) GetByID(ctx context.Context, id uint64) (c *model.Catalog, err error) {
	ctx, span := startSpan(ctx, "CatalogRepo.GetByID", attribute.Int64("catalog.id", int64(id)))
	defer func() { endSpan(span, err) }()

	c, err = scanCatalog(r.db.QueryRowContext(ctx, "SELECT "+catalogColumns+" FROM catalogs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCatalogNotFound
	}
	return c, err
}

// BranchIDOf returns only the owning branch of a catalog, so callers can
// authorize before reading the document.
func (r *CatalogRepo) BranchIDOf(ctx context.Context, id uint64) (uint64, error) {
	var branchID uint64
	err := r.db.QueryRowContext(ctx, "SELECT branch_id FROM catalogs WHERE id = ?", id).Scan(&branchID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCatalogNotFound
	}
	return branchID, err
}

// ListByBranch returns the catalogs of a branch ordered by id.
func (r *CatalogRepo) ListByBranch(ctx context.Context, branchID uint64) (out []*model.Catalog, err error) {
	ctx, span := startSpan(ctx, "CatalogRepo.ListByBranch", attribute.Int64("branch.id", int64(branchID)))
	defer func() { endSpan(span, err) }()

	rows, err := r.db.QueryContext(ctx, "SELECT "+catalogColumns+" FROM catalogs WHERE branch_id = ? ORDER BY id", branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out = []*model.Catalog{}
	for rows.Next() {
		c, err := scanCatalog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FirstByBranch returns the oldest catalog of a branch.
func (r *CatalogRepo) FirstByBranch(ctx context.Context, branchID uint64) (c *model.Catalog, err error) {
	ctx, span := startSpan(ctx, "CatalogRepo.FirstByBranch", attribute.Int64("branch.id", int64(branchID)))
	defer func() { endSpan(span, err) }()

	c, err = scanCatalog(r.db.QueryRowContext(ctx,
		"SELECT "+catalogColumns+" FROM catalogs WHERE branch_id = ? ORDER BY id LIMIT 1", branchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCatalogNotFound
	}
	return c, err
}

// Save writes the whole document if the stored version still equals
// c.Version, then advances c.Version. A stale version yields
// ErrVersionConflict; a missing row yields ErrCatalogNotFound.
func (r *CatalogRepo) Save(ctx context.Context, c *model.Catalog) (err error) {
	ctx, span := startSpan(ctx, "CatalogRepo.Save",
		attribute.Int64("catalog.id", int64(c.ID)), attribute.Int64("catalog.version", c.Version))
	defer func() { endSpan(span, err) }()

	days, err := json.Marshal(c.Days)
	if err != nil {
		return err
	}
	secs, err := encodeSections(c.Sections)
	if err != nil {
		return err
	}
	const q = `UPDATE catalogs
	           SET name = ?, days = ?, start_time = ?, end_time = ?, sections = ?, available = ?, version = version + 1
	           WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q, c.Name, days, nullTime(c.StartTime), nullTime(c.EndTime), secs, c.Available, c.ID, c.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM catalogs WHERE id = ?)", c.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrCatalogNotFound
		}
		return ErrVersionConflict
	}
	c.Version++
	c.UpdatedAt = time.Now().UTC()
	return nil
}
