package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/panelworks/reseller/internal/model"
)

type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

func scanPlan(scanner interface{ Scan(...any) error }) (*model.Plan, error) {
	var p model.Plan
	var costCents int64
	err := scanner.Scan(&p.ID, &p.ProductID, &p.Name, &costCents, &p.DurationDays, &p.DownloadLink)
	if err != nil {
		return nil, err
	}
	p.Cost = model.FromCents(costCents)
	return &p, nil
}

const planCols = `id, product_id, name, cost_cents, duration_days, download_link`

func (s *PlanStore) GetByID(id int64) (*model.Plan, error) {
	row := s.db.QueryRow(`SELECT `+planCols+` FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// List returns plans joined with their product's name, ordered by
// product name then cost ascending. With activeOnly set, plans of
// inactive products are excluded.
func (s *PlanStore) List(activeOnly bool) ([]*model.PlanListing, error) {
	query := `SELECT pl.id, pl.product_id, pl.name, pl.cost_cents, pl.duration_days, pl.download_link, p.name
		FROM plans pl
		JOIN products p ON p.id = pl.product_id`
	if activeOnly {
		query += ` WHERE p.is_active = 1`
	}
	query += ` ORDER BY p.name, pl.cost_cents`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var listings []*model.PlanListing
	for rows.Next() {
		var l model.PlanListing
		var costCents int64
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Name, &costCents, &l.DurationDays, &l.DownloadLink, &l.ProductName); err != nil {
			return nil, fmt.Errorf("scan plan listing: %w", err)
		}
		l.Cost = model.FromCents(costCents)
		listings = append(listings, &l)
	}
	return listings, rows.Err()
}

// Upsert creates a plan, or updates cost, duration, and link in place
// when the product already has a plan with the same name. Price
// changes never touch past purchases; cost_paid is snapshotted at
// purchase time.
func (s *PlanStore) Upsert(productID int64, name string, cost decimal.Decimal, durationDays int, downloadLink string) (*model.Plan, error) {
	if name == "" || cost.Sign() <= 0 || durationDays <= 0 {
		return nil, model.ErrInvalidArgument
	}
	if !strings.HasPrefix(downloadLink, "http") {
		return nil, model.ErrInvalidArgument
	}

	if _, err := NewProductStore(s.db).GetByID(productID); err != nil {
		return nil, err
	}

	var existingID int64
	err := s.db.QueryRow(
		`SELECT id FROM plans WHERE product_id = ? AND name = ?`,
		productID, name,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		result, err := s.db.Exec(
			`INSERT INTO plans (product_id, name, cost_cents, duration_days, download_link) VALUES (?, ?, ?, ?, ?)`,
			productID, name, model.Cents(cost), durationDays, downloadLink,
		)
		if err != nil {
			return nil, fmt.Errorf("insert plan: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetByID(id)
	case err != nil:
		return nil, fmt.Errorf("find existing plan: %w", err)
	default:
		if _, err := s.db.Exec(
			`UPDATE plans SET cost_cents = ?, duration_days = ?, download_link = ? WHERE id = ?`,
			model.Cents(cost), durationDays, downloadLink, existingID,
		); err != nil {
			return nil, fmt.Errorf("update plan: %w", err)
		}
		return s.GetByID(existingID)
	}
}

// Delete removes a plan; all purchases referencing it cascade.
func (s *PlanStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
