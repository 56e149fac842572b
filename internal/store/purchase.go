package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/panelworks/reseller/internal/model"
)

// PurchaseStore executes purchases and resolves download links.
type PurchaseStore struct {
	db *sql.DB
}

func NewPurchaseStore(db *sql.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

func scanPurchase(scanner interface{ Scan(...any) error }) (*model.Purchase, error) {
	var p model.Purchase
	var costCents int64
	err := scanner.Scan(&p.ID, &p.ResellerID, &p.PlanID, &costCents, &p.Reference, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.CostPaid = model.FromCents(costCents)
	return &p, nil
}

const purchaseCols = `id, reseller_id, plan_id, cost_paid_cents, reference, created_at`

// newReference generates a purchase reference in the format
// ID-XXXXXXXX, taken from the leading hex of a random UUID. The space
// is large enough that collisions are not retried.
func newReference() string {
	return "ID-" + strings.ToUpper(uuid.New().String())[:8]
}

// Purchase debits the reseller's balance by the plan's current cost
// and records the purchase, as one transaction. The debit is a single
// conditional UPDATE guarded by the balance check, so concurrent
// purchases against the same account cannot overdraw it: whichever
// commits first wins, the rest see zero rows affected.
func (s *PurchaseStore) Purchase(resellerID, planID int64) (*model.Purchase, error) {
	plan, err := NewPlanStore(s.db).GetByID(planID)
	if err != nil {
		return nil, err
	}
	if plan.DownloadLink == "" {
		return nil, model.ErrUnavailable
	}
	costCents := model.Cents(plan.Cost.Decimal)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE users SET balance_cents = balance_cents - ? WHERE id = ? AND balance_cents >= ?`,
		costCents, resellerID, costCents,
	)
	if err != nil {
		return nil, fmt.Errorf("debit balance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRow(`SELECT 1 FROM users WHERE id = ?`, resellerID).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil, model.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("check user: %w", err)
		}
		return nil, model.ErrInsufficientFunds
	}

	insert, err := tx.Exec(
		`INSERT INTO purchases (reseller_id, plan_id, cost_paid_cents, reference) VALUES (?, ?, ?, ?)`,
		resellerID, planID, costCents, newReference(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}
	id, err := insert.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *PurchaseStore) GetByID(id int64) (*model.Purchase, error) {
	row := s.db.QueryRow(`SELECT `+purchaseCols+` FROM purchases WHERE id = ?`, id)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return p, nil
}

// GetByReference looks up a purchase by its human-shareable reference
// code, used for out-of-band support requests.
func (s *PurchaseStore) GetByReference(reference string) (*model.Purchase, error) {
	row := s.db.QueryRow(`SELECT `+purchaseCols+` FROM purchases WHERE reference = ?`, reference)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase by reference: %w", err)
	}
	return p, nil
}

// History returns the reseller's purchases joined with plan and
// product names, newest first.
func (s *PurchaseStore) History(resellerID int64) ([]*model.PurchaseHistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT pu.id, pu.reseller_id, pu.plan_id, pu.cost_paid_cents, pu.reference, pu.created_at, pl.name, pr.name
		FROM purchases pu
		JOIN plans pl ON pl.id = pu.plan_id
		JOIN products pr ON pr.id = pl.product_id
		WHERE pu.reseller_id = ?
		ORDER BY pu.created_at DESC, pu.id DESC`,
		resellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("purchase history: %w", err)
	}
	defer rows.Close()

	var entries []*model.PurchaseHistoryEntry
	for rows.Next() {
		var e model.PurchaseHistoryEntry
		var costCents int64
		if err := rows.Scan(&e.ID, &e.ResellerID, &e.PlanID, &costCents, &e.Reference, &e.CreatedAt, &e.PlanName, &e.ProductName); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.CostPaid = model.FromCents(costCents)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// ResolveDownload returns the live download link for a purchase. The
// link is read from the current plan row, not snapshotted at purchase
// time, so later link edits apply to old purchases.
func (s *PurchaseStore) ResolveDownload(purchaseID, requestingUserID int64) (string, error) {
	purchase, err := s.GetByID(purchaseID)
	if err != nil {
		return "", err
	}
	if purchase.ResellerID != requestingUserID {
		return "", model.ErrForbidden
	}

	var link string
	err = s.db.QueryRow(`SELECT download_link FROM plans WHERE id = ?`, purchase.PlanID).Scan(&link)
	if err == sql.ErrNoRows {
		return "", model.ErrUnavailable
	}
	if err != nil {
		return "", fmt.Errorf("get download link: %w", err)
	}
	if link == "" {
		return "", model.ErrUnavailable
	}
	return link, nil
}
