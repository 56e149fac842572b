package store

import (
	"database/sql"
	"fmt"

	"github.com/panelworks/reseller/internal/model"
)

type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

func scanProduct(scanner interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	err := scanner.Scan(&p.ID, &p.Name, &p.IsActive)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const productCols = `id, name, is_active`

func (s *ProductStore) Create(name string) (*model.Product, error) {
	if name == "" {
		return nil, model.ErrInvalidArgument
	}
	result, err := s.db.Exec(`INSERT INTO products (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProductStore) GetByID(id int64) (*model.Product, error) {
	row := s.db.QueryRow(`SELECT `+productCols+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *ProductStore) List() ([]*model.Product, error) {
	rows, err := s.db.Query(`SELECT ` + productCols + ` FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *ProductStore) Rename(id int64, name string) (*model.Product, error) {
	if name == "" {
		return nil, model.ErrInvalidArgument
	}
	result, err := s.db.Exec(`UPDATE products SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("rename product: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, model.ErrNotFound
	}
	return s.GetByID(id)
}

func (s *ProductStore) SetActive(id int64, active bool) error {
	result, err := s.db.Exec(`UPDATE products SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("set product active: %w", err)
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

// Delete removes a product. Its plans cascade, and each plan's
// purchases cascade in turn.
func (s *ProductStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
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
