package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/panelworks/reseller/internal/model"
)

// UserStore manages accounts and their prepaid balances. Balances are
// only ever changed by Credit or by PurchaseStore's debit; both go
// through single UPDATE statements so no reader can observe a partial
// write.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var balanceCents int64
	err := scanner.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &balanceCents, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Balance = model.FromCents(balanceCents)
	return &u, nil
}

const userCols = `id, username, password_hash, role, balance_cents, created_at`

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *UserStore) Create(username, password, role string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, model.ErrInvalidArgument
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		username, string(hash), role,
	)
	if isUniqueViolation(err) {
		return nil, model.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(username string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *UserStore) ListResellers() ([]*model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + ` FROM users WHERE role = 'reseller' ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list resellers: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reseller: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update renames a user and, when newPassword is non-empty, replaces
// the password hash.
func (s *UserStore) Update(id int64, username, newPassword string) (*model.User, error) {
	if username == "" {
		return nil, model.ErrInvalidArgument
	}

	var result sql.Result
	var err error
	if newPassword != "" {
		var hash []byte
		hash, err = bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		result, err = s.db.Exec(
			`UPDATE users SET username = ?, password_hash = ? WHERE id = ?`,
			username, string(hash), id,
		)
	} else {
		result, err = s.db.Exec(`UPDATE users SET username = ? WHERE id = ?`, username, id)
	}
	if isUniqueViolation(err) {
		return nil, model.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
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

// Delete removes a user; the purchases foreign key cascades, so the
// account's entire purchase history goes with it.
func (s *UserStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
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

func (s *UserStore) GetBalance(id int64) (model.Money, error) {
	var cents int64
	err := s.db.QueryRow(`SELECT balance_cents FROM users WHERE id = ?`, id).Scan(&cents)
	if err == sql.ErrNoRows {
		return model.Money{}, model.ErrNotFound
	}
	if err != nil {
		return model.Money{}, fmt.Errorf("get balance: %w", err)
	}
	return model.FromCents(cents), nil
}

// Credit adds amount to the user's balance. The amount must be
// strictly positive; there is no upper bound.
func (s *UserStore) Credit(id int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return model.ErrInvalidArgument
	}
	result, err := s.db.Exec(
		`UPDATE users SET balance_cents = balance_cents + ? WHERE id = ?`,
		model.Cents(amount), id,
	)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
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

// CheckPassword verifies a plaintext password against the stored hash.
func (s *UserStore) CheckPassword(u *model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
