package database

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SeedConfig holds the bootstrap credentials for the initial accounts.
type SeedConfig struct {
	AdminUsername    string
	AdminPassword    string
	ResellerUsername string
	ResellerPassword string
	// ResellerBalanceCents is the demo reseller's starting balance.
	ResellerBalanceCents int64
}

// Seed inserts the bootstrap admin, a demo reseller, and a sample
// product with three plans. Each insert is skipped if the row already
// exists, so Seed is safe to run on every startup.
func Seed(db *sql.DB, cfg SeedConfig) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := seedUser(tx, cfg.AdminUsername, cfg.AdminPassword, "admin", 0); err != nil {
		return err
	}
	if err := seedUser(tx, cfg.ResellerUsername, cfg.ResellerPassword, "reseller", cfg.ResellerBalanceCents); err != nil {
		return err
	}

	var productID int64
	err = tx.QueryRow(`SELECT id FROM products WHERE name = ?`, "Free Fire Cheat").Scan(&productID)
	if err == sql.ErrNoRows {
		result, err := tx.Exec(`INSERT INTO products (name) VALUES (?)`, "Free Fire Cheat")
		if err != nil {
			return fmt.Errorf("seed product: %w", err)
		}
		productID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("check product: %w", err)
	}

	var havePlans int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM plans WHERE product_id = ?`, productID).Scan(&havePlans); err != nil {
		return fmt.Errorf("check plans: %w", err)
	}
	if havePlans == 0 {
		plans := []struct {
			name      string
			costCents int64
			days      int
			link      string
		}{
			{"Weekly", 1500, 7, "https://example.com/downloads/weekly.zip"},
			{"Monthly", 3000, 30, "https://example.com/downloads/monthly.zip"},
			{"Lifetime", 9000, 9999, "https://example.com/downloads/lifetime.zip"},
		}
		for _, p := range plans {
			if _, err := tx.Exec(
				`INSERT INTO plans (product_id, name, cost_cents, duration_days, download_link) VALUES (?, ?, ?, ?, ?)`,
				productID, p.name, p.costCents, p.days, p.link,
			); err != nil {
				return fmt.Errorf("seed plan %q: %w", p.name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func seedUser(tx *sql.Tx, username, password, role string, balanceCents int64) error {
	if username == "" || password == "" {
		return nil
	}
	var exists int
	err := tx.QueryRow(`SELECT 1 FROM users WHERE username = ?`, username).Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check user %q: %w", username, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO users (username, password_hash, role, balance_cents) VALUES (?, ?, ?, ?)`,
		username, string(hash), role, balanceCents,
	); err != nil {
		return fmt.Errorf("seed user %q: %w", username, err)
	}
	return nil
}
