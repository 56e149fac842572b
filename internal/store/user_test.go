package store

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/panelworks/reseller/internal/database"
	"github.com/panelworks/reseller/internal/model"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("reseller1", "secret123", model.RoleReseller)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Username != "reseller1" {
		t.Errorf("username = %q, want %q", u.Username, "reseller1")
	}
	if u.Role != model.RoleReseller {
		t.Errorf("role = %q, want %q", u.Role, model.RoleReseller)
	}
	if !u.Balance.IsZero() {
		t.Errorf("balance = %s, want 0", u.Balance)
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if u.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("reseller1", "secret123", model.RoleReseller); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := us.Create("reseller1", "other", model.RoleReseller)
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestUserCreateEmptyFields(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("", "secret", model.RoleReseller); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("empty username: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := us.Create("bob", "", model.RoleReseller); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("empty password: err = %v, want ErrInvalidArgument", err)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	us := setupUserTestDB(t)

	_, err := us.GetByID(999)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUserCheckPassword(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("reseller1", "secret123", model.RoleReseller)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !us.CheckPassword(u, "secret123") {
		t.Error("correct password rejected")
	}
	if us.CheckPassword(u, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestUserUpdateKeepsPassword(t *testing.T) {
	us := setupUserTestDB(t)

	created, err := us.Create("reseller1", "secret123", model.RoleReseller)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	updated, err := us.Update(created.ID, "renamed", "")
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Username != "renamed" {
		t.Errorf("username = %q, want %q", updated.Username, "renamed")
	}
	if !us.CheckPassword(updated, "secret123") {
		t.Error("old password no longer valid after rename")
	}
}

func TestUserUpdateNewPassword(t *testing.T) {
	us := setupUserTestDB(t)

	created, err := us.Create("reseller1", "secret123", model.RoleReseller)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	updated, err := us.Update(created.ID, "reseller1", "newpass456")
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if us.CheckPassword(updated, "secret123") {
		t.Error("old password still valid")
	}
	if !us.CheckPassword(updated, "newpass456") {
		t.Error("new password rejected")
	}
}

func TestUserUpdateDuplicateUsername(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("first", "secret123", model.RoleReseller); err != nil {
		t.Fatalf("create user: %v", err)
	}
	second, err := us.Create("second", "secret123", model.RoleReseller)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	_, err = us.Update(second.ID, "first", "")
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestUserDelete(t *testing.T) {
	us := setupUserTestDB(t)

	created, err := us.Create("reseller1", "secret123", model.RoleReseller)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := us.Delete(created.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := us.GetByID(created.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := us.Delete(created.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestUserListResellers(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("zoe", "secret123", model.RoleReseller); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("adam", "secret123", model.RoleReseller); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("root", "secret123", model.RoleAdmin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	users, err := us.ListResellers()
	if err != nil {
		t.Fatalf("list resellers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len = %d, want 2 (admins excluded)", len(users))
	}
	if users[0].Username != "adam" || users[1].Username != "zoe" {
		t.Errorf("order = [%s, %s], want [adam, zoe]", users[0].Username, users[1].Username)
	}
}

func TestCreditIncreasesBalance(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("reseller1", "secret123", model.RoleReseller)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := us.Credit(u.ID, decimal.RequireFromString("50.25")); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := us.Credit(u.ID, decimal.RequireFromString("0.75")); err != nil {
		t.Fatalf("credit: %v", err)
	}

	balance, err := us.GetBalance(u.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if want := decimal.RequireFromString("51.00"); !balance.Equal(want) {
		t.Errorf("balance = %s, want %s", balance, want)
	}
}

func TestCreditNonPositiveAmount(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("reseller1", "secret123", model.RoleReseller)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	for _, amount := range []string{"0", "-10.00"} {
		err := us.Credit(u.ID, decimal.RequireFromString(amount))
		if !errors.Is(err, model.ErrInvalidArgument) {
			t.Errorf("credit %s: err = %v, want ErrInvalidArgument", amount, err)
		}
	}

	balance, err := us.GetBalance(u.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("balance = %s, want 0 after rejected credits", balance)
	}
}

func TestCreditUnknownUser(t *testing.T) {
	us := setupUserTestDB(t)

	err := us.Credit(999, decimal.RequireFromString("10.00"))
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetBalanceUnknownUser(t *testing.T) {
	us := setupUserTestDB(t)

	_, err := us.GetBalance(999)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
