package accounts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmalhotra/smsledger/internal/domain"
)

func TestMemoryRegistry_PutGet(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	account := domain.Account{
		AccountID:           "XX1234",
		Name:                "Landlord",
		DefaultTitle:        "Rent",
		DefaultCategoryName: "Housing",
	}
	if err := reg.PutAccount(ctx, account); err != nil {
		t.Fatalf("PutAccount failed: %v", err)
	}

	got, ok, err := reg.GetAccountByAccountID(ctx, "XX1234")
	if err != nil {
		t.Fatalf("GetAccountByAccountID failed: %v", err)
	}
	if !ok {
		t.Fatal("expected account to be found")
	}
	if got != account {
		t.Errorf("got %+v, want %+v", got, account)
	}

	// Repeated put replaces.
	account.Name = "Landlady"
	if err := reg.PutAccount(ctx, account); err != nil {
		t.Fatalf("PutAccount replace failed: %v", err)
	}
	got, _, _ = reg.GetAccountByAccountID(ctx, "XX1234")
	if got.Name != "Landlady" {
		t.Errorf("Name = %q after replace, want %q", got.Name, "Landlady")
	}
}

func TestMemoryRegistry_PutRequiresID(t *testing.T) {
	reg := NewMemoryRegistry()
	if err := reg.PutAccount(context.Background(), domain.Account{Name: "no id"}); err == nil {
		t.Error("expected error for missing account_id")
	}
}

func TestMemoryRegistry_DeleteUnknownIsNoop(t *testing.T) {
	reg := NewMemoryRegistry()
	if err := reg.DeleteAccount(context.Background(), "nope"); err != nil {
		t.Errorf("DeleteAccount on unknown id returned error: %v", err)
	}
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()
	if err := reg.PutAccount(ctx, domain.Account{
		AccountID:           "XX1234",
		Name:                "Landlord",
		DefaultTitle:        "Rent",
		DefaultCategoryName: "Housing",
	}); err != nil {
		t.Fatalf("PutAccount failed: %v", err)
	}
	resolver := NewResolver(reg)

	t.Run("registered reference resolves", func(t *testing.T) {
		res, err := resolver.Resolve(ctx, "XX1234")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if !res.Resolved {
			t.Fatal("expected Resolved")
		}
		if res.Account.Name != "Landlord" {
			t.Errorf("Name = %q, want %q", res.Account.Name, "Landlord")
		}
	})

	t.Run("unknown reference is unresolved, not an error", func(t *testing.T) {
		res, err := resolver.Resolve(ctx, "YY9999")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if res.Resolved {
			t.Error("expected Unresolved for unknown reference")
		}
	})

	t.Run("empty reference skips lookup", func(t *testing.T) {
		res, err := resolver.Resolve(ctx, "")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if res.Resolved {
			t.Error("expected Unresolved for empty reference")
		}
	})
}

func TestLoadRegistryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.yaml")

	content := `accounts:
  - account_id: XX1234
    name: Landlord
    default_title: Rent
    default_category_name: Housing
  - account_id: "4321"
    name: Grocer
    default_title: Groceries
    default_category_name: Food
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	reg, err := LoadRegistryFile(path)
	if err != nil {
		t.Fatalf("LoadRegistryFile failed: %v", err)
	}

	got, ok, err := reg.GetAccountByAccountID(context.Background(), "XX1234")
	if err != nil || !ok {
		t.Fatalf("expected XX1234 to load, ok=%v err=%v", ok, err)
	}
	if got.DefaultCategoryName != "Housing" {
		t.Errorf("DefaultCategoryName = %q, want %q", got.DefaultCategoryName, "Housing")
	}

	all, err := reg.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("loaded %d accounts, want 2", len(all))
	}
}

func TestLoadRegistryFile_Rejects(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"missing id", "accounts:\n  - name: anonymous\n"},
		{"duplicate id", "accounts:\n  - account_id: XX1\n  - account_id: XX1\n"},
		{"malformed yaml", "accounts: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("writing fixture: %v", err)
			}
			if _, err := LoadRegistryFile(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadRegistryFile_MissingFile(t *testing.T) {
	if _, err := LoadRegistryFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
