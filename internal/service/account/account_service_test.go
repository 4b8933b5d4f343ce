package account

import (
	"errors"
	"fmt"
	"testing"

	"support-chat/internal/repository/db"
	"support-chat/internal/repository/memory"
	"support-chat/internal/testutil"
)

func TestGetRecentSearches_Limit(t *testing.T) {
	mockDB := &testutil.MockDatabase{}
	var gotLimit int
	mockDB.ListRecentSearchesFunc = func(userID int64, limit int) ([]db.SearchEntry, error) {
		gotLimit = limit
		return []db.SearchEntry{}, nil
	}
	service := NewAccountService(mockDB)

	if _, err := service.GetRecentSearches(1); err != nil {
		t.Fatalf("GetRecentSearches() error = %v", err)
	}
	if gotLimit != RecentSearchLimit {
		t.Errorf("limit = %d, want %d", gotLimit, RecentSearchLimit)
	}
}

func TestGetRecentSearches_NewestFive(t *testing.T) {
	store := memory.NewStore("")
	service := NewAccountService(store)

	for i := 1; i <= 6; i++ {
		if err := service.AddSearch(3, fmt.Sprintf("pix %d", i)); err != nil {
			t.Fatalf("AddSearch() error = %v", err)
		}
	}

	entries, err := service.GetRecentSearches(3)
	if err != nil {
		t.Fatalf("GetRecentSearches() error = %v", err)
	}
	if len(entries) != 5 || entries[0].Query != "pix 6" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestBankAccount_RoundTrip(t *testing.T) {
	store := memory.NewStore("")
	service := NewAccountService(store)

	none, err := service.GetBankAccount(3)
	if err != nil || none != nil {
		t.Fatalf("GetBankAccount() = %+v, %v; want nil, nil", none, err)
	}

	if _, err := service.CreateBankAccount(3, "Ana", "0001"); err != nil {
		t.Fatalf("CreateBankAccount() error = %v", err)
	}
	got, _ := service.GetBankAccount(3)
	if got == nil || got.AccountNumber != "0001" {
		t.Errorf("GetBankAccount() = %+v", got)
	}
}

func TestCreateBankAccount_WrapsError(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		CreateBankAccountFunc: func(userID int64, accountName, accountNumber string) (*db.BankAccount, error) {
			return nil, errors.New("boom")
		},
	}
	service := NewAccountService(mockDB)

	if _, err := service.CreateBankAccount(1, "a", "b"); err == nil {
		t.Fatal("Expected error, got nil")
	}
}
