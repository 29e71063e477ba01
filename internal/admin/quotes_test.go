package admin

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recophone/recophone-backend/pkg/config"
	"github.com/recophone/recophone-backend/pkg/db"
	"github.com/recophone/recophone-backend/pkg/db/models"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

func setupQuotesTestDB(t *testing.T) *db.Client {
	t.Helper()

	client, err := db.New(context.Background(), config.DBConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(&models.QuoteRecord{}))
	return client
}

func seedQuote(t *testing.T, client *db.Client, number, lastName, email string, createdAt time.Time) {
	t.Helper()
	record := &models.QuoteRecord{
		ID:          uuid.New(),
		QuoteNumber: number,
		FirstName:   "Claire",
		LastName:    lastName,
		Email:       email,
		Phone:       "+32470000000",
		Address:     "",
		ServiceMode: "atelier",
		Devices:     []byte(`[]`),
		TotalEUR:    149.99,
		FolderName:  lastName + "_" + number,
		CreatedAt:   createdAt,
	}
	require.NoError(t, client.DB().Create(record).Error)
}

func TestQuoteRepositoryListNewestFirst(t *testing.T) {
	client := setupQuotesTestDB(t)
	repo, err := NewQuoteRepository(client)
	require.NoError(t, err)

	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	seedQuote(t, client, "DEV-20250801-100000", "Martin", "martin@example.com", base)
	seedQuote(t, client, "DEV-20250802-100000", "Dubois", "dubois@example.com", base.Add(24*time.Hour))
	seedQuote(t, client, "DEV-20250803-100000", "Lambert", "lambert@example.com", base.Add(48*time.Hour))

	list, err := repo.List(context.Background(), ListQuotesParams{})
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, "DEV-20250803-100000", list.Items[0].QuoteNumber)
	assert.Equal(t, "DEV-20250801-100000", list.Items[2].QuoteNumber)
}

func TestQuoteRepositoryListPaginates(t *testing.T) {
	client := setupQuotesTestDB(t)
	repo, err := NewQuoteRepository(client)
	require.NoError(t, err)

	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedQuote(t, client,
			fmt.Sprintf("DEV-2025080%d-100000", i+1),
			fmt.Sprintf("Client%d", i+1),
			fmt.Sprintf("client%d@example.com", i+1),
			base.Add(time.Duration(i)*24*time.Hour))
	}

	page2, err := repo.List(context.Background(), ListQuotesParams{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page2.Total)
	require.Len(t, page2.Items, 2)
	assert.Equal(t, "DEV-20250803-100000", page2.Items[0].QuoteNumber)
	assert.Equal(t, "DEV-20250802-100000", page2.Items[1].QuoteNumber)
}

func TestQuoteRepositoryListSearch(t *testing.T) {
	client := setupQuotesTestDB(t)
	repo, err := NewQuoteRepository(client)
	require.NoError(t, err)

	now := time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC)
	seedQuote(t, client, "DEV-20250810-090000", "Vandenberghe", "v.b@example.com", now)
	seedQuote(t, client, "DEV-20250810-091000", "Peeters", "peeters@example.com", now.Add(time.Minute))

	byName, err := repo.List(context.Background(), ListQuotesParams{Search: "vanden"})
	require.NoError(t, err)
	require.Len(t, byName.Items, 1)
	assert.Equal(t, "Vandenberghe", byName.Items[0].LastName)

	byEmail, err := repo.List(context.Background(), ListQuotesParams{Search: "PEETERS@"})
	require.NoError(t, err)
	require.Len(t, byEmail.Items, 1)

	byNumber, err := repo.List(context.Background(), ListQuotesParams{Search: "091000"})
	require.NoError(t, err)
	require.Len(t, byNumber.Items, 1)
}

func TestQuoteRepositoryGet(t *testing.T) {
	client := setupQuotesTestDB(t)
	repo, err := NewQuoteRepository(client)
	require.NoError(t, err)

	seedQuote(t, client, "DEV-20250815-120000", "Durand", "durand@example.com", time.Now())

	summary, err := repo.Get(context.Background(), "DEV-20250815-120000")
	require.NoError(t, err)
	assert.Equal(t, "Durand", summary.LastName)
	assert.Equal(t, 149.99, summary.TotalEUR)

	_, err = repo.Get(context.Background(), "DEV-00000000-000000")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
