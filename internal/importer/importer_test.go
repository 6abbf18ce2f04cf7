package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"foodorder/internal/domain"
	"foodorder/internal/service/menu"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMenu struct {
	existing []domain.MenuItem
	created  []menu.ItemInput
	failOn   string
}

func (s *stubMenu) ListByOwner(_ context.Context, _ string) ([]domain.MenuItem, error) {
	return s.existing, nil
}

func (s *stubMenu) Create(_ context.Context, ownerID string, in menu.ItemInput) (*domain.MenuItem, error) {
	if in.Name == s.failOn {
		return nil, domain.Invalid("Invalid Price", "Please enter a valid price.")
	}
	s.created = append(s.created, in)
	return &domain.MenuItem{OwnerID: ownerID, Name: in.Name}, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `Name,Description,Price,ImageUrl
Margherita,Tomato and mozzarella,10.50,https://example.com/pizza.jpg
Tiramisu, Coffee dessert ,6,
,,,
Garlic Bread,Toasted,4.25`

	repo := &stubMenu{existing: []domain.MenuItem{{Name: "garlic bread"}}}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, "owner-1")

	res, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 2, Skipped: 1}, res)

	require.Len(t, repo.created, 2)
	assert.Equal(t, menu.ItemInput{Name: "Margherita", Description: "Tomato and mozzarella", Price: "10.50", ImageURL: "https://example.com/pizza.jpg"}, repo.created[0])
	assert.Equal(t, "Coffee dessert", repo.created[1].Description)
	assert.Empty(t, repo.created[1].ImageURL)
}

func TestCSVImporter_DuplicateRowsInFile(t *testing.T) {
	csvData := "name,description,price\nSoda,Fizzy,2\nsoda,Fizzy again,2\n"
	repo := &stubMenu{}

	res, err := NewCSVImporter(strings.NewReader(csvData), repo, "owner-1").Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
}

func TestCSVImporter_RowError(t *testing.T) {
	csvData := "name,description,price\nGood,Fine,1\nBad,Broken,abc\nNever,Reached,2\n"
	repo := &stubMenu{failOn: "Bad"}

	res, err := NewCSVImporter(strings.NewReader(csvData), repo, "owner-1").Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 1, res.Imported)
}

func TestCSVImporter_MissingNameColumn(t *testing.T) {
	_, err := NewCSVImporter(strings.NewReader("title,price\nx,1\n"), &stubMenu{}, "owner-1").Run(context.Background())
	assert.Error(t, err)
}
