package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/local-library/catalog/internal/model"
)

func TestStatus_Code(t *testing.T) {
	t.Parallel()
	for _, s := range []model.Status{
		model.StatusMaintenance,
		model.StatusOnLoan,
		model.StatusAvailable,
		model.StatusReserved,
	} {
		require.True(t, s.Valid())
		require.Equal(t, s, model.StatusFromCode(s.Code()))
	}
	require.False(t, model.Status("LOST").Valid())
	require.Equal(t, model.StatusMaintenance, model.StatusFromCode("x"))
}

func TestBook_DisplayGenre(t *testing.T) {
	t.Parallel()
	b := model.Book{Genres: []model.Genre{{Name: "Fantasy"}, {Name: "Poetry"}, {Name: "Horror"}, {Name: "Drama"}}}
	require.Equal(t, "Fantasy, Poetry, Horror", b.DisplayGenre())
	require.Equal(t, "", model.Book{}.DisplayGenre())
}

func TestAuthor_String(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Herbert, Frank", model.Author{FirstName: "Frank", LastName: "Herbert"}.String())
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()
	var req model.BorrowRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dueBack":"2024-03-31"}`), &req))
	require.True(t, model.NewDate(2024, time.March, 31).Equal(req.DueBack))

	b, err := json.Marshal(req.DueBack)
	require.NoError(t, err)
	require.Equal(t, `"2024-03-31"`, string(b))

	require.Error(t, json.Unmarshal([]byte(`{"dueBack":"31.03.2024"}`), &req))
}
