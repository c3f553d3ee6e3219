package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"expense_tracker/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestCreateExpenseAppliesDefaults(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	alice, token := createUser(t, db, "alice")
	project := createProject(t, db, alice, "trip", 100)

	before := time.Now()
	w := doRequest(t, r, http.MethodPost, "/expense/project/"+itoa(project.ID), token, map[string]any{
		"amount": 12.5,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var expense domain.Expense
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &expense))
	require.Equal(t, 12.5, expense.Amount)
	require.Equal(t, "uncategorized", expense.Category)
	require.Empty(t, expense.Description)
	require.False(t, expense.Date.Before(before.Add(-time.Second)))

	// The record was persisted
	var count int64
	require.NoError(t, db.Model(&domain.Expense{}).Where("project_id = ?", project.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateExpenseMissingAmount(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	alice, token := createUser(t, db, "alice")
	project := createProject(t, db, alice, "trip", 100)

	for name, body := range map[string]map[string]any{
		"absent": {"category": "food"},
		"null":   {"amount": nil},
	} {
		t.Run(name, func(t *testing.T) {
			w := doRequest(t, r, http.MethodPost, "/expense/project/"+itoa(project.ID), token, body)
			requireFailure(t, w, http.StatusBadRequest, CodeInvalidBody)
		})
	}

	// Nothing was persisted
	var count int64
	require.NoError(t, db.Model(&domain.Expense{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateExpenseRequiresMembership(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	alice, _ := createUser(t, db, "alice")
	_, bobToken := createUser(t, db, "bob")
	project := createProject(t, db, alice, "trip", 100)

	w := doRequest(t, r, http.MethodPost, "/expense/project/"+itoa(project.ID), bobToken, map[string]any{
		"amount": 10.0,
	})
	requireFailure(t, w, http.StatusNotFound, CodeNotFound)
}

func TestListExpensesSortedByDateDescending(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	alice, token := createUser(t, db, "alice")
	project := createProject(t, db, alice, "trip", 100)

	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	for i, amount := range []float64{10, 20, 30} {
		expense := domain.Expense{
			ProjectID: project.ID,
			Amount:    amount,
			Category:  "uncategorized",
			Date:      base.AddDate(0, 0, i), // later expenses have later dates
		}
		require.NoError(t, db.Create(&expense).Error)
	}

	w := doRequest(t, r, http.MethodGet, "/expense/project/"+itoa(project.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var expenses []domain.Expense
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &expenses))
	require.Len(t, expenses, 3)
	require.Equal(t, []float64{30, 20, 10}, []float64{expenses[0].Amount, expenses[1].Amount, expenses[2].Amount})
}

func TestListExpensesRequiresMembership(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	alice, _ := createUser(t, db, "alice")
	_, bobToken := createUser(t, db, "bob")
	project := createProject(t, db, alice, "trip", 100)

	w := doRequest(t, r, http.MethodGet, "/expense/project/"+itoa(project.ID), bobToken, nil)
	requireFailure(t, w, http.StatusNotFound, CodeNotFound)
}

func TestTotalSumsAllExpenses(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	alice, token := createUser(t, db, "alice")
	project := createProject(t, db, alice, "trip", 100)

	for _, amount := range []float64{10, 20.5, 5} {
		w := doRequest(t, r, http.MethodPost, "/expense/project/"+itoa(project.ID), token, map[string]any{
			"amount": amount,
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(t, r, http.MethodGet, "/expense/project/"+itoa(project.ID)+"/total", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var total TotalResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &total))
	require.Equal(t, 35.5, total.Total)
}

func TestTotalIsZeroWithoutExpenses(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	alice, token := createUser(t, db, "alice")
	project := createProject(t, db, alice, "trip", 100)

	w := doRequest(t, r, http.MethodGet, "/expense/project/"+itoa(project.ID)+"/total", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var total TotalResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &total))
	require.Zero(t, total.Total)
}

func TestTotalRejectsMalformedProjectID(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	_, token := createUser(t, db, "alice")

	w := doRequest(t, r, http.MethodGet, "/expense/project/not-a-number/total", token, nil)
	requireFailure(t, w, http.StatusBadRequest, CodeInvalidBody)
}

func TestTotalRequiresMembership(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	alice, _ := createUser(t, db, "alice")
	_, bobToken := createUser(t, db, "bob")
	project := createProject(t, db, alice, "trip", 100)

	w := doRequest(t, r, http.MethodGet, "/expense/project/"+itoa(project.ID)+"/total", bobToken, nil)
	requireFailure(t, w, http.StatusNotFound, CodeNotFound)
}

func TestDeleteExpense(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	alice, token := createUser(t, db, "alice")
	project := createProject(t, db, alice, "trip", 100)
	expense := domain.Expense{ProjectID: project.ID, Amount: 10, Category: "uncategorized", Date: time.Now()}
	require.NoError(t, db.Create(&expense).Error)

	w := doRequest(t, r, http.MethodDelete, "/expense/"+itoa(expense.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decodeEnvelope(t, w).OK)

	var count int64
	require.NoError(t, db.Model(&domain.Expense{}).Where("id = ?", expense.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestDeleteExpenseNotFound(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	_, token := createUser(t, db, "alice")

	w := doRequest(t, r, http.MethodDelete, "/expense/424242", token, nil)
	requireFailure(t, w, http.StatusNotFound, CodeNotFound)
}

func TestDeleteExpenseRequiresMembershipOfOwningProject(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	alice, _ := createUser(t, db, "alice")
	_, bobToken := createUser(t, db, "bob")
	project := createProject(t, db, alice, "trip", 100)
	expense := domain.Expense{ProjectID: project.ID, Amount: 10, Category: "uncategorized", Date: time.Now()}
	require.NoError(t, db.Create(&expense).Error)

	w := doRequest(t, r, http.MethodDelete, "/expense/"+itoa(expense.ID), bobToken, nil)
	requireFailure(t, w, http.StatusNotFound, CodeNotFound)

	// The expense survived
	var count int64
	require.NoError(t, db.Model(&domain.Expense{}).Where("id = ?", expense.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
