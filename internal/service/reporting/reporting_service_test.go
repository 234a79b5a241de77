package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/smallflock/coopkeeper/internal/domain/models"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSummarizeSalesSplitsGiftsFromRevenue(t *testing.T) {
	alice := models.Customer{ID: "11111111-1111-4111-8111-111111111111", Name: "Alice"}
	bob := models.Customer{ID: "22222222-2222-4222-8222-222222222222", Name: "Bob"}

	sales := []models.Sale{
		{CustomerID: alice.ID, Customer: &alice, DozenCount: 2, TotalAmount: 12},
		{CustomerID: bob.ID, Customer: &bob, DozenCount: 1, IndividualCount: 6, TotalAmount: 9},
		{CustomerID: bob.ID, Customer: &bob, IndividualCount: 4, TotalAmount: 0},
	}

	summary := SummarizeSales(sales)

	assert.Equal(t, 3, summary.TotalSales)
	assert.Equal(t, 21.0, summary.TotalRevenue)
	assert.Equal(t, 42, summary.TotalEggsSold)
	assert.Equal(t, 4, summary.FreeEggsGiven)
	assert.Equal(t, alice.ID, summary.TopCustomerID)
	assert.Equal(t, "Alice", summary.TopCustomer)
}

func TestSummarizeSalesTieBreaksOnSmallestCustomerID(t *testing.T) {
	first := models.Customer{ID: "11111111-1111-4111-8111-111111111111", Name: "First"}
	second := models.Customer{ID: "99999999-9999-4999-8999-999999999999", Name: "Second"}

	sales := []models.Sale{
		{CustomerID: second.ID, Customer: &second, DozenCount: 1, TotalAmount: 6},
		{CustomerID: first.ID, Customer: &first, DozenCount: 1, TotalAmount: 6},
	}

	summary := SummarizeSales(sales)
	assert.Equal(t, first.ID, summary.TopCustomerID)
	assert.Equal(t, "First", summary.TopCustomer)
}

func TestSummarizeSalesAllGifts(t *testing.T) {
	summary := SummarizeSales([]models.Sale{
		{CustomerID: "11111111-1111-4111-8111-111111111111", IndividualCount: 6},
	})

	assert.Equal(t, 1, summary.TotalSales)
	assert.Equal(t, 0.0, summary.TotalRevenue)
	assert.Equal(t, 6, summary.FreeEggsGiven)
	assert.Empty(t, summary.TopCustomerID)
	assert.Empty(t, summary.TopCustomer)
}

func TestPercentageChange(t *testing.T) {
	assert.Equal(t, 0.0, PercentageChange(0, 50))
	assert.Equal(t, 0.0, PercentageChange(-10, 50))
	assert.Equal(t, 50.0, PercentageChange(100, 150))
	assert.Equal(t, -25.0, PercentageChange(100, 75))
	assert.Equal(t, 33.3, PercentageChange(30, 40))
}

func TestSummarizeEggs(t *testing.T) {
	now := day("2026-08-15")
	entries := []models.EggEntry{
		{Date: day("2026-08-01"), Count: 10},
		{Date: day("2026-08-01"), Count: 2},
		{Date: day("2026-08-03"), Count: 8},
		{Date: day("2026-07-20"), Count: 10},
		{Date: day("2026-01-01"), Count: 100},
	}

	summary := SummarizeEggs(entries, now)

	assert.Equal(t, 130, summary.TotalEggs)
	assert.Equal(t, 5, summary.TotalEntries)
	assert.Equal(t, 20, summary.CurrentMonthTotal)
	assert.Equal(t, 10, summary.PreviousMonthTotal)
	assert.Equal(t, 100.0, summary.PercentageChange)

	assert.Equal(t, []DailyTotal{
		{Date: "2026-01-01", Count: 100},
		{Date: "2026-07-20", Count: 10},
		{Date: "2026-08-01", Count: 12},
		{Date: "2026-08-03", Count: 8},
	}, summary.DailyTotals)
}

func TestMonthlyExpenseTotals(t *testing.T) {
	totals := MonthlyExpenseTotals([]models.Expense{
		{Date: day("2026-03-10"), Amount: 25},
		{Date: day("2026-03-20"), Amount: 10},
		{Date: day("2026-01-05"), Amount: 40},
	})

	assert.Equal(t, []MonthlyTotal{
		{Month: "2026-01", Total: 40},
		{Month: "2026-03", Total: 35},
	}, totals)
}

func TestCategoryBreakdown(t *testing.T) {
	totals := CategoryBreakdown([]models.Expense{
		{Category: "feed", Amount: 30},
		{Category: "feed", Amount: 20},
		{Category: "bedding", Amount: 50},
		{Category: "", Amount: 5},
	})

	assert.Equal(t, []CategoryTotal{
		{Category: "bedding", Total: 50},
		{Category: "feed", Total: 50},
		{Category: "Other", Total: 5},
	}, totals)
}
