package reporting

import (
	"math"
	"sort"
	"time"

	"github.com/smallflock/coopkeeper/internal/domain/models"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// SalesSummary is the reduced shape returned by the sales summary endpoint.
type SalesSummary struct {
	TotalSales    int     `json:"totalSales"`
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalEggsSold int     `json:"totalEggsSold"`
	FreeEggsGiven int     `json:"freeEggsGiven"`
	TopCustomer   string  `json:"topCustomer,omitempty"`
	TopCustomerID string  `json:"topCustomerId,omitempty"`
}

// MonthlyTotal is one month bucket of a trend series.
type MonthlyTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// DailyTotal is one day bucket of an egg-production series.
type DailyTotal struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CategoryTotal is one bucket of an expense category breakdown.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// EggSummary is the reduced shape returned by the egg summary endpoint.
type EggSummary struct {
	TotalEggs          int          `json:"totalEggs"`
	TotalEntries       int          `json:"totalEntries"`
	CurrentMonthTotal  int          `json:"currentMonthTotal"`
	PreviousMonthTotal int          `json:"previousMonthTotal"`
	PercentageChange   float64      `json:"percentageChange"`
	DailyTotals        []DailyTotal `json:"dailyTotals"`
}

// SummarizeSales reduces sale rows into totals. Rows with a zero total amount
// are gifts: excluded from revenue and the paid egg count, summed separately
// as free eggs. The top customer is the one with the most eggs across paid
// sales, ties broken by the smallest customer id so the result is stable.
func SummarizeSales(sales []models.Sale) SalesSummary {
	summary := SalesSummary{TotalSales: len(sales)}

	eggsByCustomer := make(map[string]int)
	namesByCustomer := make(map[string]string)

	for _, sale := range sales {
		eggs := sale.EggsMoved()
		if sale.IsGift() {
			summary.FreeEggsGiven += eggs
			continue
		}

		summary.TotalRevenue += sale.TotalAmount
		summary.TotalEggsSold += eggs
		eggsByCustomer[sale.CustomerID] += eggs
		if sale.Customer != nil {
			namesByCustomer[sale.CustomerID] = sale.Customer.Name
		}
	}

	customerIDs := make([]string, 0, len(eggsByCustomer))
	for customerID := range eggsByCustomer {
		customerIDs = append(customerIDs, customerID)
	}
	sort.Strings(customerIDs)

	// Iterating in sorted id order with a strict comparison resolves ties in
	// favor of the smallest customer id.
	bestEggs := 0
	bestID := ""
	for _, customerID := range customerIDs {
		if eggsByCustomer[customerID] > bestEggs {
			bestEggs = eggsByCustomer[customerID]
			bestID = customerID
		}
	}
	if bestID != "" {
		summary.TopCustomerID = bestID
		summary.TopCustomer = namesByCustomer[bestID]
	}

	return summary
}

// PercentageChange computes the month-over-month delta rounded to one decimal
// place. A zero or negative baseline yields 0, never NaN or Infinity.
func PercentageChange(previous, current float64) float64 {
	if previous <= 0 {
		return 0
	}
	change := (current - previous) / previous * 100
	return math.Round(change*10) / 10
}

// SummarizeEggs reduces egg entries into production totals with a
// month-over-month delta relative to now.
func SummarizeEggs(entries []models.EggEntry, now time.Time) EggSummary {
	summary := EggSummary{TotalEntries: len(entries)}

	currentMonth := now.Format(monthLayout)
	previousMonth := now.AddDate(0, -1, 0).Format(monthLayout)

	for _, entry := range entries {
		summary.TotalEggs += entry.Count
		switch entry.Date.Format(monthLayout) {
		case currentMonth:
			summary.CurrentMonthTotal += entry.Count
		case previousMonth:
			summary.PreviousMonthTotal += entry.Count
		}
	}

	summary.PercentageChange = PercentageChange(
		float64(summary.PreviousMonthTotal), float64(summary.CurrentMonthTotal))
	summary.DailyTotals = DailyEggTotals(entries)

	return summary
}

// DailyEggTotals groups entries by exact date and sums the counts, returning
// the series sorted ascending by date.
func DailyEggTotals(entries []models.EggEntry) []DailyTotal {
	byDate := make(map[string]int)
	for _, entry := range entries {
		byDate[entry.Date.Format(dateLayout)] += entry.Count
	}

	totals := make([]DailyTotal, 0, len(byDate))
	for date, count := range byDate {
		totals = append(totals, DailyTotal{Date: date, Count: count})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })
	return totals
}

// MonthlyExpenseTotals groups expenses by truncated YYYY-MM key and sums the
// amounts, returning the series sorted ascending by month.
func MonthlyExpenseTotals(expenses []models.Expense) []MonthlyTotal {
	byMonth := make(map[string]float64)
	for _, expense := range expenses {
		byMonth[expense.Date.Format(monthLayout)] += expense.Amount
	}

	totals := make([]MonthlyTotal, 0, len(byMonth))
	for month, total := range byMonth {
		totals = append(totals, MonthlyTotal{Month: month, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Month < totals[j].Month })
	return totals
}

// CategoryBreakdown sums expense amounts per category, folding missing
// categories into a literal "Other" bucket. The result is sorted by total
// descending, then category ascending, so equal rows always order the same.
func CategoryBreakdown(expenses []models.Expense) []CategoryTotal {
	byCategory := make(map[string]float64)
	for _, expense := range expenses {
		category := expense.Category
		if category == "" {
			category = "Other"
		}
		byCategory[category] += expense.Amount
	}

	totals := make([]CategoryTotal, 0, len(byCategory))
	for category, total := range byCategory {
		totals = append(totals, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}
