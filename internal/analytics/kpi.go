package analytics

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/realty-erp/realty-erp/internal/ledger"
)

// KPI labels in dashboard order.
const (
	KPITotalRevenue    = "Total Revenue (YTD)"
	KPIActiveProjects  = "Active Projects"
	KPIClientBase      = "Client Base"
	KPITeamUtilization = "Team Utilization"
)

// Change annotations and the utilisation figure are fixed placeholders.
const (
	changeTotalRevenue    = "+28%"
	changeActiveProjects  = "+4"
	changeClientBase      = "+6"
	valueTeamUtilization  = "87%"
	changeTeamUtilization = "+5%"
)

var (
	paisePerLakh = decimal.NewFromInt(100 * 100_000)
	indianLocale = language.MustParse("en-IN")
)

// KPI is a labelled dashboard figure.
type KPI struct {
	Title  string `json:"title"`
	Value  string `json:"value"`
	Change string `json:"change"`
}

// StatusCount is one bucket of the project status histogram.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// TotalRevenue sums every invoice amount, paid or not.
func TotalRevenue(invoices []ledger.Invoice) int64 {
	var total int64
	for _, inv := range invoices {
		total += inv.Amount
	}
	return total
}

// StatusHistogram counts project statuses in order of first appearance.
func StatusHistogram(projects []ledger.Project) []StatusCount {
	out := make([]StatusCount, 0)
	index := make(map[string]int)
	for _, p := range projects {
		i, ok := index[p.Status]
		if !ok {
			index[p.Status] = len(out)
			out = append(out, StatusCount{Status: p.Status, Count: 1})
			continue
		}
		out[i].Count++
	}
	return out
}

// FormatLakhs renders a paise amount as rupee lakhs with two decimals,
// e.g. 123456789 paise -> "₹12.35L".
func FormatLakhs(paise int64) string {
	lakhs := decimal.NewFromInt(paise).Div(paisePerLakh).Round(2)
	sign := ""
	if lakhs.IsNegative() {
		sign = "-"
		lakhs = lakhs.Neg()
	}
	// The whole part is grouped as an integer and the fraction is taken from
	// the decimal itself, so no digit passes through a float.
	_, frac, _ := strings.Cut(lakhs.StringFixed(2), ".")
	p := message.NewPrinter(indianLocale)
	return p.Sprintf("₹%s%v.%sL", sign, number.Decimal(lakhs.IntPart()), frac)
}

// BuildKPIs derives the four fixed dashboard cards.
func BuildKPIs(totalRevenue int64, projects, clients int) []KPI {
	return []KPI{
		{Title: KPITotalRevenue, Value: FormatLakhs(totalRevenue), Change: changeTotalRevenue},
		{Title: KPIActiveProjects, Value: strconv.Itoa(projects), Change: changeActiveProjects},
		{Title: KPIClientBase, Value: strconv.Itoa(clients), Change: changeClientBase},
		{Title: KPITeamUtilization, Value: valueTeamUtilization, Change: changeTeamUtilization},
	}
}
