package report

import (
	"net/url"
	"strings"
)

// DefaultDashboardBase opens the profitability analysis on the demo Spotfire server.
const DefaultDashboardBase = "http://54.197.21.167/spotfire/wp/OpenAnalysis?file=/Hackathon/Master%20Wordsmith%20Demo2"

// DashboardURL deep-links into the dashboard with the state marked on the geography page.
// Single quotes in state are doubled inside the where clause, and the block
// is escaped as a query value.
func DashboardURL(base, state string) string {
	if base == "" {
		base = DefaultDashboardBase
	}
	return base + "&configurationBlock=" + url.QueryEscape(configurationBlock(state))
}

func configurationBlock(state string) string {
	where := "State='" + strings.ReplaceAll(state, "'", "''") + "'"
	return `aiProfitTrigger=9998;` +
		`SetPage(pageTitle="Profitability by Geography");` +
		`SetMarking(markingName="MapMarking",tableName="Superstore_Sales_r",` +
		`whereClause="` + where + `",operation=Replace);`
}
