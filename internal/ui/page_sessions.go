package ui

import (
	"fabric-bridge/internal/domain"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

type sessionRowData struct {
	Filter   string
	Name     string
	URL      string
	Factory  string
	Progress int
	Ready    bool
	Updated  string
}

func sessionsListPage(principal domain.ContextPrincipal, rows []sessionRowData, page domain.PageRequest, total int64) gomponents.Node {
	tableRows := make([]gomponents.Node, 0, len(rows))
	for i := range rows {
		row := rows[i]
		readyCell := statusLabel("in progress", "attention")
		if row.Ready {
			readyCell = statusLabel("ready", "success")
		}
		tableRows = append(tableRows, html.Tr(
			data.Show(containsExpr(row.Filter)),
			html.Td(html.A(html.Href(row.URL), gomponents.Text(row.Name))),
			html.Td(gomponents.Text(orDash(row.Factory))),
			html.Td(progressBar(row.Progress)),
			html.Td(readyCell),
			html.Td(gomponents.Text(row.Updated)),
		))
	}
	return appPage(
		"Sessions",
		"sessions",
		principal,
		html.Div(
			data.Signals(map[string]any{"q": ""}),
			html.Div(html.Class(cardClass()),
				html.Label(gomponents.Text("Quick filter")),
				html.Input(html.Type("text"), html.Class("form-control"), data.Bind("q"), html.Placeholder("Filter by session name")),
			),
			html.Div(html.Class(cardClass("table-wrap")),
				html.Table(
					html.THead(html.Tr(
						html.Th(gomponents.Text("Name")),
						html.Th(gomponents.Text("Factory")),
						html.Th(gomponents.Text("Mapped")),
						html.Th(gomponents.Text("Status")),
						html.Th(gomponents.Text("Updated")),
					)),
					html.TBody(gomponents.Group(tableRows)),
				),
			),
		),
		paginationCard("/ui", page, total),
	)
}
