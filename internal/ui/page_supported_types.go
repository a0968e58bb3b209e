package ui

import (
	"fabric-bridge/internal/domain"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

func supportedTypesPage(principal domain.ContextPrincipal, snap domain.SupportedTypesSnapshot) gomponents.Node {
	statusCard := html.Div(html.Class(cardClass()),
		html.P(gomponents.Text("Verification status: ")),
		statusLabel(string(snap.Status), verificationTone(snap.Status)),
		html.P(html.Class(mutedClass()), gomponents.Text("Fetched at: "+formatTime(snap.FetchedAt))),
	)

	if snap.Status != domain.VerificationAvailable {
		return appPage("Supported types", "supported-types", principal,
			statusCard,
			html.Div(html.Class(cardClass()),
				html.P(gomponents.Text("The supported-connector list could not be fetched. Connector types are not being filtered; every connector is treated as available.")),
			),
		)
	}

	rows := make([]gomponents.Node, 0, len(snap.Types))
	for _, t := range snap.Types {
		rows = append(rows, html.Tr(
			data.Show(containsExpr(t)),
			html.Td(gomponents.Text(t)),
		))
	}

	return appPage("Supported types", "supported-types", principal,
		statusCard,
		html.Div(
			data.Signals(map[string]any{"q": ""}),
			html.Div(html.Class(cardClass()),
				html.Label(gomponents.Text("Quick filter")),
				html.Input(html.Type("text"), html.Class("form-control"), data.Bind("q"), html.Placeholder("Filter connector types")),
			),
			html.Div(html.Class(cardClass("table-wrap")),
				html.Table(
					html.THead(html.Tr(html.Th(gomponents.Text("Connector type")))),
					html.TBody(gomponents.Group(rows)),
				),
			),
		),
	)
}

func verificationTone(status domain.VerificationStatus) string {
	if status == domain.VerificationAvailable {
		return "success"
	}
	return "attention"
}
