package ui

import (
	"fmt"

	"fabric-bridge/internal/domain"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

type pipelineRowData struct {
	Name       string
	Activities int
	References int
	Mapped     int
	Percent    int
}

type skipRowData struct {
	SourceType string
	FabricType string
	Decision   string
	Tone       string
	Message    string
}

type sessionDetailPageData struct {
	Principal domain.ContextPrincipal
	Session   domain.MigrationSession
	Summary   domain.SessionSummary
	Pipelines []pipelineRowData
	SkipPlan  []skipRowData
}

func sessionDetailPage(d sessionDetailPageData) gomponents.Node {
	pipelineRows := make([]gomponents.Node, 0, len(d.Pipelines))
	for i := range d.Pipelines {
		p := d.Pipelines[i]
		pipelineRows = append(pipelineRows, html.Tr(
			html.Td(gomponents.Text(p.Name)),
			html.Td(gomponents.Text(fmt.Sprintf("%d", p.Activities))),
			html.Td(gomponents.Text(fmt.Sprintf("%d", p.References))),
			html.Td(gomponents.Text(fmt.Sprintf("%d", p.Mapped))),
			html.Td(progressBar(p.Percent), html.Span(html.Class(mutedClass()), gomponents.Text(fmt.Sprintf(" %d%%", p.Percent)))),
		))
	}

	skipRows := make([]gomponents.Node, 0, len(d.SkipPlan))
	for i := range d.SkipPlan {
		s := d.SkipPlan[i]
		skipRows = append(skipRows, html.Tr(
			html.Td(gomponents.Text(s.SourceType)),
			html.Td(gomponents.Text(s.FabricType)),
			html.Td(statusLabel(s.Decision, s.Tone)),
			html.Td(html.Span(html.Class(mutedClass()), gomponents.Text(s.Message))),
		))
	}

	readyText := "Mapping in progress"
	readyTone := "attention"
	if d.Summary.ReadyToDeploy {
		readyText = "All pipelines fully mapped"
		readyTone = "success"
	}

	body := []gomponents.Node{
		html.Div(html.Class(cardClass()),
			html.P(gomponents.Text("Factory: "+orDash(d.Session.FactoryName))),
			html.P(gomponents.Text("Created by: "+orDash(d.Session.CreatedBy))),
			html.P(gomponents.Text("Last updated: "+formatTime(d.Session.UpdatedAt))),
			statusLabel(readyText, readyTone),
		),
		html.Div(html.Class(cardClass("table-wrap")),
			html.H2(gomponents.Text("Pipelines")),
			html.Table(
				html.THead(html.Tr(
					html.Th(gomponents.Text("Pipeline")),
					html.Th(gomponents.Text("Activities")),
					html.Th(gomponents.Text("References")),
					html.Th(gomponents.Text("Mapped")),
					html.Th(gomponents.Text("Progress")),
				)),
				html.TBody(gomponents.Group(pipelineRows)),
			),
		),
	}

	if len(d.SkipPlan) > 0 {
		body = append(body, html.Div(html.Class(cardClass("table-wrap")),
			html.H2(gomponents.Text("Connector skip plan")),
			html.Table(
				html.THead(html.Tr(
					html.Th(gomponents.Text("Source type")),
					html.Th(gomponents.Text("Fabric type")),
					html.Th(gomponents.Text("Decision")),
					html.Th(gomponents.Text("Detail")),
				)),
				html.TBody(gomponents.Group(skipRows)),
			),
		))
	}

	body = append(body, html.Div(html.Class(cardClass()),
		html.A(html.Href("/v1/sessions/"+d.Session.ID+"/export/components.csv"), gomponents.Text("Download component CSV")),
		html.Span(gomponents.Text(" | ")),
		html.A(html.Href("/v1/sessions/"+d.Session.ID+"/export/pipelines.csv"), gomponents.Text("Download pipeline CSV")),
	))

	return appPage("Session: "+d.Session.Name, "sessions", d.Principal, body...)
}
