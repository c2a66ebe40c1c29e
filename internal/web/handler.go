// Package web serves a small read-only audit UI over recorded wizard runs.
package web

import (
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rafeenoor/abflow/internal/flowlog"
)

// Handler handles web UI requests
type Handler struct {
	store     *flowlog.Store
	templates *template.Template
}

// NewHandler creates a new web handler
func NewHandler(store *flowlog.Store) (*Handler, error) {
	tmpl, err := template.New("flows").Funcs(template.FuncMap{
		"statusColor": statusColor,
		"statusIcon":  statusIcon,
	}).Parse(flowTemplates)
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:     store,
		templates: tmpl,
	}, nil
}

// RegisterRoutes registers web UI routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/flows", h.handleFlowList).Methods("GET")
	r.HandleFunc("/flows/{id}", h.handleFlowDetail).Methods("GET")
}

// handleFlowList renders the flow list page
func (h *Handler) handleFlowList(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Flows []*flowlog.Flow
	}{
		Flows: h.store.List(),
	}

	if err := h.templates.ExecuteTemplate(w, "flow_list", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleFlowDetail renders one flow's detail page
func (h *Handler) handleFlowDetail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	flow, ok := h.store.Get(vars["id"])
	if !ok {
		http.Error(w, "Flow not found", http.StatusNotFound)
		return
	}

	data := struct {
		Flow *flowlog.Flow
	}{
		Flow: flow,
	}

	if err := h.templates.ExecuteTemplate(w, "flow_detail", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Helper functions for templates
func statusColor(status flowlog.FlowStatus) string {
	switch status {
	case flowlog.StatusSucceeded:
		return "#198754"
	case flowlog.StatusFailed:
		return "#dc3545"
	default:
		return "#6c757d"
	}
}

func statusIcon(status flowlog.FlowStatus) string {
	switch status {
	case flowlog.StatusSucceeded:
		return "✓"
	case flowlog.StatusFailed:
		return "✗"
	default:
		return "○"
	}
}

const flowTemplates = `
{{define "flow_list"}}<!DOCTYPE html>
<html>
<head><title>abflow — runs</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #dee2e6; }
</style>
</head>
<body>
<h1>Wizard runs</h1>
<table>
<tr><th></th><th>Client</th><th>Test</th><th>Action</th><th>Actor</th><th>When</th></tr>
{{range .Flows}}
<tr>
<td style="color: {{statusColor .Status}}">{{statusIcon .Status}}</td>
<td>{{.ClientID}}</td>
<td><a href="/flows/{{.ID}}">{{.TestName}}</a></td>
<td>{{.Action}}</td>
<td>{{.Actor}}</td>
<td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
</tr>
{{else}}
<tr><td colspan="6">No runs recorded yet.</td></tr>
{{end}}
</table>
</body>
</html>{{end}}

{{define "flow_detail"}}<!DOCTYPE html>
<html>
<head><title>abflow — {{.Flow.TestName}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
li { font-family: monospace; }
</style>
</head>
<body>
<h1 style="color: {{statusColor .Flow.Status}}">{{statusIcon .Flow.Status}} {{.Flow.ClientID}} / {{.Flow.TestName}}</h1>
<p>{{.Flow.Action}} by {{.Flow.Actor}} at {{.Flow.CreatedAt.Format "2006-01-02 15:04:05"}}</p>
{{if .Flow.Error}}<p><strong>Error:</strong> {{.Flow.Error}}{{if .Flow.FailedPath}} (at {{.Flow.FailedPath}}){{end}}</p>{{end}}
<h2>Files written</h2>
<ul>
{{range .Flow.Written}}<li>{{.}}</li>{{else}}<li>none</li>{{end}}
</ul>
<h2>Log</h2>
<ul>
{{range .Flow.Logs}}<li>[{{.Level}}] {{.Message}}</li>{{end}}
</ul>
<p><a href="/flows">&larr; all runs</a></p>
</body>
</html>{{end}}
`
