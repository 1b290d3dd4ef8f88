package web

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// AddPageData feeds the add-event form template.
type AddPageData struct {
	// CSRFField is the hidden input emitted by the CSRF middleware.
	CSRFField template.HTML
}

// ManageEventView is one event as shown on the manage page. All string
// fields are plain text; html/template escapes them on output.
type ManageEventView struct {
	ID          string
	Title       string
	Location    string
	URL         string
	Tags        string
	Description string
	// DescriptionPreview is sanitized HTML and rendered as-is.
	DescriptionPreview template.HTML
	StartLocal         string
	EndLocal           string
	Meta               string
	Image              string
}

// ManagePageData feeds the manage page template.
type ManagePageData struct {
	CSRFField template.HTML
	Events    []ManageEventView
	Error     string
	Success   string
}

// RenderAddPage writes the add-event form.
func RenderAddPage(w io.Writer, data AddPageData) error {
	return pageTemplates.ExecuteTemplate(w, "admin_add.html", data)
}

// RenderManagePage writes the manage page with inline edit forms.
func RenderManagePage(w io.Writer, data ManagePageData) error {
	return pageTemplates.ExecuteTemplate(w, "admin_manage.html", data)
}
