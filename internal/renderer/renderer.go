package renderer

import (
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed views
var views embed.FS

// PageData is what every full page receives
type PageData struct {
	Title       string
	Backend     string
	AuthEnabled bool
	CSRFToken   string
}

// TemplateRenderer implements echo.Renderer
type TemplateRenderer struct {
	Templates map[string]*template.Template
}

// New creates a new TemplateRenderer with pre-parsed templates
func New() *TemplateRenderer {
	r := &TemplateRenderer{
		Templates: make(map[string]*template.Template),
	}
	r.parseTemplates()
	return r
}

func (t *TemplateRenderer) parseTemplates() {
	// Layout + page + the dialogs every page can open
	parse := func(name, pageFile string) {
		t.Templates[name] = template.Must(template.ParseFS(views,
			"views/layouts/base.html",
			"views/partials/confirm_dialog.html",
			"views/partials/login_dialog.html",
			"views/partials/preview_dialog.html",
			"views/pages/"+pageFile,
		))
	}

	parse("index", "index.html")
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.Templates[name]
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Template not found: "+name)
	}

	return tmpl.ExecuteTemplate(w, "base", data)
}
