package components

import (
	"context"
	"html/template"
	"io"
	"sync"

	"github.com/a-h/templ"
	"github.com/kabili207/device-dashboard/internal/web"
)

var dashboardTemplate = sync.OnceValues(func() (*template.Template, error) {
	return web.GetHTMLTemplate("dashboard")
})

func fragment(name string, data any) templ.Component {
	tmpl, err := dashboardTemplate()
	if err != nil {
		return templ.ComponentFunc(func(_ context.Context, _ io.Writer) error {
			return err
		})
	}
	return templ.FromGoHTML(tmpl.Lookup(name), data)
}

// DashboardPage renders the full page.
func DashboardPage(data DashboardPageData) templ.Component {
	return fragment("page", data)
}

// DashboardContent renders the part of the page that is replaced on every
// update.
func DashboardContent(data DashboardData) templ.Component {
	return fragment("dashboard_content", data)
}
