// Package app holds the demo application wired by the go-inject CLI: a
// handful of services showing shared and private lifetimes, tags, late
// binding and route handlers resolved from the container.
package app

import (
	"net/http"

	"github.com/km-arc/go-inject/framework/container"
	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/routing"
)

// ReportsTag groups the report services.
const ReportsTag = "reports"

// AppServiceProvider registers the demo services and routes.
//
// Services:
//   - "report.uptime", "report.services"  tagged "reports"
//   - "reports.handler"  renders every report (GET /reports)
//   - "mailer"           private, late-bound "log"
//   - "mail.handler"     sends through a fresh mailer (POST /mail/{to})
type AppServiceProvider struct {
	container.BaseProvider
}

func (p *AppServiceProvider) Register(app *container.Container) error {
	if !app.HasParameter("mail.from") {
		app.SetParameter("mail.from", "noreply@localhost")
	}

	container.AutoTagImplements[Report](app, ReportsTag)

	defs := []container.Definition{
		{Name: "clock", Target: container.Class("Clock", NewClock)},
		{Name: "report.uptime", Target: container.Class("UptimeReport", NewUptimeReport, "clock")},
		{Name: "report.services", Target: container.Class("ServicesReport", NewServicesReport)},
		{
			Name:   "reports.handler",
			Target: container.Class("ReportsHandler", NewReportsHandler, "$$"+ReportsTag),
		},
		{
			Name:       "mailer",
			Target:     container.Class("Mailer", NewMailer, "$mail.from"),
			Private:    true,
			Properties: map[string]container.Property{"Log": {Source: "log", LateBinding: true}},
		},
		{Name: "mail.handler", Target: container.Class("MailHandler", NewMailHandler, "mailer"), Private: true},
	}
	for _, d := range defs {
		if err := app.Register(d); err != nil {
			return err
		}
	}
	return nil
}

func (p *AppServiceProvider) Boot(app *container.Container) error {
	router, err := container.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}

	router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{
			"message":  "Welcome to go-inject!",
			"services": app.Size(),
		})
	})
	router.Get("/reports", "reports.handler")
	router.Post("/mail/{to}", "mail.handler")
	return nil
}
