package app

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/km-arc/go-inject/framework/container"
	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/routing"
)

// Clock records when the application started.
type Clock struct {
	Started time.Time
}

func NewClock() *Clock { return &Clock{Started: time.Now()} }

// Report is a named snapshot rendered by the reports endpoint.
type Report interface {
	Title() string
	Render() map[string]any
}

// UptimeReport reports how long the process has been serving.
type UptimeReport struct {
	clock *Clock
}

func NewUptimeReport(clock *Clock) *UptimeReport { return &UptimeReport{clock: clock} }

func (r *UptimeReport) Title() string { return "uptime" }

func (r *UptimeReport) Render() map[string]any {
	return map[string]any{
		"started": r.clock.Started.Format(time.RFC3339),
		"uptime":  time.Since(r.clock.Started).Round(time.Second).String(),
	}
}

// ServicesReport summarises the container registry.
type ServicesReport struct {
	c *container.Container
}

func NewServicesReport(c *container.Container) *ServicesReport { return &ServicesReport{c: c} }

func (r *ServicesReport) Title() string { return "services" }

func (r *ServicesReport) Render() map[string]any {
	var resolved int
	for _, name := range r.c.Names() {
		if r.c.Resolved(name) {
			resolved++
		}
	}
	return map[string]any{
		"registered": r.c.Size(),
		"resolved":   resolved,
	}
}

// ReportsHandler renders every tagged report.
type ReportsHandler struct {
	reports []Report
}

// NewReportsHandler receives the members of the reports tag in registration
// order.
func NewReportsHandler(tagged []any) (*ReportsHandler, error) {
	h := &ReportsHandler{}
	for _, v := range tagged {
		r, ok := v.(Report)
		if !ok {
			return nil, fmt.Errorf("app: %T tagged %q is not a Report", v, ReportsTag)
		}
		h.reports = append(h.reports, r)
	}
	return h, nil
}

func (h *ReportsHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]any, len(h.reports))
	for _, r := range h.reports {
		out[r.Title()] = r.Render()
	}
	gohttp.NewResponse(w).Success(out)
}

// Mailer pretends to send mail; the logger is bound lazily.
type Mailer struct {
	From string
	Log  container.Lazy[*logrus.Logger]
	sent atomic.Int64
}

func NewMailer(from string) *Mailer { return &Mailer{From: from} }

func (m *Mailer) Send(to string) error {
	l, err := m.Log.Get()
	if err != nil {
		return err
	}
	m.sent.Add(1)
	l.WithFields(logrus.Fields{"from": m.From, "to": to}).Info("mail sent")
	return nil
}

// Sent returns how many messages this mailer sent.
func (m *Mailer) Sent() int64 { return m.sent.Load() }

// MailHandler sends a message to the {to} route parameter.
type MailHandler struct {
	mailer *Mailer
}

func NewMailHandler(m *Mailer) *MailHandler { return &MailHandler{mailer: m} }

func (h *MailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	to := routing.Param(r, "to")
	if !strings.Contains(to, "@") {
		res.Error(http.StatusUnprocessableEntity, fmt.Sprintf("%q is not an email address", to))
		return
	}
	if err := h.mailer.Send(to); err != nil {
		res.ContainerError(err)
		return
	}
	res.Success(map[string]any{"from": h.mailer.From, "to": to})
}
