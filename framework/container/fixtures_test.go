package container_test

import (
	"sync/atomic"

	"github.com/km-arc/go-inject/framework/container"
)

// ── stub services ─────────────────────────────────────────────────────────────

type Logger struct {
	lines []string
}

func (l *Logger) Log(s string) { l.lines = append(l.lines, s) }

type Mailer struct {
	From   string
	Logger container.Lazy[*Logger]
}

func (m *Mailer) Send(to string) error {
	l, err := m.Logger.Get()
	if err != nil {
		return err
	}
	l.Log(m.From + " -> " + to)
	return nil
}

type Greeter struct {
	Greeting string
}

type GreeterFactory struct {
	Word string
}

func (f *GreeterFactory) Create(name string) *Greeter {
	return &Greeter{Greeting: f.Word + ", " + name}
}

// LoggingGreeterFactory declares a dependency on its Create method.
type LoggingGreeterFactory struct{}

func (LoggingGreeterFactory) Create(l *Logger, name string) *Greeter {
	l.Log("create " + name)
	return &Greeter{Greeting: "hello, " + name}
}

type Notifier struct {
	sent []string
}

func (n *Notifier) Notify(l *Logger, to string) string {
	l.Log("notify " + to)
	n.sent = append(n.sent, to)
	return "sent:" + to
}

func (n *Notifier) Ping(l *Logger) string {
	l.Log("ping")
	return "pong"
}

func (n *Notifier) Misordered(to string, l *Logger) string { return to }

type Report interface {
	Title() string
}

type cpuReport struct{}

func (cpuReport) Title() string { return "cpu" }

type memReport struct{}

func (memReport) Title() string { return "mem" }

type Store struct{ Kind string }

type Photos struct{ Store *Store }

type A struct{ B *B }

type B struct{ A *A }

// countedLogger returns a Logger target whose constructions are counted.
func countedLogger() (*container.Target, *atomic.Int32) {
	var builds atomic.Int32
	t := container.Class("Logger", func() *Logger {
		builds.Add(1)
		return &Logger{}
	})
	return t, &builds
}

func newMailerTarget() *container.Target {
	return container.Class("Mailer", func(from string) *Mailer { return &Mailer{From: from} }, "$mail.from")
}
