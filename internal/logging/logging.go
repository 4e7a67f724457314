// Package logging adapts the teacher's pkg/logger (a logrus.Logger
// wrapper) for the pipeline runtime: every logger it builds carries a
// "component" field on every entry, and level/format/output are read
// from the same LoggingConfig shape internal/config already uses
// elsewhere in this tree, so cmd/pipeline-run configures logging the
// same way the teacher's own services do.
package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/R3E-Network/service_layer/pkg/logger"
)

// Config mirrors logger.LoggingConfig; kept as a distinct type so this
// package's callers don't need to import pkg/logger just to build one.
type Config struct {
	Level      string
	Format     string
	Output     string
	FilePrefix string
}

// componentHook stamps every log entry with the component that produced
// it, fixing the gap in logger.NewDefault, which silently discards the
// name its caller passes in.
type componentHook struct {
	component string
}

func (h componentHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h componentHook) Fire(entry *logrus.Entry) error {
	entry.Data["component"] = h.component
	return nil
}

// New builds a component-scoped *logger.Logger from cfg.
func New(component string, cfg Config) *logger.Logger {
	l := logger.New(logger.LoggingConfig{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		FilePrefix: cfg.FilePrefix,
	})
	l.AddHook(componentHook{component: component})
	return l
}

// NewDefault builds a component-scoped *logger.Logger with the
// teacher's info-level/text-formatter/stdout defaults.
func NewDefault(component string) *logger.Logger {
	l := logger.NewDefault(component)
	l.AddHook(componentHook{component: component})
	return l
}
