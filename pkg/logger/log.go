// Package logger provides leveled, named console logging for riptide
// components. Log lines carry the component name so interleaved request
// handling remains readable.
package logger

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	SUCCESS
	WARNING
	ERROR
)

func (l Level) String() string {
	return []string{"D", "I", "✓", "!", "!!"}[l]
}

func (l Level) color() *color.Color {
	return []*color.Color{
		color.New(color.FgWhite, color.Italic),
		color.New(color.FgWhite),
		color.New(color.FgHiGreen),
		color.New(color.FgYellow),
		color.New(color.FgHiRed, color.Bold),
	}[l]
}

// Logger emits formatted log lines for a single named component.
type Logger interface {
	Emit(Level, string, ...interface{})
}

var (
	mu       sync.Mutex
	minLevel = INFO
)

// SetMinLevel adjusts the global threshold; lines below it are dropped.
func SetMinLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

type componentLogger struct {
	name string
}

func (c *componentLogger) Emit(level Level, message string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if level < minLevel {
		return
	}

	line := fmt.Sprintf("[%s] (%s) %s", c.name, level, fmt.Sprintf(message, args...))
	level.color().Fprint(os.Stderr, line)
}

// Get returns the logger for the named component.
func Get(name string) Logger {
	return &componentLogger{name: name}
}
