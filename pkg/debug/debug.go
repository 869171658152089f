// Package debug builds the console logger used by the command line tools.
package debug

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

const DefaultTimeFormat = "15:04:05.0000"

// LoggerOptions configures NewLogger.
type LoggerOptions struct {
	Level zerolog.Level
	// Color enables ANSI colors in the console output and the caller field
	Color bool
	// Caller adds the calling file and line to every event
	Caller     bool
	TimeFormat string
}

// NewLogger returns a console logger writing to w.
func NewLogger(w io.Writer, opts LoggerOptions) zerolog.Logger {
	format := opts.TimeFormat
	if format == "" {
		format = DefaultTimeFormat
	}

	console := zerolog.ConsoleWriter{
		Out:           w,
		NoColor:       !opts.Color,
		PartsOrder:    []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.CallerFieldName, zerolog.MessageFieldName},
		FieldsExclude: []string{zerolog.CallerFieldName},
		// the time hook already formats the value
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprint(i)
		},
	}

	logger := zerolog.New(console).Level(opts.Level).Hook(CustomTimeHook{WithColor: opts.Color, Format: format})
	if opts.Caller {
		logger = logger.Hook(CustomCallerHook{WithColor: opts.Color})
	}
	return logger
}

// WithLogger attaches a new console logger to ctx.
func WithLogger(ctx context.Context, w io.Writer, opts LoggerOptions) context.Context {
	logger := NewLogger(w, opts)
	return logger.WithContext(ctx)
}

// skipFrameOf reads the event's private frame skip count so the caller hook reports the
// frame that logged rather than a wrapper.
func skipFrameOf(e *zerolog.Event) int {
	v := reflect.ValueOf(e).Elem()
	field := v.FieldByName("skipFrame")

	if field.IsValid() && field.CanAddr() {
		return int(field.Int())
	}

	return 0
}

type CustomTimeHook struct {
	WithColor bool
	Format    string
}

func (t CustomTimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := t.Format
	if format == "" {
		format = "2006-01-02T15:04:05.0000Z"
	}
	str := time.Now().Format(format)
	if t.WithColor {
		str = color.New(color.Faint).Sprint(str)
	}
	e.Str(zerolog.TimestampFieldName, str)
}

type CustomCallerHook struct {
	WithColor bool
}

func (c CustomCallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(skipFrameOf(e) + 3)
	if !ok {
		return
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}

	pkg, _ := GetPackageAndFuncFromFuncName(fn.Name())

	e.Str(zerolog.CallerFieldName, FormatCaller(pkg, file, line, c.WithColor))
}

func GetPackageAndFuncFromFuncName(name string) (pkg, function string) {
	lastSlash := strings.LastIndexByte(name, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}

	firstDot := strings.IndexByte(name[lastSlash:], '.')
	if firstDot < 0 {
		return name, ""
	}
	firstDot += lastSlash

	pkg = name[:firstDot]
	function = name[firstDot+1:]

	// method values look like pkg.(*Type).Method
	if strings.Contains(pkg, ".(") {
		split := strings.SplitN(pkg, ".(", 2)
		pkg = split[0]
		function = "(" + split[1] + "." + function
	}

	return pkg, function
}

func FormatCaller(pkg, path string, number int, colorize bool) string {
	p := FileNameOfPath(path)
	if colorize {
		p = color.New(color.Bold).Sprint(p)
		num := color.New(color.FgHiRed, color.Bold).Sprintf("%d", number)
		sep := color.New(color.Faint).Sprint(":")

		return fmt.Sprintf("%s%s%s%s%s", pkg, sep, p, sep, num)
	}

	return fmt.Sprintf("%s:%s:%d", pkg, p, number)
}

func FileNameOfPath(path string) string {
	tot := strings.Split(path, "/")
	if len(tot) > 1 {
		return tot[len(tot)-1]
	}

	return path
}
