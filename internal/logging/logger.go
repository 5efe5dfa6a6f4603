package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs a JSON stdout logger as the slog default. It runs before the
// database is available; Attach adds the database sink later.
func Setup() {
	slog.SetDefault(slog.New(NewStdoutHandler(os.Stdout)))
}

func NewStdoutHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}

// Attach fans the default logger out to stdout and sink.
func Attach(sink slog.Handler) {
	slog.SetDefault(slog.New(NewMultiHandler(NewStdoutHandler(os.Stdout), sink)))
}
