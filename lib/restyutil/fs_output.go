package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// InstrumentOutput receives opaque payloads keyed by an identity chosen
// by the producer. Implementations must swallow their own failures, a
// diagnostics write is never allowed to mask the error that caused it.
type InstrumentOutput interface {
	Write(id string, contents string)
}

// FilesystemOutput dumps payloads into a directory, one file per id.
// The directory is wiped on construction so every run starts clean.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) FilesystemOutput {
	os.RemoveAll(dir)
	if err := os.MkdirAll(dir, 0777); err != nil {
		slog.Warn("failed to create diagnostics directory", "dir", dir, "err", err)
	}
	return FilesystemOutput{directory: dir}
}

func sanitizeId(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '-'
	}, id)
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, sanitizeId(id)), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write diagnostics file", "id", id, "err", err)
	}
}
