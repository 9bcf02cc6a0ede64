package naming

import (
	"path/filepath"
	"strings"

	"github.com/forPelevin/audioconv/internal/types"
)

const Suffix = "_converted"

// OutputPath returns {dir}/{stem}_converted.{format}. It is a pure function
// of its arguments: existing files are not consulted.
func OutputPath(inputPath string, format types.Format) string {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+Suffix+"."+string(format))
}

// Canonical returns a cleaned absolute form of p with symlinks in the parent
// directory resolved, for comparing paths written by different jobs. The
// file itself need not exist yet.
func Canonical(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return abs
	}
	return filepath.Join(dir, filepath.Base(abs))
}
