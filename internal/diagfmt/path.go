package diagfmt

import (
	"path/filepath"
	"strings"

	"dtt/internal/source"
)

// autoPathLimit is the length above which PathModeAuto prints only the basename.
const autoPathLimit = 40

func formatPath(f *source.File, mode PathMode, base string) string {
	switch mode {
	case PathModeAbsolute:
		if f.Flags&source.FileVirtual != 0 {
			return f.Path
		}
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
		return f.Path
	case PathModeRelative:
		if base == "" {
			return f.Path
		}
		rel, err := filepath.Rel(base, f.Path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return f.Path
		}
		return filepath.ToSlash(rel)
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		if len(f.Path) > autoPathLimit && filepath.IsAbs(f.Path) {
			return filepath.Base(f.Path)
		}
		return f.Path
	}
}

// lineCount is the number of lines of f, counting a final line without newline.
func lineCount(f *source.File) uint32 {
	n := uint32(len(f.LineIdx)) + 1 //nolint:gosec // bounded by the file size
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] == '\n' {
		n--
	}
	return max(n, 1)
}

func validSpan(fs *source.FileSet, sp source.Span) bool {
	return fs != nil && int(sp.File) < fs.Len()
}
