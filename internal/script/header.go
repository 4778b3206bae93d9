package script

import (
	"path/filepath"
	"regexp"
	"strings"

	"scriptbot/internal/host"
)

// headerPattern matches a metadata line in the leading comment block:
// `// key: value`. Recognized keys are version, name, author,
// description, and usage.
var headerPattern = regexp.MustCompile(`^//\s*(\w+)\s*:\s*(.*?)\s*$`)

// ParseHeader reads script metadata from the leading comment block of src.
// The block ends at the first non-comment, non-blank line. Missing fields
// stay empty except Name, which defaults to the filename stem.
func ParseHeader(filename, src string) host.Meta {
	meta := host.Meta{
		Name: nameFromFilename(filename),
	}

	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "//") {
			break
		}

		m := headerPattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}

		switch strings.ToLower(m[1]) {
		case "version":
			meta.Version = m[2]
		case "name":
			if m[2] != "" {
				meta.Name = m[2]
			}
		case "author":
			meta.Author = m[2]
		case "description":
			meta.Description = m[2]
		case "usage":
			meta.Usage = m[2]
		}
	}

	return meta
}

// nameFromFilename strips the directory and extension from a script path.
func nameFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
