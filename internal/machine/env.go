package machine

import (
	"bufio"
	"strings"
)

// ParseEnvironment extracts variables from `docker-machine env` output.
//
// Only lines of the form `export NAME="VALUE"` are kept. Surrounding
// whitespace and a single layer of matching quotes are tolerated; comments,
// malformed lines and lines with an empty value are dropped.
func ParseEnvironment(output string) map[string]string {
	env := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		name, value, ok := parseExportLine(scanner.Text())
		if !ok {
			continue
		}
		env[name] = value
	}
	return env
}

func parseExportLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)

	rest, found := strings.CutPrefix(line, "export")
	if !found || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", "", false
	}

	name, value, found := strings.Cut(strings.TrimSpace(rest), "=")
	if !found {
		return "", "", false
	}
	name = strings.TrimSpace(name)
	if !validName(name) {
		return "", "", false
	}

	value = unquote(strings.TrimSpace(value))
	if strings.TrimSpace(value) == "" {
		return "", "", false
	}
	return name, value, true
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
