package task

import "strings"

// Redacted replaces the value of a secret flag in displayed command lines.
const Redacted = "****"

// secretFlags are flags whose value is masked when a command line is shown.
var secretFlags = map[string]bool{
	"--amazonec2-secret-key":    true,
	"--amazonec2-session-token": true,
	"--token":                   true,
}

// RedactCommandLine masks the values of secret flags in a space-joined
// command line.
func RedactCommandLine(line string) string {
	fields := strings.Split(line, " ")
	for i := 0; i < len(fields)-1; i++ {
		if secretFlags[fields[i]] {
			fields[i+1] = Redacted
			i++
		}
	}
	return strings.Join(fields, " ")
}

// RedactedCommandLine returns the command line with secret flag values masked.
// Use it wherever the command line is shown to a person.
func (t *Task) RedactedCommandLine() string {
	return RedactCommandLine(t.CommandLine())
}
