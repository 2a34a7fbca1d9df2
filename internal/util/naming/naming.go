package naming

import (
	"fmt"
	"strconv"
	"strings"
)

// Machine returns the machine name for the index-th node of kind in cluster.
func Machine(cluster, kind string, index int) string {
	return fmt.Sprintf("%s-%s-%d", cluster, kind, index)
}

// Index extracts n from a name of the form {cluster}-{kind}-{n}. It reports
// false for names that belong to another cluster or kind.
func Index(cluster, kind, name string) (int, bool) {
	prefix := cluster + "-" + kind + "-"
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// NewNames returns quantity fresh machine names for kind, numbered after the
// highest index found in existing.
func NewNames(cluster, kind string, existing []string, quantity int) []string {
	if quantity <= 0 {
		return nil
	}

	highest := 0
	for _, name := range existing {
		if n, ok := Index(cluster, kind, name); ok && n > highest {
			highest = n
		}
	}

	names := make([]string, quantity)
	for i := range names {
		names[i] = Machine(cluster, kind, highest+i+1)
	}
	return names
}
