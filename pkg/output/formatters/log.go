package formatters

import (
	"fmt"

	"github.com/ajitpratap0/penguin/pkg/output"
)

// Log renders one human-readable line per output.
type Log struct{}

// Name implements output.Formatter.
func (Log) Name() string { return NameLog }

// Format implements output.Formatter.
func (Log) Format(o *output.PremiseOutput) ([]byte, error) {
	status := "Passed"
	if !o.PassValidation() {
		status = "Failed"
	}
	return []byte(fmt.Sprintf("%s - %s: %s (%d failed)",
		subjectName(o.Node()), subjectName(o.Premise()), status, o.FailedCount())), nil
}

func subjectName(s output.Subject) string {
	if s == nil {
		return ""
	}
	return s.Name()
}
