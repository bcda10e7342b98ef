package classifier

import (
	"fmt"
	"strings"

	"logicmate/internal/services"
)

// Subject is the category of visual content being filtered for. The set is
// closed: every switch over Subject handles exactly these two values.
type Subject string

const (
	SubjectCode    Subject = "code"
	SubjectDiagram Subject = "diagram"
)

// Subjects returns the known subjects in display order.
func Subjects() []Subject {
	return []Subject{SubjectCode, SubjectDiagram}
}

// ParseSubject converts user input into a Subject. Unknown values are an
// invalid-argument error, never a silent fallthrough.
func ParseSubject(value string) (Subject, error) {
	switch Subject(strings.ToLower(strings.TrimSpace(value))) {
	case SubjectCode:
		return SubjectCode, nil
	case SubjectDiagram:
		return SubjectDiagram, nil
	default:
		return "", services.Wrap(services.ErrInvalidArgument, "classifier", "parse subject",
			fmt.Sprintf("unknown subject %q (want code or diagram)", value), nil)
	}
}

func (s Subject) valid() bool {
	switch s {
	case SubjectCode, SubjectDiagram:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (s Subject) String() string {
	return string(s)
}
