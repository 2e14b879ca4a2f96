package patch

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

// Compose applies changes, as returned by Changes, to input and returns the
// output text.
func Compose(input string, changes []Change) (string, error) {
	var (
		b   strings.Builder
		pos int
	)

	for _, c := range changes {
		start, err := point.Offset(input, c.InputStart)
		if err != nil {
			return "", fmt.Errorf("change %v: %w", c, err)
		}

		end, err := point.Offset(input, c.InputEnd)
		if err != nil {
			return "", fmt.Errorf("change %v: %w", c, err)
		}

		if start < pos {
			return "", fmt.Errorf("change %v: %w", c, point.ErrOutOfRange)
		}

		b.WriteString(input[pos:start])
		b.WriteString(c.Text)
		pos = end
	}

	b.WriteString(input[pos:])

	return b.String(), nil
}
