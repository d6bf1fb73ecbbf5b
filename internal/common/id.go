package common

import (
	"fmt"
	"strconv"
)

// ParseID accepts only ASCII digits, so "+1", "-1", " 1" and "0x1" are all
// rejected with ErrorInvalidID.
func ParseID(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrorInvalidID)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrorInvalidID, s)
		}
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrorInvalidID, s)
	}
	return id, nil
}
