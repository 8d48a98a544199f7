package errors

import (
	"fmt"
)

var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrInvalidMonth = fmt.Errorf("month should be numerical and between 1 and 12")
)
