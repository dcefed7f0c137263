package page_pool

import "errors"

var (
	ErrOutOfPages = errors.New("page pool exhausted")
)
