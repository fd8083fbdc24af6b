package repository

import "errors"

// ErrNotFound marks lookups that matched no row. Callers translate it to
// their own not-found handling (the API maps it to 404).
var ErrNotFound = errors.New("not found")
