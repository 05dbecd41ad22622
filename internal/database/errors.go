package database

import "errors"

var (
	// ErrNotFound запись с таким id отсутствует
	ErrNotFound = errors.New("record not found")
)
