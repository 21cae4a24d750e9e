package repository

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrReferenced = errors.New("still referenced")
	ErrTxConflict = errors.New("transaction conflict")
)
