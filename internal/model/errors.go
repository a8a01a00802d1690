package model

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("not owned by caller")
)
