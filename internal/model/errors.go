package model

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrPrecondition = errors.New("precondition failed")
	ErrUpstream     = errors.New("upstream model error")
	ErrPersistence  = errors.New("persistence error")
)
