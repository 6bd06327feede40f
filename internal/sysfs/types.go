package sysfs

import "errors"

var (
	ErrNotFound    = errors.New("sysfs entry not found")
	ErrNameTooLong = errors.New("sysfs path too long")
)
