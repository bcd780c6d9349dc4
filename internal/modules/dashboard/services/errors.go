package services

import "errors"

var (
	ErrInvalidWorkbook = errors.New("invalid workbook")
	ErrNoMonthColumns  = errors.New("no month columns found in header row")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidRange    = errors.New("invalid range")
)
