package service

import "errors"

var (
	ErrEmptyAudio    = errors.New("audio payload is empty")
	ErrMissingUserID = errors.New("user id is required")
)
