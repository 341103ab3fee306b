package logic

import "errors"

var ErrInvalidRequest = errors.New("invalid request")
