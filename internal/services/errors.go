package services

import (
	"errors"

	"github.com/NeelODE/drive/internal/utils"
)

var (
	ErrInvalidPath = utils.ErrInvalidPath
	ErrInvalidName = utils.ErrInvalidName

	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrNoInput            = errors.New("no input")
	ErrBackendUnavailable = errors.New("storage backend unavailable")
)
