package provisioning

import (
	"errors"

	"github.com/muurk/bootmaster/internal/catalog"
)

var (
	// ErrMissingImage is returned by Start when no source image is selected.
	ErrMissingImage = errors.New("no source image selected")

	// ErrNotConfirmed is returned by Start when the erase prompt is refused.
	ErrNotConfirmed = errors.New("operation not confirmed")

	// ErrRunInProgress is returned when an operation needs an idle simulator.
	ErrRunInProgress = errors.New("provisioning run in progress")

	// ErrInvalidSettings wraps a rejected setting value.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrCatalogBusy is returned by Start while the device list is rescanning.
	ErrCatalogBusy = errors.New("device scan in progress")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("simulator closed")

	// ErrUnknownDevice is the catalog's error for an id it does not hold.
	ErrUnknownDevice = catalog.ErrUnknownDevice
)
