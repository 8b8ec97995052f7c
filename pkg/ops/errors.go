package ops

import "errors"

var (
	// ErrResourceNotFound indicates the named Job or Namespace does not
	// exist in the cluster.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a create collided with an existing
	// resource of the same name.
	ErrAlreadyExists = errors.New("resource already exists")
)
