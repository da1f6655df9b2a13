package domain

import "github.com/google/uuid"

// Namespace is the resource-sharing scope that bounds the visibility and lifetime of cached artifacts.
type Namespace string

// NewNamespace mints a fresh random namespace.
func NewNamespace() Namespace {
	return Namespace(uuid.NewString())
}

// String returns the namespace identifier.
func (n Namespace) String() string {
	return string(n)
}
