package store

import "github.com/govbuilder/engine/internal/models"

// Slice is a typed get/set view over one collection of the project build.
type Slice[T any] struct {
	doc *Document
	at  func(b *models.ProjectBuild) *T
}

// NewSlice returns a view over the container selected by at.
func NewSlice[T any](doc *Document, at func(b *models.ProjectBuild) *T) *Slice[T] {
	return &Slice[T]{doc: doc, at: at}
}

// Get returns the live container, creating it (and any parent) when missing.
// Repeated calls without a Set return the same container.
func (s *Slice[T]) Get() T {
	return *s.at(s.doc.Build())
}

// Set replaces the container and persists the document.
func (s *Slice[T]) Set(v T) error {
	*s.at(s.doc.Build()) = v
	return s.doc.Changed()
}

// Document returns the document the slice reads from.
func (s *Slice[T]) Document() *Document { return s.doc }
