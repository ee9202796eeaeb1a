package repository

import (
	"maps"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/store"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

// Entity is the constraint satisfied by pointers to builder entity types.
type Entity[T any] interface {
	*T
	Meta() *models.Base
	Normalize()
}

// EntityRepository is typed CRUD over one collection of the project document.
// Every successful mutation persists the document (or marks it dirty inside a batch).
type EntityRepository[T any] interface {
	Kind() string
	// List returns the live collection; map-backed collections are ordered by id.
	List() []T
	// New returns a zero-valued entity with a fresh id. It is not inserted.
	New() T
	Get(id string) (T, error)
	// Save replaces the member with the same id in place or appends a new one.
	Save(entity T) (T, error)
	// Remove deletes the member with id; a missing id is a no-op.
	Remove(id string) error
	// FindByRemoteID returns the member linked to a remote content item.
	FindByRemoteID(remoteID string) (T, bool)
	// Merge upserts remote records by govbuiltContentItemId, keeping local ids.
	Merge(items []T) (MergeResult, error)
}

// MergeResult summarizes a Merge call.
type MergeResult struct {
	Added   int
	Updated int
	// LocalIDs maps each merged remote id to the local id it ended up with.
	LocalIDs map[string]string
}

// Option customizes an entity repository.
type Option[T any] func(*options[T])

type options[T any] struct {
	defaults func(*T)
	check    func(existing []T, candidate *T) error
}

// WithDefaults sets the initializer used by New.
func WithDefaults[T any](fn func(*T)) Option[T] {
	return func(o *options[T]) { o.defaults = fn }
}

// WithCheck adds a collection-level rule evaluated by Save. existing excludes
// the member being replaced.
func WithCheck[T any](fn func(existing []T, candidate *T) error) Option[T] {
	return func(o *options[T]) { o.check = fn }
}

func buildOptions[T any](opts []Option[T]) options[T] {
	var o options[T]
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

type listRepository[T any, P Entity[T]] struct {
	kind  string
	slice *store.Slice[[]T]
	opts  options[T]
}

// NewListRepository returns a repository over an array collection.
func NewListRepository[T any, P Entity[T]](kind string, doc *store.Document, at func(*models.ProjectBuild) *[]T, opts ...Option[T]) EntityRepository[T] {
	return &listRepository[T, P]{kind: kind, slice: store.NewSlice(doc, at), opts: buildOptions(opts)}
}

func (r *listRepository[T, P]) Kind() string { return r.kind }

func (r *listRepository[T, P]) List() []T { return r.slice.Get() }

func (r *listRepository[T, P]) New() T {
	return newEntity[T, P](r.opts)
}

func (r *listRepository[T, P]) Get(id string) (T, error) {
	for _, item := range r.slice.Get() {
		if P(&item).Meta().ID == id {
			return item, nil
		}
	}
	var zero T
	return zero, notFound(r.kind, id)
}

func (r *listRepository[T, P]) Save(entity T) (T, error) {
	var zero T
	p := P(&entity)
	p.Normalize()
	if err := validateEntity(r.kind, p); err != nil {
		return zero, err
	}

	list := r.slice.Get()
	meta := p.Meta()
	idx := -1
	if meta.ID != "" {
		idx = slices.IndexFunc(list, func(item T) bool { return P(&item).Meta().ID == meta.ID })
	}
	others := list
	if idx >= 0 {
		others = slices.Delete(slices.Clone(list), idx, idx+1)
	}
	if err := checkRemoteUnique[T, P](r.kind, others, meta); err != nil {
		return zero, err
	}
	if r.opts.check != nil {
		if err := r.opts.check(others, &entity); err != nil {
			return zero, err
		}
	}

	next := slices.Clone(list)
	if idx >= 0 {
		next[idx] = entity
	} else {
		if meta.ID == "" {
			meta.ID = uuid.NewString()
		}
		next = append(next, entity)
	}
	if err := r.slice.Set(next); err != nil {
		return zero, err
	}
	return entity, nil
}

func (r *listRepository[T, P]) Remove(id string) error {
	list := r.slice.Get()
	next := slices.DeleteFunc(slices.Clone(list), func(item T) bool { return P(&item).Meta().ID == id })
	return r.slice.Set(next)
}

func (r *listRepository[T, P]) FindByRemoteID(remoteID string) (T, bool) {
	return findRemote[T, P](r.slice.Get(), remoteID)
}

func (r *listRepository[T, P]) Merge(items []T) (MergeResult, error) {
	res := MergeResult{LocalIDs: map[string]string{}}
	next := slices.Clone(r.slice.Get())
	byRemote := map[string]int{}
	for i := range next {
		if rid := P(&next[i]).Meta().RemoteID(); rid != "" {
			byRemote[rid] = i
		}
	}

	for _, item := range items {
		p := P(&item)
		p.Normalize()
		meta := p.Meta()
		rid := meta.RemoteID()
		if i, ok := byRemote[rid]; ok && rid != "" {
			meta.ID = P(&next[i]).Meta().ID
			next[i] = item
			res.Updated++
		} else {
			if meta.ID == "" {
				meta.ID = uuid.NewString()
			}
			next = append(next, item)
			if rid != "" {
				byRemote[rid] = len(next) - 1
			}
			res.Added++
		}
		if rid != "" {
			res.LocalIDs[rid] = meta.ID
		}
	}
	if err := r.slice.Set(next); err != nil {
		return MergeResult{}, err
	}
	return res, nil
}

type mapRepository[T any, P Entity[T]] struct {
	kind  string
	slice *store.Slice[map[string]T]
	opts  options[T]
}

// NewMapRepository returns a repository over a collection keyed by entity id.
func NewMapRepository[T any, P Entity[T]](kind string, doc *store.Document, at func(*models.ProjectBuild) *map[string]T, opts ...Option[T]) EntityRepository[T] {
	return &mapRepository[T, P]{kind: kind, slice: store.NewSlice(doc, at), opts: buildOptions(opts)}
}

func (r *mapRepository[T, P]) Kind() string { return r.kind }

func (r *mapRepository[T, P]) List() []T {
	m := r.slice.Get()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func (r *mapRepository[T, P]) New() T {
	return newEntity[T, P](r.opts)
}

func (r *mapRepository[T, P]) Get(id string) (T, error) {
	if item, ok := r.slice.Get()[id]; ok {
		return item, nil
	}
	var zero T
	return zero, notFound(r.kind, id)
}

func (r *mapRepository[T, P]) Save(entity T) (T, error) {
	var zero T
	p := P(&entity)
	p.Normalize()
	if err := validateEntity(r.kind, p); err != nil {
		return zero, err
	}

	m := r.slice.Get()
	meta := p.Meta()
	others := make([]T, 0, len(m))
	for k, item := range m {
		if k != meta.ID {
			others = append(others, item)
		}
	}
	if err := checkRemoteUnique[T, P](r.kind, others, meta); err != nil {
		return zero, err
	}
	if r.opts.check != nil {
		if err := r.opts.check(others, &entity); err != nil {
			return zero, err
		}
	}

	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	next := maps.Clone(m)
	next[meta.ID] = entity
	if err := r.slice.Set(next); err != nil {
		return zero, err
	}
	return entity, nil
}

func (r *mapRepository[T, P]) Remove(id string) error {
	next := maps.Clone(r.slice.Get())
	delete(next, id)
	return r.slice.Set(next)
}

func (r *mapRepository[T, P]) FindByRemoteID(remoteID string) (T, bool) {
	return findRemote[T, P](r.List(), remoteID)
}

func (r *mapRepository[T, P]) Merge(items []T) (MergeResult, error) {
	res := MergeResult{LocalIDs: map[string]string{}}
	next := maps.Clone(r.slice.Get())
	byRemote := map[string]string{}
	for id, item := range next {
		if rid := P(&item).Meta().RemoteID(); rid != "" {
			byRemote[rid] = id
		}
	}

	for _, item := range items {
		p := P(&item)
		p.Normalize()
		meta := p.Meta()
		rid := meta.RemoteID()
		if id, ok := byRemote[rid]; ok && rid != "" {
			meta.ID = id
			res.Updated++
		} else {
			if meta.ID == "" {
				meta.ID = uuid.NewString()
			}
			if rid != "" {
				byRemote[rid] = meta.ID
			}
			res.Added++
		}
		next[meta.ID] = item
		if rid != "" {
			res.LocalIDs[rid] = meta.ID
		}
	}
	if err := r.slice.Set(next); err != nil {
		return MergeResult{}, err
	}
	return res, nil
}

func newEntity[T any, P Entity[T]](o options[T]) T {
	var v T
	if o.defaults != nil {
		o.defaults(&v)
	}
	P(&v).Meta().ID = uuid.NewString()
	return v
}

func findRemote[T any, P Entity[T]](items []T, remoteID string) (T, bool) {
	if remoteID != "" {
		for _, item := range items {
			if P(&item).Meta().RemoteID() == remoteID {
				return item, true
			}
		}
	}
	var zero T
	return zero, false
}

func checkRemoteUnique[T any, P Entity[T]](kind string, others []T, meta *models.Base) error {
	rid := meta.RemoteID()
	if rid == "" {
		return nil
	}
	if other, ok := findRemote[T, P](others, rid); ok {
		return appErr.Newf(appErr.CodeConflict, "%s: remote item %s is already linked to %s", kind, rid, P(&other).Meta().ID).
			WithMeta("govbuiltContentItemId", rid)
	}
	return nil
}

func notFound(kind, id string) error {
	return appErr.Newf(appErr.CodeNotFound, "%s %s not found", kind, id).WithMeta("id", id)
}
