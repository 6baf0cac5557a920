package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Collection is a thin typed wrapper over a Firestore collection. Documents
// marshal through the struct's firestore tags.
type Collection[T any] struct {
	Ref *firestore.CollectionRef
}

func (c *Collection[T]) Doc(id string) *DocumentRef[T] {
	return &DocumentRef[T]{Ref: c.Ref.Doc(id)}
}

func (c *Collection[T]) NewDoc() *DocumentRef[T] {
	return &DocumentRef[T]{Ref: c.Ref.NewDoc()}
}

// Query starts a typed query builder on the collection.
func (c *Collection[T]) Query() *Query[T] {
	return &Query[T]{q: c.Ref.Query}
}

type DocumentRef[T any] struct {
	Ref *firestore.DocumentRef
}

func (d *DocumentRef[T]) ID() string {
	return d.Ref.ID
}

func (d *DocumentRef[T]) Get(ctx context.Context) (*T, error) {
	snap, err := d.Ref.Get(ctx)
	if err != nil {
		return nil, err
	}
	var out T
	if err := snap.DataTo(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Set writes the full document, merging into any existing fields.
func (d *DocumentRef[T]) Set(ctx context.Context, data *T) error {
	_, err := d.Ref.Set(ctx, data, firestore.MergeAll)
	return err
}

// Create writes the document only if it does not exist yet. The caller
// distinguishes AlreadyExists via the gRPC status code.
func (d *DocumentRef[T]) Create(ctx context.Context, data *T) error {
	_, err := d.Ref.Create(ctx, data)
	return err
}

// Update applies a partial map update. Keys must match Firestore snake_case
// fields; dotted paths update nested fields without clobbering siblings.
func (d *DocumentRef[T]) Update(ctx context.Context, updates map[string]interface{}) error {
	_, err := d.Ref.Set(ctx, updates, firestore.MergeAll)
	return err
}

// Query is a typed query builder.
type Query[T any] struct {
	q firestore.Query
}

func (q *Query[T]) Where(path, op string, value interface{}) *Query[T] {
	return &Query[T]{q: q.q.Where(path, op, value)}
}

func (q *Query[T]) OrderBy(path string, dir firestore.Direction) *Query[T] {
	return &Query[T]{q: q.q.OrderBy(path, dir)}
}

func (q *Query[T]) Limit(n int) *Query[T] {
	return &Query[T]{q: q.q.Limit(n)}
}

func (q *Query[T]) Offset(n int) *Query[T] {
	return &Query[T]{q: q.q.Offset(n)}
}

// GetAll runs the query and decodes every document.
func (q *Query[T]) GetAll(ctx context.Context) ([]T, error) {
	iter := q.q.Documents(ctx)
	defer iter.Stop()

	var out []T
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var item T
		if err := snap.DataTo(&item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
