package store

import (
	"context"
)

// Document represents a logical document stored in the store.
type Document struct {
	// ID is the logical identifier of the document; it must be set on insert.
	ID string

	// Content holds the main text/body of the document.
	Content string

	// Metadata is an opaque payload associated with the document, usually JSON.
	Metadata string

	// Embedding is the vector representation of the document content.
	// Documents without an embedding are stored but never returned by searches.
	Embedding []float32

	// Distance is the distance to the query vector; set on search results only.
	Distance float64
}

// Store defines the application-level vector store API.
type Store interface {
	// AddDocuments inserts documents into the store and returns their IDs.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// SimilaritySearch returns up to k documents nearest to queryEmbedding,
	// ascending by distance.
	SimilaritySearch(ctx context.Context, queryEmbedding []float32, k int) ([]Document, error)

	// SearchWithin returns up to k documents within radius of
	// queryEmbedding, ascending by distance. radius must be positive.
	SearchWithin(ctx context.Context, queryEmbedding []float32, radius float64, k int) ([]Document, error)

	// Remove deletes the document with the given ID.
	Remove(ctx context.Context, id string) error
}
