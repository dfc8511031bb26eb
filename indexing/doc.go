// Package indexing builds a search index from a corpus.
//
// An Indexer loads every document, embeds the normalized text through a
// BatchProcessor and writes one snapshot to the store. The BatchProcessor
// fans batches out over a worker pool, retries failed calls with exponential
// backoff, consults an optional embedding cache and normalizes vectors to
// unit length so the stored matrix works with cosine similarity search.
package indexing
