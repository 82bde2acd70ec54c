// Package chromemdb wraps the chromem-go persistent vector database. One
// collection per schema; records carry precomputed embeddings, so no
// embedding function is attached to collections.
package chromemdb

import (
	"context"
	"runtime"
	"sort"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"oracle-rag/internal/faults"
)

const collectionPrefix = "schema_"

// Store manages the on-disk vector database. The layout under dir is owned
// by chromem and stays stable across build and query invocations.
type Store struct {
	db  *chromem.DB
	dir string
}

// Open loads or creates the persistent database at dir.
func Open(dir string) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, errors.Wrapf(faults.ErrStorage, "open vector store at %s: %v", dir, err)
	}
	return &Store{db: db, dir: dir}, nil
}

func collectionName(schema string) string {
	return collectionPrefix + strings.ToUpper(schema)
}

// Upsert writes records into the schema's collection. A record with an
// existing ID replaces the stored one.
func (s *Store) Upsert(ctx context.Context, schema string, docs []chromem.Document) error {
	col, err := s.db.GetOrCreateCollection(collectionName(schema), nil, nil)
	if err != nil {
		return errors.Wrapf(faults.ErrStorage, "collection %s: %v", collectionName(schema), err)
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return errors.Wrapf(faults.ErrStorage, "add %d documents: %v", len(docs), err)
	}
	return nil
}

// Drop removes the schema's collection entirely. Missing collections are not
// an error; build uses this for forced rebuilds.
func (s *Store) Drop(schema string) error {
	name := collectionName(schema)
	if s.db.GetCollection(name, nil) == nil {
		return nil
	}
	if err := s.db.DeleteCollection(name); err != nil {
		return errors.Wrapf(faults.ErrStorage, "drop collection %s: %v", name, err)
	}
	return nil
}

// Count reports the number of records stored for the schema.
func (s *Store) Count(schema string) int {
	col := s.db.GetCollection(collectionName(schema), nil)
	if col == nil {
		return 0
	}
	return col.Count()
}

// Search returns up to k nearest records by cosine similarity. Equal
// similarities are ordered by ascending ID so retrieval is deterministic.
func (s *Store) Search(ctx context.Context, schema string, vector []float32, k int) ([]chromem.Result, error) {
	col := s.db.GetCollection(collectionName(schema), nil)
	if col == nil || col.Count() == 0 {
		return nil, errors.Wrapf(faults.ErrNotBuilt, "schema %s", strings.ToUpper(schema))
	}

	// Fetch every record and rank locally: chromem's internal top-n cut
	// orders equal similarities arbitrarily, so cutting to k before the ID
	// tie-break would make the result set itself nondeterministic.
	// Collections hold one chunk per table, so this stays cheap.
	results, err := col.QueryEmbedding(ctx, vector, col.Count(), nil, nil)
	if err != nil {
		return nil, errors.Wrapf(faults.ErrStorage, "query collection %s: %v", collectionName(schema), err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
	if k < 0 {
		k = 0
	}
	if k < len(results) {
		results = results[:k]
	}
	log.Debug().Str("schema", schema).Int("results", len(results)).Msg("vector search done")
	return results, nil
}
