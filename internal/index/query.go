package index

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/standardbeagle/bdx/internal/schema"
	"github.com/standardbeagle/bdx/internal/types"
)

// pageSize bounds how many hits a single underlying bleve search
// request asks for; AllFiles and idsForPath page through it when their
// result set might exceed it.
const pageSize = 1000

// Search executes q against the unioned read view, yielding up to
// limit Symbols starting at first (spec §4.5 "search").
func (s *Store) Search(q query.Query, first, limit int) ([]types.Symbol, error) {
	target, closeFn, err := s.readSnapshot()
	if err != nil {
		return nil, err
	}
	defer closeFn()

	req := bleve.NewSearchRequestOptions(q, limit, first, false)
	req.Fields = []string{schema.BlobField}

	res, err := target.Search(req)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}

	out := make([]types.Symbol, 0, len(res.Hits))
	for _, hit := range res.Hits {
		sym, err := symbolFromHitFields(hit.Fields)
		if err != nil {
			continue
		}
		out = append(out, sym)
	}
	return out, nil
}

func symbolFromHitFields(fields map[string]interface{}) (types.Symbol, error) {
	raw, ok := fields[schema.BlobField]
	if !ok {
		return types.Symbol{}, fmt.Errorf("index: hit missing blob field")
	}
	s, ok := raw.(string)
	if !ok {
		return types.Symbol{}, fmt.Errorf("index: blob field is not a string")
	}
	var sym types.Symbol
	if err := json.Unmarshal([]byte(s), &sym); err != nil {
		return types.Symbol{}, err
	}
	return sym, nil
}

// AllFiles enumerates distinct absolute paths across every indexed
// document (spec §4.5 "all_files"). Implemented as a paged scan over
// the path field rather than a raw term-dictionary walk, since the
// façade only uses bleve's document-level Search API.
func (s *Store) AllFiles() ([]string, error) {
	target, closeFn, err := s.readSnapshot()
	if err != nil {
		return nil, err
	}
	defer closeFn()
	seen := make(map[string]struct{})

	from := 0
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), pageSize, from, false)
		req.Fields = []string{schema.PrefixPath}
		res, err := target.Search(req)
		if err != nil {
			return nil, fmt.Errorf("index: all_files: %w", err)
		}
		if len(res.Hits) == 0 {
			break
		}
		for _, hit := range res.Hits {
			if v, ok := hit.Fields[schema.PrefixPath].(string); ok && v != "" {
				seen[v] = struct{}{}
			}
		}
		from += len(res.Hits)
		if uint64(from) >= res.Total {
			break
		}
	}

	return sortedStrings(seen), nil
}

// Mtime returns the maximum mtime slot value across every document,
// epoch 0 when the store is empty (spec §4.5 "mtime").
func (s *Store) Mtime() (time.Time, error) {
	target, closeFn, err := s.readSnapshot()
	if err != nil {
		return time.Unix(0, 0).UTC(), err
	}
	defer closeFn()

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 1, 0, false)
	req.Fields = []string{schema.SlotMtime}
	req.SortBy([]string{"-" + schema.SlotMtime})

	res, err := target.Search(req)
	if err != nil {
		return time.Unix(0, 0).UTC(), fmt.Errorf("index: mtime: %w", err)
	}
	if len(res.Hits) == 0 {
		return time.Unix(0, 0).UTC(), nil
	}

	v, ok := res.Hits[0].Fields[schema.SlotMtime]
	if !ok {
		return time.Unix(0, 0).UTC(), nil
	}
	f, ok := v.(float64)
	if !ok {
		return time.Unix(0, 0).UTC(), nil
	}
	return time.Unix(int64(f), 0).UTC(), nil
}

// DeleteFile removes every document for path across every shard the
// store knows about (spec §4.5 "delete_file"). It is only valid on a
// Writable store, before any OpenShard transaction of the current run
// begins writing the same file's replacements.
func (s *Store) DeleteFile(path string) error {
	if s.mode != Writable {
		return fmt.Errorf("index: DeleteFile requires a writable store")
	}

	for _, p := range existingShardPaths(s.root) {
		if err := deleteFromShardPath(p, path); err != nil {
			return err
		}
	}
	return nil
}

func deleteFromShardPath(path, filePath string) error {
	idx, err := bleve.Open(path)
	if err != nil {
		return fmt.Errorf("index: open shard %s for delete: %w", path, err)
	}
	defer idx.Close()

	ids, err := idsForPath(idx, filePath)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := idx.Delete(id); err != nil {
			return err
		}
	}
	return nil
}

func idsForPath(idx bleve.Index, path string) ([]string, error) {
	q := bleve.NewTermQuery(path)
	q.SetField(schema.PrefixPath)

	var ids []string
	from := 0
	for {
		req := bleve.NewSearchRequestOptions(q, pageSize, from, false)
		res, err := idx.Search(req)
		if err != nil {
			return nil, fmt.Errorf("index: locate documents for %s: %w", path, err)
		}
		if len(res.Hits) == 0 {
			break
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
		from += len(res.Hits)
		if uint64(from) >= res.Total {
			break
		}
	}
	return ids, nil
}
