package index

import (
	"testing"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/require"

	bdxerrors "github.com/standardbeagle/bdx/internal/errors"
	"github.com/standardbeagle/bdx/internal/schema"
	"github.com/standardbeagle/bdx/internal/types"
)

func addSymbol(t *testing.T, shard *Shard, sym types.Symbol) {
	t.Helper()
	require.NoError(t, shard.Begin())
	require.NoError(t, shard.AddSymbol(sym))
	require.NoError(t, shard.Commit())
}

func TestOpenWritableThenReadBack(t *testing.T) {
	root := t.TempDir()
	sch := schema.Default()

	writable, err := Open(root, Writable, sch)
	require.NoError(t, err)

	shard, err := writable.OpenShard()
	require.NoError(t, err)

	sym := types.Symbol{
		Path:    "/src/a.o",
		Name:    "do_work",
		Section: ".text",
		Address: 0x10,
		Size:    16,
		Type:    types.FUNC,
		Mtime:   time.Unix(1700000000, 0),
	}
	addSymbol(t, shard, sym)
	require.NoError(t, shard.Close())
	require.NoError(t, writable.Close())

	reader, err := Open(root, ReadOnly, sch)
	require.NoError(t, err)
	defer reader.Close()

	q := bleve.NewTermQuery("do_work")
	q.SetField(schema.PrefixName)
	results, err := reader.Search(q, 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "do_work", results[0].Name)

	files, err := reader.AllFiles()
	require.NoError(t, err)
	require.Equal(t, []string{"/src/a.o"}, files)

	mtime, err := reader.Mtime()
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), mtime.Unix())
}

func TestOpenShardRequiresWritable(t *testing.T) {
	root := t.TempDir()
	sch := schema.Default()

	writable, err := Open(root, Writable, sch)
	require.NoError(t, err)
	require.NoError(t, writable.Close())

	reader, err := Open(root, ReadOnly, sch)
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.OpenShard()
	require.ErrorIs(t, err, bdxerrors.ErrIndexReadOnly)
}

func TestShardDoubleBeginFails(t *testing.T) {
	root := t.TempDir()
	sch := schema.Default()

	store, err := Open(root, Writable, sch)
	require.NoError(t, err)
	defer store.Close()

	shard, err := store.OpenShard()
	require.NoError(t, err)
	defer shard.Close()

	require.NoError(t, shard.Begin())
	err = shard.Begin()
	require.ErrorIs(t, err, bdxerrors.ErrTransactionInProgress)
	shard.Rollback()
}

func TestSchemaMismatchRefusesOpen(t *testing.T) {
	root := t.TempDir()

	other, err := schema.New(schema.NewTokenField("onlyfield", "XZ", true))
	require.NoError(t, err)

	store, err := Open(root, Writable, other)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Open(root, Writable, schema.Default())
	var mismatch *bdxerrors.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestDeleteFileRemovesAcrossShards(t *testing.T) {
	root := t.TempDir()
	sch := schema.Default()

	store, err := Open(root, Writable, sch)
	require.NoError(t, err)

	shard, err := store.OpenShard()
	require.NoError(t, err)
	addSymbol(t, shard, types.Symbol{Path: "/src/a.o", Name: "sym_a", Mtime: time.Now()})
	require.NoError(t, shard.Close())

	require.NoError(t, store.DeleteFile("/src/a.o"))
	require.NoError(t, store.Close())

	reader, err := Open(root, ReadOnly, sch)
	require.NoError(t, err)
	defer reader.Close()

	files, err := reader.AllFiles()
	require.NoError(t, err)
	require.Empty(t, files)
}
