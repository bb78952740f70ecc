/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDependsOnSignatureAndContent(t *testing.T) {
	a := Key("es5", []byte("var a;"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Key("es5", []byte("var a;")))
	assert.NotEqual(t, a, Key("es5/hashbang", []byte("var a;")))
	assert.NotEqual(t, a, Key("es5", []byte("var b;")))
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.msgpack"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "bundlecheck.msgpack")
	s, err := Load(path)
	require.NoError(t, err)

	s.Put("clean", Entry{Clean: true})
	s.Put("fail", Entry{Line: 3, Column: 7, Message: "Unexpected token"})
	require.NoError(t, s.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
	e, ok := reloaded.Get("fail")
	require.True(t, ok)
	assert.Equal(t, Entry{Line: 3, Column: 7, Message: "Unexpected token"}, e)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSaveSkipsUnchangedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.msgpack")
	s, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, s.Save())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "an unchanged empty store is not written")

	s.Put("k", Entry{Clean: true})
	require.NoError(t, s.Save())
	info, err := os.Stat(path)
	require.NoError(t, err)

	s.Put("k", Entry{Clean: true})
	require.NoError(t, s.Save())
	again, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())
}

func TestCorruptFileYieldsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.msgpack")
	require.NoError(t, os.WriteFile(path, []byte{0xc1, 0xff, 0x00}, 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, path, s.Path())
}

func TestConcurrentPutGet(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "c.msgpack"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key("es5", []byte{byte(i)})
			s.Put(key, Entry{Line: i})
			_, _ = s.Get(key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 32, s.Len())
}
