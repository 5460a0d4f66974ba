package helpers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildRedirect_QueryPreservesExisting(t *testing.T) {
	loc, err := BuildRedirect("http://valid.example.com/redirect?foo=bar", false, url.Values{"code": {"abc"}, "state": {"S1"}})
	require.NoError(t, err)

	u, err := url.Parse(loc)
	require.NoError(t, err)
	require.Equal(t, "bar", u.Query().Get("foo"))
	require.Equal(t, "abc", u.Query().Get("code"))
	require.Equal(t, "S1", u.Query().Get("state"))
}

func TestBuildRedirect_Fragment(t *testing.T) {
	loc, err := BuildRedirect("http://valid.example.com/redirect?foo=bar#old", true, url.Values{"access_token": {"t"}})
	require.NoError(t, err)
	require.Equal(t, "http://valid.example.com/redirect?foo=bar#access_token=t", loc)
}

func TestSingle(t *testing.T) {
	form := url.Values{"a": {"1"}, "b": {"1", "2"}, "c": {""}}

	v, ok, dup := Single(form, "a")
	require.Equal(t, "1", v)
	require.True(t, ok)
	require.False(t, dup)

	_, ok, dup = Single(form, "b")
	require.False(t, ok)
	require.True(t, dup)

	_, ok, dup = Single(form, "c")
	require.False(t, ok)
	require.False(t, dup)

	_, ok, dup = Single(form, "missing")
	require.False(t, ok)
	require.False(t, dup)
}
