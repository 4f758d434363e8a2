package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionEnter(t *testing.T) {
	s := NewSession()

	require.False(t, s.Enter("tok-A"), "first entry never reuses")
	require.True(t, s.Enter("tok-A"), "re-entry with the current token reuses")
	require.Equal(t, "tok-A", s.Current())

	require.False(t, s.Enter("tok-B"), "a different token forces revalidation")
	require.Equal(t, "tok-B", s.Current())

	require.False(t, s.Enter("tok-A"), "coming back to an earlier token forces revalidation")
	require.True(t, s.Enter("tok-A"))
}

func TestSessionEmptyTokenNeverReuses(t *testing.T) {
	s := NewSession()

	require.False(t, s.Enter(""))
	require.False(t, s.Enter(""))
}

func TestSessionReset(t *testing.T) {
	s := NewSession()

	s.Enter("tok-A")
	s.Reset("tok-B")
	require.Equal(t, "tok-A", s.Current(), "resetting a non-current token is a no-op")

	s.Reset("tok-A")
	require.Empty(t, s.Current())
	require.False(t, s.Enter("tok-A"), "after reset the same token revalidates")
}
