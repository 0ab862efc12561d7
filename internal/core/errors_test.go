package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Taxonomy_Kind_Matching(t *testing.T) {
	req := require.New(t)

	err := Denied("user %s may not edit", "bob")
	req.True(IsKind(err, KindAuthorizationDenied))
	req.False(IsKind(err, KindNotFound))
	req.Equal(KindAuthorizationDenied, KindOf(err))

	wrapped := fmt.Errorf("handling event: %w", NotFound("room %s not found", "r1"))
	req.True(IsKind(wrapped, KindNotFound))
	req.Equal(KindNotFound, KindOf(wrapped))
}

func Test_Taxonomy_Foreign_Errors_Are_Transient(t *testing.T) {
	req := require.New(t)

	err := fmt.Errorf("disk on fire")
	req.Equal(KindTransient, KindOf(err))
	req.False(IsKind(err, KindNotFound))
}

func Test_Taxonomy_Transient_Wraps_Cause(t *testing.T) {
	req := require.New(t)

	cause := fmt.Errorf("connection reset")
	err := Transient("room lookup during fanout", cause)
	req.True(IsKind(err, KindTransient))
	req.ErrorIs(err, cause)
	req.Contains(err.Error(), "transient")
	req.Contains(err.Error(), "connection reset")
}
