package models

import (
	"testing"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata_OK(t *testing.T) {
	in := []string{"a=1", "b=two", "name = value", "url=https://x?q=1"}
	md, err := ParseMetadata(in)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"a":    "1",
		"b":    "two",
		"name": "value",
		"url":  "https://x?q=1",
	}, md)
}

func TestParseMetadata_ErrorOnMalformed(t *testing.T) {
	_, err := ParseMetadata([]string{"x=y", "justname"})
	require.ErrorIs(t, err, common.ErrorIncorrectMetadata)

	_, err = ParseMetadata([]string{"=value"})
	require.ErrorIs(t, err, common.ErrorIncorrectMetadata)
}

func TestParseMetadata_Empty(t *testing.T) {
	md, err := ParseMetadata(nil)
	require.NoError(t, err)
	require.Empty(t, md)
}
