package report

import (
	"bytes"
	"testing"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discovered = map[string]models.FileEntry{
	"1": {ID: "1", Path: "/data/b.txt", Size: 2},
	"2": {ID: "2", Path: "/data/a.txt", Size: 1},
	"3": {ID: "3", Path: "/data/sub/c.txt", Size: 3},
}

func TestBuild_SortsByPath(t *testing.T) {
	lines, err := Build(discovered, map[string]string{
		"3": "https://gofile.io/d/c",
		"1": "https://gofile.io/d/b",
		"2": "https://gofile.io/d/a",
	})
	require.NoError(t, err)

	want := []Line{
		{Path: "/data/a.txt", Reference: "https://gofile.io/d/a"},
		{Path: "/data/b.txt", Reference: "https://gofile.io/d/b"},
		{Path: "/data/sub/c.txt", Reference: "https://gofile.io/d/c"},
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_OnlySuccessfulResults(t *testing.T) {
	lines, err := Build(discovered, map[string]string{"2": "ref"})
	require.NoError(t, err)
	assert.Equal(t, []Line{{Path: "/data/a.txt", Reference: "ref"}}, lines)
}

func TestBuild_UnknownIdentifier(t *testing.T) {
	_, err := Build(discovered, map[string]string{"404": "ref"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []Line{
		{Path: "a.txt", Reference: "https://x/1"},
		{Path: "b.txt", Reference: "https://x/2"},
	}))
	assert.Equal(t, "a.txt https://x/1\nb.txt https://x/2\n", buf.String())
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.Empty(t, buf.String())
}
