package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlogPost_SearchDocument(t *testing.T) {
	excerpt := "Notes on ÇA"
	p := &BlogPost{Title: "ÉTÉ Festival", Content: "Big Day", Excerpt: &excerpt}
	assert.Equal(t, "été festival\nbig day\nnotes on ça", p.SearchDocument())

	p.Excerpt = nil
	assert.Equal(t, "été festival\nbig day", p.SearchDocument())
}

func TestBlogPost_BeforeSaveRefreshesSearchText(t *testing.T) {
	p := &BlogPost{Title: "Old", Content: "Body", SearchText: "stale"}
	require.NoError(t, p.BeforeSave(nil))
	assert.Equal(t, "old\nbody", p.SearchText)
}

func TestFoldSearch(t *testing.T) {
	assert.Equal(t, FoldSearch("ÉTÉ"), FoldSearch("été"))
	assert.Equal(t, "straße", FoldSearch("STRAßE"))
}
