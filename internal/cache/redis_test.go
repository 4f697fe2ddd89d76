package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askdocs/askdocs/internal/rag"
)

func TestQueryCacheKeyDeterministic(t *testing.T) {
	qc := NewQueryCache(nil, 0)

	a := qc.Key(rag.QueryRequest{Query: "what is pgvector"})
	b := qc.Key(rag.QueryRequest{Query: "what is pgvector"})

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "query:"))
}

func TestQueryCacheKeyVariesWithOptions(t *testing.T) {
	qc := NewQueryCache(nil, 0)

	plain := qc.Key(rag.QueryRequest{Query: "q"})
	withOpts := qc.Key(rag.QueryRequest{Query: "q", Options: &rag.Options{TopK: 3}})
	otherQuery := qc.Key(rag.QueryRequest{Query: "other"})

	assert.NotEqual(t, plain, withOpts)
	assert.NotEqual(t, plain, otherQuery)
}
