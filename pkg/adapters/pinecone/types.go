package pinecone

import (
	"github.com/pinecone-io/go-pinecone/pinecone"
)

// Vector represents a vector with metadata (re-exported from SDK for convenience)
type Vector = pinecone.Vector

// QueryMatch represents a match from query results (re-exported from SDK for convenience)
type QueryMatch = pinecone.ScoredVector

// Metadata represents the metadata for a vector (re-exported from SDK for convenience)
type Metadata = pinecone.Metadata

// MetadataFilter restricts a query by metadata (re-exported from SDK for convenience)
type MetadataFilter = pinecone.MetadataFilter
