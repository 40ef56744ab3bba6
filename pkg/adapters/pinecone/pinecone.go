package pinecone

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"
)

// Index is a connection to one namespace of a Pinecone index
type Index struct {
	conn *pinecone.IndexConnection
}

// Connect opens a connection to the index served at host
func Connect(apiKey, host, namespace string) (*Index, error) {
	if host == "" {
		return nil, fmt.Errorf("pinecone index host is required")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	conn, err := client.Index(pinecone.NewIndexConnParams{
		Host:      host,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pinecone index: %w", err)
	}

	return &Index{conn: conn}, nil
}

// Search performs a vector similarity search in the index
func (idx *Index) Search(ctx context.Context, queryVector []float32, topK int, filter *MetadataFilter, includeMetadata bool) ([]QueryMatch, error) {
	resp, err := idx.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          queryVector,
		TopK:            uint32(topK),
		IncludeValues:   false,
		IncludeMetadata: includeMetadata,
		MetadataFilter:  filter,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]QueryMatch, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		if match == nil {
			continue
		}
		matches = append(matches, *match)
	}
	return matches, nil
}

// Upsert stores vectors in the index
func (idx *Index) Upsert(ctx context.Context, vectors []*Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	_, err := idx.conn.UpsertVectors(ctx, vectors)
	return err
}

// Close releases the connection
func (idx *Index) Close() error {
	return idx.conn.Close()
}
