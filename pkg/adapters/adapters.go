// Package adapters connects the similarity index to the Voyage and Pinecone services.
package adapters

import (
	"context"
	"fmt"
	"os"

	"github.com/FrenchMajesty/veracious/pkg/adapters/pinecone"
	"github.com/FrenchMajesty/veracious/pkg/adapters/voyage"
	"github.com/FrenchMajesty/veracious/pkg/types"
	"google.golang.org/protobuf/types/known/structpb"
)

// Environment variables read when a Config field is empty
const (
	EnvVoyageAPIKey   = "VOYAGEAI_API_KEY"
	EnvPineconeAPIKey = "PINECONE_API_KEY"
	EnvPineconeHost   = "PINECONE_HOST"
)

// Config holds the vector service credentials. Empty fields fall back to the environment.
type Config struct {
	VoyageAPIKey   string
	PineconeAPIKey string
	PineconeHost   string

	// Namespace partitions the Pinecone index
	Namespace string
}

// fromEnv returns value, or the environment variable key when value is empty
func fromEnv(value, key string) (string, error) {
	if value != "" {
		return value, nil
	}
	if env := os.Getenv(key); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("%s is not set and no value was configured", key)
}

type documentEmbedder interface {
	Embed(ctx context.Context, texts []string, inputType voyage.InputType) ([][]float32, error)
}

// Embeddings embeds feed texts as Voyage documents. It implements similar.EmbeddingClient.
type Embeddings struct {
	embedder documentEmbedder
}

// NewEmbeddings creates the embedding client for cfg
func NewEmbeddings(cfg Config) (*Embeddings, error) {
	key, err := fromEnv(cfg.VoyageAPIKey, EnvVoyageAPIKey)
	if err != nil {
		return nil, err
	}
	return &Embeddings{embedder: voyage.NewEmbedder(key)}, nil
}

// Embed returns one vector per text, in input order
func (e *Embeddings) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embedder.Embed(ctx, texts, voyage.InputTypeDocument)
}

type vectorIndex interface {
	Search(ctx context.Context, queryVector []float32, topK int, filter *pinecone.MetadataFilter, includeMetadata bool) ([]pinecone.QueryMatch, error)
	Upsert(ctx context.Context, vectors []*pinecone.Vector) error
}

// Vectors stores and searches feed vectors in one Pinecone namespace.
// It implements similar.VectorClient.
type Vectors struct {
	index vectorIndex
}

// NewVectors connects to the Pinecone index for cfg
func NewVectors(cfg Config) (*Vectors, error) {
	key, err := fromEnv(cfg.PineconeAPIKey, EnvPineconeAPIKey)
	if err != nil {
		return nil, err
	}
	host, err := fromEnv(cfg.PineconeHost, EnvPineconeHost)
	if err != nil {
		return nil, err
	}

	index, err := pinecone.Connect(key, host, cfg.Namespace)
	if err != nil {
		return nil, err
	}
	return &Vectors{index: index}, nil
}

// Search returns the topK nearest stored vectors with their metadata
func (v *Vectors) Search(ctx context.Context, vector []float32, topK int) ([]types.VectorMatch, error) {
	scored, err := v.index.Search(ctx, vector, topK, nil, true)
	if err != nil {
		return nil, err
	}

	matches := make([]types.VectorMatch, 0, len(scored))
	for _, s := range scored {
		if m, ok := toVectorMatch(s); ok {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// toVectorMatch flattens a scored vector. Results without a vector carry no id and are dropped.
func toVectorMatch(s pinecone.QueryMatch) (types.VectorMatch, bool) {
	if s.Vector == nil {
		return types.VectorMatch{}, false
	}
	m := types.VectorMatch{ID: s.Vector.Id, Score: s.Score, Metadata: map[string]any{}}
	if s.Vector.Metadata != nil {
		m.Metadata = s.Vector.Metadata.AsMap()
	}
	return m, true
}

// Upsert writes one vector under id with metadata
func (v *Vectors) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error {
	fields, err := structpb.NewStruct(metadata)
	if err != nil {
		return fmt.Errorf("vector %s: invalid metadata: %w", id, err)
	}
	return v.index.Upsert(ctx, []*pinecone.Vector{{Id: id, Values: vector, Metadata: fields}})
}
