package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/FrenchMajesty/veracious/pkg/adapters/pinecone"
	"github.com/FrenchMajesty/veracious/pkg/adapters/voyage"
	"google.golang.org/protobuf/types/known/structpb"
)

type mockEmbedder struct {
	lastType voyage.InputType
	err      error
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string, inputType voyage.InputType) ([][]float32, error) {
	m.lastType = inputType
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 0.5}
	}
	return out, nil
}

type mockIndex struct {
	matches  []pinecone.QueryMatch
	searched int
	upserted []*pinecone.Vector
	err      error
}

func (m *mockIndex) Search(ctx context.Context, queryVector []float32, topK int, filter *pinecone.MetadataFilter, includeMetadata bool) ([]pinecone.QueryMatch, error) {
	m.searched = topK
	if !includeMetadata {
		return nil, errors.New("metadata not requested")
	}
	return m.matches, m.err
}

func (m *mockIndex) Upsert(ctx context.Context, vectors []*pinecone.Vector) error {
	m.upserted = append(m.upserted, vectors...)
	return m.err
}

func TestEmbeddings_DocumentInputType(t *testing.T) {
	embedder := &mockEmbedder{}
	client := &Embeddings{embedder: embedder}

	embeddings, err := client.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(embeddings) != 2 {
		t.Fatalf("Expected 2 embeddings, got %d", len(embeddings))
	}
	if embedder.lastType != voyage.InputTypeDocument {
		t.Errorf("Expected document input type, got %q", embedder.lastType)
	}
}

// TestVectors_Search tests that scored vectors are flattened and entries without a vector dropped
func TestVectors_Search(t *testing.T) {
	metadata, err := structpb.NewStruct(map[string]any{"text": "taxes up again", "political_lean": "right"})
	if err != nil {
		t.Fatalf("Failed to build metadata: %v", err)
	}

	index := &mockIndex{
		matches: []pinecone.QueryMatch{
			{Vector: &pinecone.Vector{Id: "v1", Metadata: metadata}, Score: 0.91},
			{Vector: &pinecone.Vector{Id: "v2"}, Score: 0.40},
			{Vector: nil, Score: 0.10},
		},
	}
	vectors := &Vectors{index: index}

	results, err := vectors.Search(context.Background(), []float32{0.1, 0.2}, 3)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if index.searched != 3 {
		t.Errorf("Expected topK 3, got %d", index.searched)
	}
	if len(results) != 2 {
		t.Fatalf("Expected matches without vectors to be skipped, got %d results", len(results))
	}
	if results[0].ID != "v1" || results[0].Score != 0.91 {
		t.Errorf("Unexpected first result: %+v", results[0])
	}
	if results[0].Metadata["text"] != "taxes up again" {
		t.Errorf("Expected metadata text, got %v", results[0].Metadata["text"])
	}
	if results[1].Metadata == nil {
		t.Error("Expected empty metadata map for a vector without metadata")
	}
}

func TestVectors_Upsert(t *testing.T) {
	index := &mockIndex{}
	vectors := &Vectors{index: index}

	err := vectors.Upsert(context.Background(), "id-1", []float32{0.3}, map[string]any{
		"text":               "some feed text",
		"manipulation_score": 42.0,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(index.upserted) != 1 {
		t.Fatalf("Expected 1 vector, got %d", len(index.upserted))
	}

	v := index.upserted[0]
	if v.Id != "id-1" {
		t.Errorf("Expected id 'id-1', got '%s'", v.Id)
	}
	if v.Metadata.Fields["manipulation_score"].GetNumberValue() != 42 {
		t.Errorf("Expected score 42, got %v", v.Metadata.Fields["manipulation_score"])
	}
}

func TestVectors_UpsertInvalidMetadata(t *testing.T) {
	vectors := &Vectors{index: &mockIndex{}}

	err := vectors.Upsert(context.Background(), "id-1", []float32{0.3}, map[string]any{"bad": make(chan int)})
	if err == nil {
		t.Error("Expected error for metadata that cannot be converted")
	}
}
