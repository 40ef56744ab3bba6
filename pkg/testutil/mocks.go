package testutil

import (
	"context"
	"sync"

	"github.com/FrenchMajesty/veracious/pkg/types"
)

// MockClassifier is a mock implementation of the classification boundary for testing
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, texts []string) (*types.FeedAnalysis, error)

	mu        sync.Mutex
	CallCount int
	Batches   [][]string
}

func (m *MockClassifier) Classify(ctx context.Context, texts []string) (*types.FeedAnalysis, error) {
	m.mu.Lock()
	m.CallCount++
	m.Batches = append(m.Batches, append([]string(nil), texts...))
	m.mu.Unlock()

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, texts)
	}

	// Default: one centrist, low-manipulation result per text
	return AnalysisFor(texts, types.LeanCentrist, 10), nil
}

// Calls returns the number of batches classified so far
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// AnalysisFor builds a response with one result per text, all sharing lean and score
func AnalysisFor(texts []string, lean types.Lean, score types.Score) *types.FeedAnalysis {
	perTweet := make([]types.Classification, len(texts))
	for i, text := range texts {
		perTweet[i] = types.Classification{
			TextPreview:       text,
			FullText:          text,
			PoliticalLean:     lean,
			ManipulationScore: score,
		}
	}
	return &types.FeedAnalysis{
		OverallManipulationScore: score,
		FeedSummary:              "mock summary",
		PerTweet:                 perTweet,
	}
}

// MockSnapshotStore is a mock implementation of SnapshotStore for testing
type MockSnapshotStore struct {
	SaveFunc func(ctx context.Context, snapshot types.Snapshot) error

	mu        sync.Mutex
	SaveCount int
	Saved     []types.Snapshot
}

func (m *MockSnapshotStore) Save(ctx context.Context, snapshot types.Snapshot) error {
	m.mu.Lock()
	m.SaveCount++
	m.Saved = append(m.Saved, snapshot)
	m.mu.Unlock()

	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, snapshot)
	}
	return nil
}

func (m *MockSnapshotStore) Load(ctx context.Context) (*types.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Saved) == 0 {
		return nil, nil
	}
	last := m.Saved[len(m.Saved)-1]
	return &last, nil
}

// Last returns the most recently saved snapshot
func (m *MockSnapshotStore) Last() (types.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Saved) == 0 {
		return types.Snapshot{}, false
	}
	return m.Saved[len(m.Saved)-1], true
}

// MockEmbeddingClient is a mock implementation of EmbeddingClient for testing
type MockEmbeddingClient struct {
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

	mu        sync.Mutex
	CallCount int
	LastTexts []string
}

func (m *MockEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastTexts = texts
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}

	// Default: a simple embedding based on text length
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding := make([]float32, 10)
		for j := range embedding {
			embedding[j] = float32(len(text)) / 100.0
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// StoredVector is a vector recorded by MockVectorClient
type StoredVector struct {
	Vector   []float32
	Metadata map[string]any
}

// MockVectorClient is a mock implementation of VectorClient for testing
type MockVectorClient struct {
	SearchFunc func(ctx context.Context, vector []float32, topK int) ([]types.VectorMatch, error)
	UpsertFunc func(ctx context.Context, id string, vector []float32, metadata map[string]any) error

	mu          sync.Mutex
	CallCount   int
	UpsertCount int
	Storage     map[string]StoredVector
}

func NewMockVectorClient() *MockVectorClient {
	return &MockVectorClient{Storage: make(map[string]StoredVector)}
}

func (m *MockVectorClient) Search(ctx context.Context, vector []float32, topK int) ([]types.VectorMatch, error) {
	m.mu.Lock()
	m.CallCount++
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, vector, topK)
	}

	// Default: no matches
	return []types.VectorMatch{}, nil
}

func (m *MockVectorClient) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error {
	m.mu.Lock()
	m.UpsertCount++
	m.Storage[id] = StoredVector{Vector: vector, Metadata: metadata}
	m.mu.Unlock()

	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, id, vector, metadata)
	}
	return nil
}

// Upserts returns the number of vectors written so far
func (m *MockVectorClient) Upserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.UpsertCount
}
