package voyage

import (
	"context"
	"fmt"

	"github.com/austinfhunter/voyageai"
)

const (
	DefaultDimensions = 1024
	DefaultModel      = "voyage-3.5-lite"
)

// InputType tells the model whether texts are stored documents or search queries
type InputType string

const (
	InputTypeDocument InputType = "document"
	InputTypeQuery    InputType = "query"
	InputTypeDefault  InputType = ""
)

// Embedder generates embeddings for feed texts using VoyageAI
type Embedder struct {
	client     *voyageai.VoyageClient
	dimensions int
	model      string
}

// NewEmbedder creates an embedder with the default model and dimensions
func NewEmbedder(apiKey string) *Embedder {
	return &Embedder{
		client: voyageai.NewClient(&voyageai.VoyageClientOpts{
			Key: apiKey,
		}),
		dimensions: DefaultDimensions,
		model:      DefaultModel,
	}
}

// SetDimensions sets the output dimension of the embeddings
func (e *Embedder) SetDimensions(dimensions int) {
	e.dimensions = dimensions
}

// SetModel sets the embedding model
func (e *Embedder) SetModel(model string) {
	e.model = model
}

// Dimensions returns the output dimension of the embeddings
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Model returns the embedding model
func (e *Embedder) Model() string {
	return e.model
}

// Embed generates one embedding per text, in input order
func (e *Embedder) Embed(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dimensions := e.dimensions
	resp, err := e.client.Embed(
		texts,
		e.model,
		&voyageai.EmbeddingRequestOpts{
			InputType:       inputTypeOpt(inputType),
			OutputDimension: &dimensions,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("could not get embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(texts))
	for i, obj := range resp.Data {
		embeddings[i] = obj.Embedding
	}
	return embeddings, nil
}

func inputTypeOpt(inputType InputType) *string {
	if inputType == InputTypeDefault {
		return nil
	}
	value := string(inputType)
	return &value
}
