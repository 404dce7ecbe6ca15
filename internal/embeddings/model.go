package embeddings

import (
	"fmt"
	"math/rand"
	"sync"
)

// Model represents an ONNX model for generating embeddings (stub implementation)
type Model struct {
	config      *ModelConfig
	variantName string
	modelPath   string
	mu          sync.Mutex
}

// LoadModel loads an ONNX model from disk (stub implementation)
func LoadModel(modelPath string, config *ModelConfig, variantName string) (*Model, error) {
	// For now, just create a stub model
	// Full ONNX integration will be added when the library API stabilizes
	return &Model{
		config:      config,
		variantName: variantName,
		modelPath:   modelPath,
	}, nil
}

// Close releases model resources
func (m *Model) Close() error {
	// Nothing to close in stub
	return nil
}

// Embed generates embeddings for a batch of token IDs (stub implementation)
func (m *Model) Embed(inputIDs [][]int64, attentionMask [][]int64) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	batchSize := len(inputIDs)
	if batchSize == 0 {
		return nil, fmt.Errorf("empty input batch")
	}

	hiddenSize := m.config.HiddenSize
	if hiddenSize == 0 {
		hiddenSize = 768 // Default for BERT
	}

	// Generate random embeddings for testing
	// In production, this would call ONNX runtime
	embeddings := make([][]float32, batchSize)
	for i := 0; i < batchSize; i++ {
		embedding := make([]float32, hiddenSize)
		for j := 0; j < hiddenSize; j++ {
			// Generate deterministic pseudo-random values based on input
			if len(inputIDs[i]) > 0 {
				rand.Seed(inputIDs[i][0] + int64(j))
			}
			embedding[j] = (rand.Float32() - 0.5) * 2.0 // Range -1 to 1
		}
		embeddings[i] = embedding
	}

	return embeddings, nil
}

// EmbedSingle generates an embedding for a single sequence of token IDs
func (m *Model) EmbedSingle(inputIDs []int64, attentionMask []int64) ([]float32, error) {
	// Convert to batch format
	batchInputIDs := [][]int64{inputIDs}
	batchAttentionMask := [][]int64{attentionMask}

	// Generate embeddings
	embeddings, err := m.Embed(batchInputIDs, batchAttentionMask)
	if err != nil {
		return nil, err
	}

	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings generated")
	}

	return embeddings[0], nil
}

// GetConfig returns the model configuration
func (m *Model) GetConfig() *ModelConfig {
	return m.config
}

// GetVariantName returns the name of the loaded variant
func (m *Model) GetVariantName() string {
	return m.variantName
}

// InitializeONNXRuntime initializes the ONNX Runtime library (stub)
func InitializeONNXRuntime() error {
	// Stub implementation
	return nil
}

// DestroyONNXRuntime cleans up the ONNX Runtime library (stub)
func DestroyONNXRuntime() error {
	// Stub implementation
	return nil
}
