package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Common errors for Milvus operations
var (
	ErrInvalidDimension = errors.New("invalid vector dimension")
	ErrEmptyRecords     = errors.New("no records provided for insertion")
	ErrConnectionFailed = errors.New("failed to connect to Milvus")
	ErrInsertFailed     = errors.New("failed to insert records")
	ErrSearchFailed     = errors.New("failed to search vectors")
)

// MilvusConfig holds configuration for Milvus connection and collection
type MilvusConfig struct {
	Address        string // Milvus server address (e.g., "localhost:19530")
	CollectionName string // Name of the collection
	Dimension      int    // Vector dimension (e.g., 1536 for text-embedding-3-small)
	IndexType      string // Index type (default: "HNSW")
	MetricType     string // Similarity metric (default: "COSINE")

	// HNSW index parameters
	M              int // HNSW M parameter (default: 16)
	EfConstruction int // HNSW efConstruction (default: 256)
}

// DefaultMilvusConfig returns the default collection configuration.
func DefaultMilvusConfig() MilvusConfig {
	return MilvusConfig{
		Address:        "localhost:19530",
		CollectionName: "medcanvas_passages",
		Dimension:      1536, // text-embedding-3-small
		IndexType:      "HNSW",
		MetricType:     "COSINE",
		M:              16,
		EfConstruction: 256,
	}
}

// MilvusStore implements VectorStore using Milvus. The similarity index is
// provider-managed; no nearest-neighbor logic lives in this package.
type MilvusStore struct {
	client client.Client
	config MilvusConfig
}

// NewMilvusStore connects to Milvus and ensures the passage collection
// exists with the expected schema.
func NewMilvusStore(ctx context.Context, config MilvusConfig) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}

	c, err := client.NewGrpcClient(ctx, config.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &MilvusStore{
		client: c,
		config: config,
	}

	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection with schema if it doesn't exist
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.CollectionName)
	if err != nil {
		return fmt.Errorf("%w: failed to check collection existence: %v", ErrStoreUnavailable, err)
	}

	if has {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.config.CollectionName,
		AutoID:         true,
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			{
				Name:     "passage_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "source_document",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
			{
				Name:     "source_offset",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "sequence",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.config.Dimension),
				},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index config: %w", err)
	}

	if err := m.client.CreateIndex(ctx, m.config.CollectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

// Insert adds passage records to Milvus.
func (m *MilvusStore) Insert(ctx context.Context, records []PassageRecord) error {
	if len(records) == 0 {
		return ErrEmptyRecords
	}

	passageIDs := make([]string, len(records))
	sourceDocs := make([]string, len(records))
	sourceOffsets := make([]int64, len(records))
	sequences := make([]int64, len(records))
	texts := make([]string, len(records))
	embeddings := make([][]float32, len(records))

	for i, record := range records {
		if len(record.Embedding) != m.config.Dimension {
			return fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(record.Embedding))
		}
		passageIDs[i] = record.Passage.ID
		sourceDocs[i] = record.Passage.SourceDocument
		sourceOffsets[i] = int64(record.Passage.SourceOffset)
		sequences[i] = record.Passage.Sequence
		texts[i] = record.Passage.Text
		embeddings[i] = record.Embedding
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("passage_id", passageIDs),
		entity.NewColumnVarChar("source_document", sourceDocs),
		entity.NewColumnInt64("source_offset", sourceOffsets),
		entity.NewColumnInt64("sequence", sequences),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnFloatVector("embedding", m.config.Dimension, embeddings),
	}

	if _, err := m.client.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	return nil
}

// Flush ensures all pending data is persisted.
func (m *MilvusStore) Flush(ctx context.Context) error {
	if err := m.client.Flush(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("%w: failed to flush: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Search performs top-K similarity search with optional filtering.
func (m *MilvusStore) Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]ContextChunk, error) {
	if len(queryVector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(queryVector))
	}

	expr := ""
	if opts != nil && len(opts.SourceDocuments) > 0 {
		expr = fmt.Sprintf(`source_document == "%s"`, opts.SourceDocuments[0])
		for i := 1; i < len(opts.SourceDocuments); i++ {
			expr = fmt.Sprintf(`%s or source_document == "%s"`, expr, opts.SourceDocuments[i])
		}
	}

	sp, err := entity.NewIndexHNSWSearchParam(64) // ef parameter for search
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	vectors := []entity.Vector{entity.FloatVector(queryVector)}
	outputFields := []string{"passage_id", "source_document", "source_offset", "sequence", "text"}

	results, err := m.client.Search(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		expr,
		outputFields,
		vectors,
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	if len(results) == 0 {
		return []ContextChunk{}, nil
	}

	chunks := make([]ContextChunk, 0, results[0].ResultCount)

	for i := 0; i < results[0].ResultCount; i++ {
		chunk := ContextChunk{
			Score: results[0].Scores[i],
		}

		for _, field := range results[0].Fields {
			switch field.Name() {
			case "passage_id":
				chunk.PassageID = field.(*entity.ColumnVarChar).Data()[i]
			case "source_document":
				chunk.SourceDocument = field.(*entity.ColumnVarChar).Data()[i]
			case "source_offset":
				chunk.SourceOffset = int(field.(*entity.ColumnInt64).Data()[i])
			case "sequence":
				chunk.Sequence = field.(*entity.ColumnInt64).Data()[i]
			case "text":
				chunk.Text = field.(*entity.ColumnVarChar).Data()[i]
			}
		}

		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// Query checks which source documents already have indexed passages.
func (m *MilvusStore) Query(ctx context.Context, sourceDocuments []string) (map[string]bool, error) {
	if len(sourceDocuments) == 0 {
		return map[string]bool{}, nil
	}

	expr := fmt.Sprintf(`source_document == "%s"`, sourceDocuments[0])
	for i := 1; i < len(sourceDocuments); i++ {
		expr = fmt.Sprintf(`%s or source_document == "%s"`, expr, sourceDocuments[i])
	}

	results, err := m.client.Query(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		expr,
		[]string{"source_document"},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query documents: %v", ErrStoreUnavailable, err)
	}

	existenceMap := make(map[string]bool, len(sourceDocuments))
	for _, doc := range sourceDocuments {
		existenceMap[doc] = false
	}

	for _, column := range results {
		if column.Name() == "source_document" {
			if varcharCol, ok := column.(*entity.ColumnVarChar); ok {
				for _, doc := range varcharCol.Data() {
					existenceMap[doc] = true
				}
			}
		}
	}

	return existenceMap, nil
}

// MaxSequence returns the highest stored ingestion sequence, -1 when the
// collection is empty.
func (m *MilvusStore) MaxSequence(ctx context.Context) (int64, error) {
	results, err := m.client.Query(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		"sequence >= 0",
		[]string{"sequence"},
	)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to query sequences: %v", ErrStoreUnavailable, err)
	}

	max := int64(-1)
	for _, column := range results {
		if column.Name() == "sequence" {
			if int64Col, ok := column.(*entity.ColumnInt64); ok {
				for _, seq := range int64Col.Data() {
					if seq > max {
						max = seq
					}
				}
			}
		}
	}

	return max, nil
}

// Delete removes all passages belonging to the given source documents.
func (m *MilvusStore) Delete(ctx context.Context, sourceDocuments []string) error {
	if len(sourceDocuments) == 0 {
		return nil
	}

	expr := fmt.Sprintf(`source_document == "%s"`, sourceDocuments[0])
	for i := 1; i < len(sourceDocuments); i++ {
		expr = fmt.Sprintf(`%s or source_document == "%s"`, expr, sourceDocuments[i])
	}

	if err := m.client.Delete(ctx, m.config.CollectionName, "", expr); err != nil {
		return fmt.Errorf("%w: failed to delete records: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// GetStats returns collection statistics
func (m *MilvusStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.config.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get stats: %v", ErrStoreUnavailable, err)
	}

	return map[string]interface{}{
		"row_count": stats["row_count"],
	}, nil
}

// Close releases resources and closes the Milvus connection
func (m *MilvusStore) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
