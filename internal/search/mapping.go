package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping uses the English analyzer for body text and keyword
// fields for the owner and type filters.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	body := bleve.NewTextFieldMapping()
	body.Analyzer = en.AnalyzerName
	body.Store = true
	body.IncludeTermVectors = true // highlighting
	docMapping.AddFieldMappingsAt("body", body)

	owner := bleve.NewTextFieldMapping()
	owner.Analyzer = keyword.Name
	owner.Store = true
	docMapping.AddFieldMappingsAt("owner_id", owner)

	docType := bleve.NewTextFieldMapping()
	docType.Analyzer = keyword.Name
	docType.Store = true
	docMapping.AddFieldMappingsAt("type", docType)

	transcriptionID := bleve.NewNumericFieldMapping()
	transcriptionID.Store = true
	docMapping.AddFieldMappingsAt("transcription_id", transcriptionID)

	createdAt := bleve.NewNumericFieldMapping()
	createdAt.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAt)

	updatedAt := bleve.NewNumericFieldMapping()
	updatedAt.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAt)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
