package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for ledger
// documents. Artist and album carry the search weight; label matches
// without stemming, and year supports range filtering.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	artistFieldMapping := bleve.NewTextFieldMapping()
	artistFieldMapping.Analyzer = en.AnalyzerName
	artistFieldMapping.Store = true
	artistFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("artist", artistFieldMapping)

	albumFieldMapping := bleve.NewTextFieldMapping()
	albumFieldMapping.Analyzer = en.AnalyzerName
	albumFieldMapping.Store = true
	albumFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("album", albumFieldMapping)

	// Label names are proper nouns; stemming hurts more than it helps.
	labelFieldMapping := bleve.NewTextFieldMapping()
	labelFieldMapping.Analyzer = simple.Name
	labelFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("label", labelFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	yearFieldMapping := bleve.NewNumericFieldMapping()
	yearFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("year", yearFieldMapping)

	trackCountFieldMapping := bleve.NewNumericFieldMapping()
	trackCountFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("track_count", trackCountFieldMapping)

	completedAtFieldMapping := bleve.NewNumericFieldMapping()
	completedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("completed_at", completedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
