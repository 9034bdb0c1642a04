package searchdb

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sumitmalik51/gitsecureops/config"
	"github.com/sumitmalik51/gitsecureops/logger"
)

const indexingBatchSize = 100

const (
	indexFieldKind         = "kind"
	indexFieldOrganization = "organization"
	indexFieldRepository   = "repository"
	indexFieldTitle        = "title"
	indexFieldContent      = "content"
	indexFieldURL          = "url"
	indexFieldUpdatedAt    = "updated_at"
)

type BleveDB struct {
	indexPath string
	logger    logger.Logger
	index     bleve.Index
}

func New(logger logger.Logger, cfg *config.Config) (*BleveDB, error) {
	mapping := createIndexMapping()
	indexPath := filepath.Join(cfg.GetStoragePath(), cfg.GetIndexPath())
	index, err := bleve.New(indexPath, mapping)
	if err != nil {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Error("could not open index", "err", err.Error())
			return nil, err
		}
	}
	return &BleveDB{indexPath: indexPath, logger: logger, index: index}, nil
}

// IndexItems upserts documents in batches. Re-indexing an already known
// document replaces it, so repeated aggregations keep the index fresh.
func (b *BleveDB) IndexItems(documents []Document) error {

	batch := b.index.NewBatch()

	for i, doc := range documents {

		err := batch.Index(doc.ID, doc)
		if err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			return err
		}

		if (i+1)%indexingBatchSize == 0 {
			err = b.index.Batch(batch)
			if err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			return err
		}
	}

	return nil
}

func createIndexMapping() mapping.IndexMapping {

	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Scope fields - not analyzed (exact match)
	kindFieldMapping := bleve.NewTextFieldMapping()
	kindFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldKind, kindFieldMapping)

	orgFieldMapping := bleve.NewTextFieldMapping()
	orgFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldOrganization, orgFieldMapping)

	repoFieldMapping := bleve.NewTextFieldMapping()
	repoFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldRepository, repoFieldMapping)

	// Title field - analyzed for partial matching
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldTitle, titleFieldMapping)

	// Content field - analyzed for full-text search
	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = standard.Name
	contentFieldMapping.Store = false // Don't store full content in index
	contentFieldMapping.Index = true  // But do index it for searching
	docMapping.AddFieldMappingsAt(indexFieldContent, contentFieldMapping)

	urlFieldMapping := bleve.NewTextFieldMapping()
	urlFieldMapping.Analyzer = keyword.Name
	urlFieldMapping.Index = false
	docMapping.AddFieldMappingsAt(indexFieldURL, urlFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

func (b *BleveDB) Search(queryString string, limit int, offset int) (*Response, error) {
	start := time.Now()

	searchQuery := b.buildSearchQuery(queryString)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, limit, offset, false)

	searchRequest.Fields = []string{
		indexFieldKind, indexFieldOrganization, indexFieldRepository,
		indexFieldTitle, indexFieldURL, indexFieldUpdatedAt,
	}

	searchResult, err := b.index.Search(searchRequest)
	if err != nil {
		b.logger.Error("search failed", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, len(searchResult.Hits))
	for i, hit := range searchResult.Hits {
		result := Result{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if kind, ok := hit.Fields[indexFieldKind].(string); ok {
			result.Kind = kind
		}
		if org, ok := hit.Fields[indexFieldOrganization].(string); ok {
			result.Organization = org
		}
		if repo, ok := hit.Fields[indexFieldRepository].(string); ok {
			result.Repository = repo
		}
		if title, ok := hit.Fields[indexFieldTitle].(string); ok {
			result.Title = title
		}
		if url, ok := hit.Fields[indexFieldURL].(string); ok {
			result.URL = url
		}
		if updatedAt, ok := hit.Fields[indexFieldUpdatedAt].(string); ok {
			result.UpdatedAt = updatedAt
		}

		results[i] = result
	}

	searchTime := time.Since(start)

	response := &Response{
		Results:    results,
		Total:      searchResult.Total,
		MaxScore:   searchResult.MaxScore,
		SearchTime: searchTime.String(),
	}

	return response, nil
}

func (b *BleveDB) buildSearchQuery(queryString string) query.Query {

	const (
		boostForTitle        = 3.0
		boostForRepository   = 2.0
		boostForContent      = 2.0
		boostForOrganization = 1.0
		boostForPhraseMatch  = 5.0
		boostForPartialMatch = 1.5
	)

	queryString = strings.ToLower(strings.TrimSpace(queryString))

	if queryString == "" {
		return bleve.NewMatchAllQuery()
	}

	disjunctQuery := bleve.NewDisjunctionQuery()

	titleQuery := bleve.NewMatchQuery(queryString)
	titleQuery.SetField(indexFieldTitle)
	titleQuery.SetBoost(boostForTitle)
	disjunctQuery.AddQuery(titleQuery)

	repoQuery := bleve.NewMatchQuery(queryString)
	repoQuery.SetField(indexFieldRepository)
	repoQuery.SetBoost(boostForRepository)
	disjunctQuery.AddQuery(repoQuery)

	contentQuery := bleve.NewMatchQuery(queryString)
	contentQuery.SetField(indexFieldContent)
	contentQuery.SetBoost(boostForContent)
	disjunctQuery.AddQuery(contentQuery)

	orgQuery := bleve.NewMatchQuery(queryString)
	orgQuery.SetField(indexFieldOrganization)
	orgQuery.SetBoost(boostForOrganization)
	disjunctQuery.AddQuery(orgQuery)

	phraseQuery := bleve.NewMatchPhraseQuery(queryString)
	phraseQuery.SetField(indexFieldContent)
	phraseQuery.SetBoost(boostForPhraseMatch)
	disjunctQuery.AddQuery(phraseQuery)

	if len(queryString) > 2 {
		prefixQuery := bleve.NewPrefixQuery(queryString)
		prefixQuery.SetField(indexFieldTitle)
		prefixQuery.SetBoost(boostForPartialMatch)
		disjunctQuery.AddQuery(prefixQuery)

		repoPrefixQuery := bleve.NewPrefixQuery(queryString)
		repoPrefixQuery.SetField(indexFieldRepository)
		repoPrefixQuery.SetBoost(boostForPartialMatch)
		disjunctQuery.AddQuery(repoPrefixQuery)
	}

	return disjunctQuery
}

func (b *BleveDB) DeleteDocuments(documentIDs []string) error {
	batch := b.index.NewBatch()

	for i, docID := range documentIDs {
		batch.Delete(docID)

		if (i+1)%indexingBatchSize == 0 {
			err := b.index.Batch(batch)
			if err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			return err
		}
	}

	return nil
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveDB) Close() error {
	return b.index.Close()
}
