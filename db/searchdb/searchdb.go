package searchdb

// DB is the local activity index: items returned by successful
// aggregations are indexed here so the console can answer recent
// activity queries without refetching from the provider.
type DB interface {
	IndexItems(documents []Document) error
	DeleteDocuments(documentIDs []string) error
	Search(queryString string, limit int, offset int) (*Response, error)
	GetDocCount() (uint64, error)
	Close() error
}
