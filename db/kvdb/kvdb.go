package kvdb

// DB is the key-value store backing the audit trail and search history.
type DB interface {
	Set(key string, value string) error
	Get(key string) (string, error)
	List(prefix string, limit int) ([]Entry, error)
	Close() error
}
