package aggregate

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const historyKeyPrefix = "history/"

// HistoryEntry records one fresh aggregation run. Cache hits are not
// recorded; they repeat an already-recorded query.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Query      Query     `json:"query"`
	TotalCount int       `json:"total_count"`
	Items      int       `json:"items"`
	At         time.Time `json:"at"`
}

// recordHistory persists the query of a successful run. Losing a
// history record is worth a log line, never a failed search.
func (s *Service) recordHistory(q Query, response *Response) {
	if s.history == nil {
		return
	}

	entry := HistoryEntry{
		ID:         uuid.NewString(),
		Query:      q,
		TotalCount: response.Metadata.TotalCount,
		Items:      len(response.Items),
		At:         s.now().UTC(),
	}

	value, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn("could not encode history entry", "err", err.Error())
		return
	}

	key := fmt.Sprintf("%s%s-%s", historyKeyPrefix, entry.At.Format(time.RFC3339Nano), entry.ID)
	if err := s.history.Set(key, string(value)); err != nil {
		s.logger.Warn("could not record search history", "err", err.Error())
	}
}

// RecentQueries returns the newest recorded searches.
func (s *Service) RecentQueries(limit int) ([]HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}

	raw, err := s.history.List(historyKeyPrefix, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(raw))
	for _, kv := range raw {
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(kv.Value), &entry); err != nil {
			s.logger.Warn("skipping malformed history entry", "key", kv.Key, "err", err.Error())
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
