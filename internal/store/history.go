package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strrl/copycat/pkg/models"
)

// HistoryStore keeps past analyses for the current session. It is backed by an
// in-memory DuckDB table and never written to disk.
type HistoryStore struct {
	db  *sql.DB
	now func() time.Time

	mu  sync.Mutex
	seq int64
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db, now: time.Now}
}

// Add prepends item and returns its new id. ID and Timestamp on item are
// ignored.
func (h *HistoryStore) Add(item models.HistoryItem) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New().String()
	if item.Type == "" {
		item.Type = "url"
	}
	h.seq++

	_, err := h.db.Exec(`INSERT INTO history (id, ts, seq, type, content, analysis, generated_content, topic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, h.now().UnixMilli(), h.seq, item.Type, item.Content,
		string(item.Analysis), item.GeneratedContent, item.Topic)
	if err != nil {
		return "", fmt.Errorf("failed to add history item: %w", err)
	}
	return id, nil
}

// Delete removes the item with id; a missing id is not an error
func (h *HistoryStore) Delete(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.db.Exec(`DELETE FROM history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete history item: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of u to the item with id. Updating a
// missing id does nothing.
func (h *HistoryStore) Update(id string, u models.HistoryUpdate) error {
	var sets []string
	var args []any
	if u.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, *u.Type)
	}
	if u.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *u.Content)
	}
	if u.Analysis != nil {
		sets = append(sets, "analysis = ?")
		args = append(args, string(u.Analysis))
	}
	if u.GeneratedContent != nil {
		sets = append(sets, "generated_content = ?")
		args = append(args, *u.GeneratedContent)
	}
	if u.Topic != nil {
		sets = append(sets, "topic = ?")
		args = append(args, *u.Topic)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	h.mu.Lock()
	defer h.mu.Unlock()
	query := fmt.Sprintf(`UPDATE history SET %s WHERE id = ?`, strings.Join(sets, ", "))
	if _, err := h.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update history item: %w", err)
	}
	return nil
}

// Clear removes every item
func (h *HistoryStore) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// List returns all items, newest first
func (h *HistoryStore) List() ([]models.HistoryItem, error) {
	return h.query(`SELECT id, ts, type, content, analysis, generated_content, topic
		FROM history ORDER BY seq DESC`)
}

// Search returns items whose content or topic contains q, case-insensitively.
// q is matched literally; % and _ are not wildcards.
func (h *HistoryStore) Search(q string) ([]models.HistoryItem, error) {
	pattern := "%" + likeEscaper.Replace(q) + "%"
	return h.query(`SELECT id, ts, type, content, analysis, generated_content, topic
		FROM history
		WHERE content ILIKE ? ESCAPE '\' OR topic ILIKE ? ESCAPE '\'
		ORDER BY seq DESC`, pattern, pattern)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Get returns the item with id
func (h *HistoryStore) Get(id string) (models.HistoryItem, bool, error) {
	items, err := h.query(`SELECT id, ts, type, content, analysis, generated_content, topic
		FROM history WHERE id = ?`, id)
	if err != nil {
		return models.HistoryItem{}, false, err
	}
	if len(items) == 0 {
		return models.HistoryItem{}, false, nil
	}
	return items[0], true, nil
}

// Len returns the number of items
func (h *HistoryStore) Len() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var n int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

func (h *HistoryStore) query(q string, args ...any) ([]models.HistoryItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rows, err := h.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var items []models.HistoryItem
	for rows.Next() {
		var item models.HistoryItem
		var analysis, generated, topic sql.NullString
		if err := rows.Scan(&item.ID, &item.Timestamp, &item.Type, &item.Content, &analysis, &generated, &topic); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if analysis.String != "" {
			item.Analysis = json.RawMessage(analysis.String)
		}
		item.GeneratedContent = generated.String
		item.Topic = topic.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return items, nil
}
