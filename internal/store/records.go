package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adda-Baaj/blog-digest/internal/domain"
)

// JSONStore keeps the whole collection in a single JSON array file. Every
// Save rewrites the file, so appends cost O(n) in the collection size.
// Only one process may write to a given path at a time.
type JSONStore struct {
	path string
}

// NewJSONStore returns a store backed by the file at path.
func NewJSONStore(path string) (*JSONStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	return &JSONStore{path: path}, nil
}

// Path returns the backing file path.
func (s *JSONStore) Path() string { return s.path }

// Load reads the collection. A missing or blank file is an empty collection.
// Records written with the older flat schema are normalized in memory.
func (s *JSONStore) Load() ([]domain.BlogRecord, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.BlogRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", s.path, err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return []domain.BlogRecord{}, nil
	}

	var stored []storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode store %s: %w", s.path, err)
	}

	out := make([]domain.BlogRecord, 0, len(stored))
	for i, rec := range stored {
		br, err := rec.normalize()
		if err != nil {
			return nil, fmt.Errorf("store record %d: %w", i, err)
		}
		out = append(out, br)
	}
	return out, nil
}

// Save rewrites the file with the full collection. The data lands in a
// temporary file in the same directory first and is then renamed over the
// target.
func (s *JSONStore) Save(records []domain.BlogRecord) error {
	if records == nil {
		records = []domain.BlogRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// storedRecord accepts both the nested schema and the older flat one.
type storedRecord struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Date        string                  `json:"date"`
	OriginalURL string                  `json:"original_url"`
	Source      string                  `json:"source,omitempty"`
	Summaries   map[string]facetPayload `json:"summaries,omitempty"`

	Summary              *string                 `json:"summary,omitempty"`
	WordStats            *domain.WordStats       `json:"word_stats,omitempty"`
	ClassSummaries       map[string]facetPayload `json:"classSummaries,omitempty"`
	ContentTypeSummaries map[string]facetPayload `json:"contentTypeSummaries,omitempty"`
}

// facetPayload decodes a facet entry written either as an object or as a bare string.
type facetPayload struct {
	domain.FacetSummary
}

func (p *facetPayload) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		p.Summary = text
		return nil
	}
	return json.Unmarshal(data, &p.FacetSummary)
}

func (r storedRecord) normalize() (domain.BlogRecord, error) {
	if strings.TrimSpace(r.ID) == "" {
		return domain.BlogRecord{}, errors.New("id is empty")
	}

	br := domain.BlogRecord{
		ID:          r.ID,
		Title:       r.Title,
		Date:        r.Date,
		OriginalURL: r.OriginalURL,
		Source:      r.Source,
		Summaries:   make(map[string]domain.FacetSummary, len(r.Summaries)),
	}

	if len(r.Summaries) > 0 {
		for k, v := range r.Summaries {
			br.Summaries[k] = v.FacetSummary
		}
		return br, nil
	}

	if r.Summary != nil {
		general := domain.FacetSummary{Summary: *r.Summary}
		if r.WordStats != nil {
			general.WordStats = *r.WordStats
		}
		br.Summaries[domain.GeneralKey] = general
	}
	for k, v := range r.ClassSummaries {
		br.Summaries[k] = v.FacetSummary
	}
	for k, v := range r.ContentTypeSummaries {
		br.Summaries[k] = v.FacetSummary
	}
	if len(br.Summaries) == 0 && r.Summaries == nil {
		br.Summaries = nil
	}
	return br, nil
}
