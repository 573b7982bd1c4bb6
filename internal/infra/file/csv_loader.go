package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"checkpoint-quiz/internal/domain"
	"checkpoint-quiz/internal/questionset"
)

const extension = ".csv"

// CSVLoader serves preset question sets stored as <dir>/<id>.csv.
type CSVLoader struct {
	dir string
}

func NewCSVLoader(dir string) *CSVLoader {
	return &CSVLoader{dir: dir}
}

func (l *CSVLoader) LoadQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	if !validID(setID) {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	f, err := os.Open(filepath.Join(l.dir, setID+extension))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("open preset: %w", err)
	}
	defer f.Close()

	questions, err := questionset.Parse(f)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("parse preset %s: %w", setID, err)
	}
	return domain.QuestionSet{ID: setID, Name: displayName(setID), Questions: questions}, nil
}

// ListQuestionSets lists every parseable preset in the directory, ordered by id.
func (l *CSVLoader) ListQuestionSets(ctx context.Context) ([]domain.QuestionSetSummary, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var out []domain.QuestionSetSummary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != extension {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), extension)
		set, err := l.LoadQuestionSet(ctx, id)
		if err != nil {
			log.Printf("skipping preset %s: %v", entry.Name(), err)
			continue
		}
		out = append(out, domain.QuestionSetSummary{ID: set.ID, Name: set.Name, Count: len(set.Questions)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && filepath.Base(id) == id && !strings.ContainsAny(id, `/\`)
}

// displayName turns "world_capitals" into "world capitals".
func displayName(id string) string {
	return strings.NewReplacer("_", " ", "-", " ").Replace(id)
}
