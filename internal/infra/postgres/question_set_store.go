package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"checkpoint-quiz/internal/domain"
	"checkpoint-quiz/internal/questionset"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionSetStore loads and saves question sets as JSONB rows in Postgres.
type QuestionSetStore struct {
	pool *pgxpool.Pool
}

func NewQuestionSetStore(pool *pgxpool.Pool) *QuestionSetStore {
	return &QuestionSetStore{pool: pool}
}

func (s *QuestionSetStore) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	var (
		name string
		raw  []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT name, data FROM question_sets WHERE id=$1`, setID).Scan(&name, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("load question set: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("unmarshal question set: %w", err)
	}
	if err := questionset.ValidateSet(questions); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("stored question set %s: %w", setID, err)
	}
	return domain.QuestionSet{ID: setID, Name: name, Questions: questions}, nil
}

func (s *QuestionSetStore) SaveQuestionSet(ctx context.Context, set domain.QuestionSet) error {
	data, err := json.Marshal(set.Questions)
	if err != nil {
		return fmt.Errorf("marshal question set: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO question_sets (id, name, data) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, data=EXCLUDED.data, updated_at=now()`,
		set.ID, set.Name, string(data))
	if err != nil {
		return fmt.Errorf("save question set: %w", err)
	}
	return nil
}

// ListQuestionSets returns stored sets ordered by id.
func (s *QuestionSetStore) ListQuestionSets(ctx context.Context) ([]domain.QuestionSetSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, jsonb_array_length(data) FROM question_sets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list question sets: %w", err)
	}
	defer rows.Close()

	var out []domain.QuestionSetSummary
	for rows.Next() {
		var summary domain.QuestionSetSummary
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.Count); err != nil {
			return nil, fmt.Errorf("scan question set: %w", err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}
