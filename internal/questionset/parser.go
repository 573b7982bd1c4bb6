package questionset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"checkpoint-quiz/internal/domain"
)

// OptionCount is the number of options every question carries.
const OptionCount = 4

const fieldsPerRecord = OptionCount + 2

// Parse reads questions from CSV records shaped as: prompt,option1,option2,option3,option4,correct.
// Blank lines are ignored and malformed records are skipped with a warning.
func Parse(r io.Reader) ([]domain.Question, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var questions []domain.Question
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Printf("skipping malformed line %d: %v", parseErr.Line, err)
				continue
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}

		q, err := fromRecord(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			log.Printf("skipping malformed line %d: %v", line, err)
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	return questions, nil
}

func fromRecord(record []string) (domain.Question, error) {
	if len(record) != fieldsPerRecord {
		return domain.Question{}, fmt.Errorf("%w: expected %d fields, got %d", domain.ErrInvalidQuestion, fieldsPerRecord, len(record))
	}
	fields := make([]string, len(record))
	for i, f := range record {
		fields[i] = clean(f)
	}
	q := domain.Question{
		Prompt:  fields[0],
		Options: fields[1 : 1+OptionCount],
		Correct: fields[fieldsPerRecord-1],
	}
	return q, Validate(q)
}

func clean(field string) string {
	field = strings.TrimSpace(field)
	field = strings.TrimPrefix(field, `"`)
	field = strings.TrimSuffix(field, `"`)
	return strings.TrimSpace(field)
}

// Validate checks a question's structural shape: a prompt, four distinct non-empty options,
// and a correct value that is one of them.
func Validate(q domain.Question) error {
	if q.Prompt == "" {
		return fmt.Errorf("%w: empty prompt", domain.ErrInvalidQuestion)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w: expected %d options, got %d", domain.ErrInvalidQuestion, OptionCount, len(q.Options))
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("%w: empty option", domain.ErrInvalidQuestion)
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("%w: duplicate option %q", domain.ErrInvalidQuestion, opt)
		}
		seen[opt] = struct{}{}
	}
	if q.Correct == "" {
		return fmt.Errorf("%w: empty correct option", domain.ErrInvalidQuestion)
	}
	if !q.HasOption(q.Correct) {
		return fmt.Errorf("%w: correct option %q is not one of the options", domain.ErrInvalidQuestion, q.Correct)
	}
	return nil
}

// ValidateSet checks every question in a set.
func ValidateSet(questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.ErrEmptyQuestionSet
	}
	for i, q := range questions {
		if err := Validate(q); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}
