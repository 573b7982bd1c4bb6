package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"checkpoint-quiz/internal/config"
	"checkpoint-quiz/internal/domain"
	pgstore "checkpoint-quiz/internal/infra/postgres"
	"checkpoint-quiz/internal/questionset"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewImportCmd loads a CSV file into the question_sets table.
func NewImportCmd(configPath *string) *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV question set into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			set, err := readQuestionSet(args[0], id, name)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgstore.NewQuestionSetStore(pool).SaveQuestionSet(ctx, set); err != nil {
				return err
			}
			log.Printf("imported %d questions as %s (%s)", len(set.Questions), set.ID, set.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "question set id (random when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name (file name when empty)")
	return cmd
}

func readQuestionSet(path, id, name string) (domain.QuestionSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.QuestionSet{}, err
	}
	defer f.Close()

	questions, err := questionset.Parse(f)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return domain.QuestionSet{ID: id, Name: name, Questions: questions}, nil
}
