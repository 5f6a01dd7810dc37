package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0002_create_interviews.sql
var createInterviewsSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createInterviewsSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS results;
				DROP TABLE IF EXISTS user_answers;
				DROP TABLE IF EXISTS interview_sessions;
				DROP TABLE IF EXISTS candidates`)
			return err
		},
	)
}
