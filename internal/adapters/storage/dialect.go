package storage

import (
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const (
	sentencesTable    = "source_sentences"
	translationsTable = "valid_translations"
	feedbackTable     = "translation_feedback"

	pgForeignKeyViolation    = "23503"
	mysqlForeignKeyViolation = 1452
)

// dialect captures what differs between the SQL engines
type dialect struct {
	name        string
	driver      string
	placeholder sq.PlaceholderFormat
	random      string
	schema      []string

	// insertIgnore turns an insert into insert-if-absent
	insertIgnore func(sq.InsertBuilder) sq.InsertBuilder

	// foreignKeyViolation reports a missing referenced sentence
	foreignKeyViolation func(error) bool
}

var sqliteDialect = dialect{
	name:        "sqlite",
	driver:      "sqlite3",
	placeholder: sq.Question,
	random:      "RANDOM()",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS source_sentences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL,
			sentence TEXT NOT NULL,
			UNIQUE (level, sentence)
		)`,
		`CREATE TABLE IF NOT EXISTS valid_translations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sentence_id INTEGER NOT NULL REFERENCES source_sentences(id),
			translation TEXT NOT NULL,
			UNIQUE (sentence_id, translation)
		)`,
		`CREATE TABLE IF NOT EXISTS translation_feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			signature TEXT NOT NULL UNIQUE,
			level TEXT NOT NULL,
			sentence_id INTEGER NOT NULL,
			model_id TEXT NOT NULL,
			prompt_version TEXT NOT NULL,
			translation_norm TEXT NOT NULL,
			translation_hash TEXT NOT NULL,
			verdict TEXT NOT NULL,
			feedback_json TEXT NOT NULL,
			hit_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_sentence ON translation_feedback(sentence_id)`,
	},
	insertIgnore: func(b sq.InsertBuilder) sq.InsertBuilder {
		return b.Options("OR IGNORE")
	},
	foreignKeyViolation: func(err error) bool {
		var liteErr sqlite3.Error
		return errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	},
}

var mysqlDialect = dialect{
	name:        "mysql",
	driver:      "mysql",
	placeholder: sq.Question,
	random:      "RAND()",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS source_sentences (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			level VARCHAR(8) NOT NULL,
			sentence VARCHAR(512) NOT NULL,
			UNIQUE KEY uq_sentence (level, sentence)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS valid_translations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			sentence_id BIGINT NOT NULL,
			translation VARCHAR(512) NOT NULL,
			UNIQUE KEY uq_translation (sentence_id, translation),
			CONSTRAINT fk_translation_sentence FOREIGN KEY (sentence_id) REFERENCES source_sentences(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS translation_feedback (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			signature VARCHAR(255) NOT NULL,
			level VARCHAR(8) NOT NULL,
			sentence_id BIGINT NOT NULL,
			model_id VARCHAR(128) NOT NULL,
			prompt_version VARCHAR(64) NOT NULL,
			translation_norm TEXT NOT NULL,
			translation_hash CHAR(12) NOT NULL,
			verdict VARCHAR(16) NOT NULL,
			feedback_json TEXT NOT NULL,
			hit_count BIGINT NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL,
			UNIQUE KEY uq_signature (signature),
			INDEX idx_feedback_sentence (sentence_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	insertIgnore: func(b sq.InsertBuilder) sq.InsertBuilder {
		return b.Options("IGNORE")
	},
	foreignKeyViolation: func(err error) bool {
		var myErr *mysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == mysqlForeignKeyViolation
	},
}

var postgresDialect = dialect{
	name:        "postgres",
	driver:      "pgx",
	placeholder: sq.Dollar,
	random:      "RANDOM()",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS source_sentences (
			id BIGSERIAL PRIMARY KEY,
			level TEXT NOT NULL,
			sentence TEXT NOT NULL,
			UNIQUE (level, sentence)
		)`,
		`CREATE TABLE IF NOT EXISTS valid_translations (
			id BIGSERIAL PRIMARY KEY,
			sentence_id BIGINT NOT NULL REFERENCES source_sentences(id),
			translation TEXT NOT NULL,
			UNIQUE (sentence_id, translation)
		)`,
		`CREATE TABLE IF NOT EXISTS translation_feedback (
			id BIGSERIAL PRIMARY KEY,
			signature TEXT NOT NULL UNIQUE,
			level TEXT NOT NULL,
			sentence_id BIGINT NOT NULL,
			model_id TEXT NOT NULL,
			prompt_version TEXT NOT NULL,
			translation_norm TEXT NOT NULL,
			translation_hash TEXT NOT NULL,
			verdict TEXT NOT NULL,
			feedback_json TEXT NOT NULL,
			hit_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_sentence ON translation_feedback(sentence_id)`,
	},
	insertIgnore: func(b sq.InsertBuilder) sq.InsertBuilder {
		return b.Suffix("ON CONFLICT DO NOTHING")
	},
	foreignKeyViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
	},
}
