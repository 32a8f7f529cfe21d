package postgres

import (
	"context"

	"github.com/roguepikachu/snipsnap/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS snippets (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    title VARCHAR(255) NOT NULL,
    description TEXT NULL,
    code TEXT NOT NULL,
    language VARCHAR(50) NOT NULL,
    is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snippets_user_created_at ON snippets (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_snippets_user_language ON snippets (user_id, language);

CREATE TABLE IF NOT EXISTS tags (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(50) NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS snippet_tags (
    snippet_id BIGINT NOT NULL REFERENCES snippets (id) ON DELETE CASCADE,
    tag_id BIGINT NOT NULL REFERENCES tags (id) ON DELETE CASCADE,
    PRIMARY KEY (snippet_id, tag_id)
);
CREATE INDEX IF NOT EXISTS idx_snippet_tags_tag_id ON snippet_tags (tag_id);
`

// EnsureSchema creates required tables if they don't exist.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return err
	}
	logger.Info(ctx, "postgres schema ensured")
	return nil
}
