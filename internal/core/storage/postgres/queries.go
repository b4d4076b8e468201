package postgres

// SQL queries for artifact storage. One row per key; Put replaces in place.

const (
	// queryGetArtifact reads the body for a key; sql.ErrNoRows means missing.
	queryGetArtifact = `
		SELECT body
		FROM artifacts
		WHERE key = $1
	`

	// queryPutArtifact upserts by key. The aggregator overwrites summaries on every run.
	queryPutArtifact = `
		INSERT INTO artifacts (key, body, content_type, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			body         = EXCLUDED.body,
			content_type = EXCLUDED.content_type,
			updated_at   = EXCLUDED.updated_at
	`

	queryArtifactsTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'artifacts'
		)
	`
)
