package sql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const userColumns = `id, email, full_name, password_hash, email_verified, created_at, updated_at`

func postgresQueries() *queries {
	return &queries{
		insertUser: `INSERT INTO users (` + userColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		selectUserByEmail:  `SELECT ` + userColumns + ` FROM users WHERE email = $1`,
		selectUserByID:     `SELECT ` + userColumns + ` FROM users WHERE id = $1`,
		updatePasswordHash: `UPDATE users SET password_hash = $1, updated_at = $2 WHERE email = $3`,

		insertUsedToken: `INSERT INTO used_reset_tokens (token_hash, expires_at)
			VALUES ($1, $2) ON CONFLICT (token_hash) DO NOTHING`,
		selectUsedToken:     `SELECT 1 FROM used_reset_tokens WHERE token_hash = $1 AND expires_at > $2`,
		deleteExpiredTokens: `DELETE FROM used_reset_tokens WHERE expires_at <= $1`,

		isUniqueViolation: isPostgresUniqueViolation,
	}
}

func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
