package sql

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func mysqlQueries() *queries {
	return &queries{
		insertUser: `INSERT INTO users (` + userColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		selectUserByEmail:  `SELECT ` + userColumns + ` FROM users WHERE email = ?`,
		selectUserByID:     `SELECT ` + userColumns + ` FROM users WHERE id = ?`,
		updatePasswordHash: `UPDATE users SET password_hash = ?, updated_at = ? WHERE email = ?`,

		insertUsedToken: `INSERT INTO used_reset_tokens (token_hash, expires_at)
			VALUES (?, ?) ON DUPLICATE KEY UPDATE token_hash = token_hash`,
		selectUsedToken:     `SELECT 1 FROM used_reset_tokens WHERE token_hash = ? AND expires_at > ?`,
		deleteExpiredTokens: `DELETE FROM used_reset_tokens WHERE expires_at <= ?`,

		isUniqueViolation: isMySQLDuplicate,
	}
}

func isMySQLDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
