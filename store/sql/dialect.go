// Package sql provides PostgreSQL and MySQL storage for MonoPay accounts
// on top of database/sql.
package sql

// Dialect represents a SQL database dialect.
type Dialect string

const (
	// PostgreSQL dialect, served by the pgx stdlib driver.
	PostgreSQL Dialect = "postgres"
	// MySQL dialect, served by go-sql-driver/mysql. DSNs must set parseTime=true.
	MySQL Dialect = "mysql"
)

// queries holds the statements a dialect needs.
type queries struct {
	insertUser         string
	selectUserByEmail  string
	selectUserByID     string
	updatePasswordHash string

	insertUsedToken     string
	selectUsedToken     string
	deleteExpiredTokens string

	// isUniqueViolation reports whether err is a unique constraint failure.
	isUniqueViolation func(error) bool
}

// driverName returns the database/sql driver name for the dialect.
func (d Dialect) driverName() string {
	if d == MySQL {
		return "mysql"
	}
	return "pgx"
}

// gooseDialect returns the goose dialect name.
func (d Dialect) gooseDialect() string {
	if d == MySQL {
		return "mysql"
	}
	return "postgres"
}

// migrationsDir is the directory inside migrations.FS for the dialect.
func (d Dialect) migrationsDir() string {
	if d == MySQL {
		return "mysql"
	}
	return "postgres"
}

func (d Dialect) queries() *queries {
	if d == MySQL {
		return mysqlQueries()
	}
	return postgresQueries()
}
