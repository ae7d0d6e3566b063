package account

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsechat/internal/app/db"
)

// PostgresRepository persists accounts in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgresRepository over pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts acct, mapping a unique violation on external_id to
// ErrDuplicateExternalID.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (id, external_id, display_name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		acct.ID, acct.ExternalID, acct.DisplayName, acct.PasswordHash, acct.CreatedAt,
	)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateExternalID
		}
		return err
	}

	return nil
}

// GetByID returns the account with the given id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Account, error) {
	return r.getByColumn(ctx, "id", id)
}

// GetByExternalID returns the account registered under externalID.
func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (Account, error) {
	return r.getByColumn(ctx, "external_id", externalID)
}

func (r *PostgresRepository) getByColumn(ctx context.Context, column, value string) (Account, error) {
	var acct Account

	query := `SELECT id, external_id, display_name, password_hash, created_at
	          FROM accounts WHERE ` + column + ` = $1`

	err := r.pool.QueryRow(ctx, query, value).Scan(
		&acct.ID, &acct.ExternalID, &acct.DisplayName, &acct.PasswordHash, &acct.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}

	return acct, nil
}

// List returns all accounts ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, external_id, display_name, password_hash, created_at
		 FROM accounts ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var acct Account
		if err := rows.Scan(
			&acct.ID, &acct.ExternalID, &acct.DisplayName, &acct.PasswordHash, &acct.CreatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}

	return accounts, rows.Err()
}
