package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	c "passgate/internal/core/domain/common"
	"passgate/internal/core/domain/user"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

const PG_UNIQUE_CONSTRAINT_ERR_CODE = "23505"
const EMAIL_CONSTRAINT_NAME = "user_email_provider_idx"

const userColumns = `id, email, password_hash, provider, reset_token_digest, reset_sent_at,
	allow_password_change, confirmed_at, created_at, tokens`

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the repository
// works standalone and inside a unit of work.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type PgxUserRepository struct {
	db DBTX
}

func NewPgxRepository(db DBTX) *PgxUserRepository {
	if db == nil {
		panic("Argument db must not be nil.")
	}
	return &PgxUserRepository{db: db}
}

func (r *PgxUserRepository) Create(ctx context.Context, input user.CreateUserInput) (u user.User, err error) {
	row := r.db.QueryRow(
		ctx,
		`INSERT INTO "user" (email, password_hash, provider, confirmed_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		encodeEmail(input.Email),
		encodePasswordHash(input.PasswordHash),
		string(input.Provider),
		encodeOptionalTime(input.ConfirmedAt),
		input.CreatedAt,
	)
	u, err = scanUser(row)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == PG_UNIQUE_CONSTRAINT_ERR_CODE && pgErr.ConstraintName == EMAIL_CONSTRAINT_NAME {
			return u, user.ErrEmailAlreadyExists
		}
	}
	if err != nil {
		return u, err
	}
	if err = u.Validate(); err != nil {
		return u, err
	}
	return u, nil
}

func (r *PgxUserRepository) GetByID(ctx context.Context, id user.ID) (u user.User, err error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM "user" WHERE id = $1`, int64(id))
	u, err = scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, user.ErrUserDoesNotExist
	}
	if err != nil {
		return u, err
	}
	return u, nil
}

func (r *PgxUserRepository) GetByEmail(ctx context.Context, input user.GetByEmailInput) (u user.User, err error) {
	conditions := []string{"email = $1"}
	if !input.ForceCaseSensitive {
		conditions[0] = "lower(email) = lower($1)"
	}
	args := []interface{}{string(input.Email)}
	if input.Provider.IsPresent {
		conditions = append(conditions, "provider = $2")
		args = append(args, string(input.Provider.Value))
	}

	query := fmt.Sprintf(
		`SELECT %s FROM "user" WHERE %s ORDER BY id LIMIT 1`,
		userColumns,
		strings.Join(conditions, " AND "),
	)
	row := r.db.QueryRow(ctx, query, args...)
	u, err = scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, user.ErrUserDoesNotExist
	}
	if err != nil {
		return u, err
	}
	return u, nil
}

func (r *PgxUserRepository) GetByResetTokenDigest(
	ctx context.Context,
	digest user.ResetTokenDigest,
) (u user.User, err error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM "user" WHERE reset_token_digest = $1`,
		string(digest),
	)
	u, err = scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, user.ErrUserDoesNotExist
	}
	if err != nil {
		return u, err
	}
	return u, nil
}

func (r *PgxUserRepository) SetResetToken(
	ctx context.Context,
	id user.ID,
	digest user.ResetTokenDigest,
	sentAt time.Time,
) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE "user" SET reset_token_digest = $2, reset_sent_at = $3 WHERE id = $1`,
		int64(id),
		string(digest),
		sentAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserDoesNotExist
	}
	return nil
}

func (r *PgxUserRepository) ConsumeResetToken(
	ctx context.Context,
	digest user.ResetTokenDigest,
) (u user.User, err error) {
	row := r.db.QueryRow(
		ctx,
		`UPDATE "user" SET reset_token_digest = NULL, reset_sent_at = NULL
		WHERE reset_token_digest = $1
		RETURNING `+userColumns,
		string(digest),
	)
	u, err = scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, user.ErrUserDoesNotExist
	}
	if err != nil {
		return u, err
	}
	return u, nil
}

func (r *PgxUserRepository) Update(ctx context.Context, input user.UpdateUserInput) (u user.User, err error) {
	assignments := make([]string, 0, 3)
	args := []interface{}{int64(input.ID)}

	if input.DoTokensUpdate {
		tokens, err := encodeTokens(input.Tokens)
		if err != nil {
			return u, err
		}
		args = append(args, tokens)
		assignments = append(assignments, fmt.Sprintf("tokens = $%d", len(args)))
	}
	if input.DoAllowPasswordChangeUpdate {
		args = append(args, input.AllowPasswordChange)
		assignments = append(assignments, fmt.Sprintf("allow_password_change = $%d", len(args)))
	}
	if input.DoConfirmedAtUpdate {
		args = append(args, encodeOptionalTime(input.ConfirmedAt))
		assignments = append(assignments, fmt.Sprintf("confirmed_at = $%d", len(args)))
	}
	if len(assignments) == 0 {
		return r.GetByID(ctx, input.ID)
	}

	query := fmt.Sprintf(
		`UPDATE "user" SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(assignments, ", "),
		userColumns,
	)
	row := r.db.QueryRow(ctx, query, args...)
	u, err = scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, user.ErrUserDoesNotExist
	}
	if err != nil {
		return u, err
	}
	return u, nil
}

func (r *PgxUserRepository) SetPassword(ctx context.Context, id user.ID, password user.PasswordHash) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE "user" SET password_hash = $2 WHERE id = $1`,
		int64(id),
		string(password),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserDoesNotExist
	}
	return nil
}

func (r *PgxUserRepository) SetAllowPasswordChange(ctx context.Context, id user.ID, allow bool) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE "user" SET allow_password_change = $2 WHERE id = $1`,
		int64(id),
		allow,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserDoesNotExist
	}
	return nil
}

func scanUser(row pgx.Row) (u user.User, err error) {
	var (
		id                  int64
		email               sql.NullString
		passwordHash        sql.NullString
		provider            string
		resetTokenDigest    sql.NullString
		resetSentAt         sql.NullTime
		allowPasswordChange bool
		confirmedAt         sql.NullTime
		createdAt           time.Time
		tokens              pgtype.JSONB
	)
	err = row.Scan(
		&id,
		&email,
		&passwordHash,
		&provider,
		&resetTokenDigest,
		&resetSentAt,
		&allowPasswordChange,
		&confirmedAt,
		&createdAt,
		&tokens,
	)
	if err != nil {
		return u, err
	}
	tokenMap, err := decodeTokens(tokens)
	if err != nil {
		return u, err
	}
	return user.User{
		ID:                  user.ID(id),
		Email:               c.NewOptional(c.Email(email.String), email.Valid),
		PasswordHash:        c.NewOptional(user.PasswordHash(passwordHash.String), passwordHash.Valid),
		Provider:            user.Provider(provider),
		ResetTokenDigest:    c.NewOptional(user.ResetTokenDigest(resetTokenDigest.String), resetTokenDigest.Valid),
		ResetSentAt:         c.NewOptional(resetSentAt.Time, resetSentAt.Valid),
		AllowPasswordChange: allowPasswordChange,
		ConfirmedAt:         c.NewOptional(confirmedAt.Time, confirmedAt.Valid),
		CreatedAt:           createdAt,
		Tokens:              tokenMap,
	}, nil
}

func encodeEmail(email c.Optional[c.Email]) sql.NullString {
	return sql.NullString{String: string(email.Value), Valid: email.IsPresent}
}

func encodePasswordHash(ph c.Optional[user.PasswordHash]) sql.NullString {
	return sql.NullString{String: string(ph.Value), Valid: ph.IsPresent}
}

func encodeOptionalTime(at c.Optional[time.Time]) sql.NullTime {
	return sql.NullTime{Time: at.Value, Valid: at.IsPresent}
}

func encodeTokens(tokens user.TokenMap) (pgtype.JSONB, error) {
	if tokens == nil {
		tokens = user.TokenMap{}
	}
	raw, err := json.Marshal(tokens)
	if err != nil {
		return pgtype.JSONB{}, err
	}
	return pgtype.JSONB{Bytes: raw, Status: pgtype.Present}, nil
}

func decodeTokens(tokens pgtype.JSONB) (user.TokenMap, error) {
	tokenMap := user.TokenMap{}
	if tokens.Status != pgtype.Present {
		return tokenMap, nil
	}
	if err := json.Unmarshal(tokens.Bytes, &tokenMap); err != nil {
		return nil, err
	}
	return tokenMap, nil
}
