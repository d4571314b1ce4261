package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

var userColumns = []string{"u.id", "u.email", "u.username", "u.password", "u.first_name", "u.last_name", "u.avatar", "u.created_at"}

func userDest(u *model.User) []any {
	return []any{&u.ID, &u.Email, &u.Username, &u.Password, &u.FirstName, &u.LastName, &u.Avatar, &u.CreatedAt}
}

func scanUser(row pgx.Row, u *model.User) error {
	return row.Scan(userDest(u)...)
}

func collectUsers(dst *[]model.User) func(pgx.Rows) error {
	return func(rows pgx.Rows) error {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return err
		}
		*dst = append(*dst, u)
		return nil
	}
}

type userRepository struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	b := psql.Insert("users").
		Columns("email", "username", "password", "first_name", "last_name", "avatar").
		Values(u.Email, u.Username, u.Password, u.FirstName, u.LastName, u.Avatar).
		Suffix("RETURNING id, created_at")
	if err := queryRow(ctx, r.pool, b, &u.ID, &u.CreatedAt); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (model.User, error) {
	return r.getBy(ctx, sq.Eq{"u.id": id})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getBy(ctx, sq.Eq{"u.email": email})
}

func (r *userRepository) getBy(ctx context.Context, where sq.Sqlizer) (model.User, error) {
	var out model.User
	b := psql.Select(userColumns...).From("users u").Where(where)
	if err := queryRow(ctx, r.pool, b, userDest(&out)...); err != nil {
		return model.User{}, err
	}
	return out, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []int64) (map[int64]model.User, error) {
	out := make(map[int64]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	b := psql.Select(userColumns...).From("users u").Where("u.id = ANY(?)", ids)
	err := query(ctx, r.pool, b, func(rows pgx.Rows) error {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return err
		}
		out[u.ID] = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepository) Taken(ctx context.Context, email, username string) (bool, bool, error) {
	b := psql.Select().
		Column("EXISTS(SELECT 1 FROM users WHERE lower(email) = lower(?))", email).
		Column("EXISTS(SELECT 1 FROM users WHERE username = ?)", username)
	var emailTaken, usernameTaken bool
	if err := queryRow(ctx, r.pool, b, &emailTaken, &usernameTaken); err != nil {
		return false, false, err
	}
	return emailTaken, usernameTaken, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.pool, psql.Select("COUNT(*)").From("users"))
}

func (r *userRepository) List(ctx context.Context, w repository.Window) ([]model.User, error) {
	b := psql.Select(userColumns...).From("users u").OrderBy("u.id").
		Limit(uint64(w.Limit)).Offset(uint64(w.Offset))
	out := make([]model.User, 0, w.Limit)
	if err := query(ctx, r.pool, b, collectUsers(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, id, "password", hash)
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id int64, avatar *string) error {
	return r.update(ctx, id, "avatar", avatar)
}

func (r *userRepository) update(ctx context.Context, id int64, column string, value any) error {
	n, err := exec(ctx, r.pool, psql.Update("users").Set(column, value).Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*userRepository)(nil)
