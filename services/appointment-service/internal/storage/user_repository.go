package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/appointmed/libs/access"
	"github.com/md-rashed-zaman/appointmed/libs/accounts"
	"github.com/md-rashed-zaman/appointmed/libs/db"
)

// UserRecord is a user row including its credential.
type UserRecord struct {
	accounts.User
	PasswordHash string
}

type ProviderFilter struct {
	Specialty string
	Search    string
	Location  string
}

// ProfileUpdate changes the non-empty fields only.
type ProfileUpdate struct {
	Name            string
	Phone           string
	Specialty       string
	Experience      int
	Bio             string
	Location        string
	ConsultationFee float64
}

type UserRepository struct {
	conn db.DBTX
}

func NewUserRepository(conn db.DBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

const userColumns = `id, name, email, phone, role, is_active, specialty, experience, bio, location, consultation_fee, created_at`

func (r *UserRepository) Create(ctx context.Context, q db.DBTX, u UserRecord) (accounts.User, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, phone, role, specialty, experience, bio, location, consultation_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+userColumns,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.Phone, string(u.Role),
		u.Specialty, u.Experience, u.Bio, u.Location, u.ConsultationFee)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (UserRecord, error) {
	var (
		rec  UserRecord
		role string
	)
	err := r.conn.QueryRow(ctx, `
		SELECT `+userColumns+`, password_hash
		FROM users
		WHERE lower(email) = lower($1)
	`, strings.TrimSpace(email)).Scan(
		&rec.ID, &rec.Name, &rec.Email, &rec.Phone, &role, &rec.IsActive,
		&rec.Specialty, &rec.Experience, &rec.Bio, &rec.Location, &rec.ConsultationFee, &rec.CreatedAt,
		&rec.PasswordHash,
	)
	if err != nil {
		return UserRecord{}, err
	}
	rec.Role = access.Role(role)
	return rec, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (accounts.User, error) {
	return scanUser(r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) List(ctx context.Context) ([]accounts.User, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// GetProvider returns an active provider.
func (r *UserRepository) GetProvider(ctx context.Context, id string) (accounts.User, error) {
	return scanUser(r.conn.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND role = 'provider' AND is_active
	`, id))
}

// ListProviders returns active providers. Specialty matches exactly, search
// matches a fragment of the name and location a fragment of the location,
// all case-insensitively.
func (r *UserRepository) ListProviders(ctx context.Context, f ProviderFilter) ([]accounts.User, error) {
	var (
		where = []string{"role = 'provider'", "is_active"}
		args  []any
	)
	add := func(clause, value string) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if s := strings.TrimSpace(f.Specialty); s != "" {
		add("lower(specialty) = lower($%d)", s)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("name ILIKE '%%' || $%d || '%%'", s)
	}
	if s := strings.TrimSpace(f.Location); s != "" {
		add("location ILIKE '%%' || $%d || '%%'", s)
	}

	rows, err := r.conn.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY name ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (accounts.User, error) {
	return scanUser(r.conn.QueryRow(ctx, `
		UPDATE users SET
			name = COALESCE(NULLIF($2, ''), name),
			phone = COALESCE(NULLIF($3, ''), phone),
			specialty = COALESCE(NULLIF($4, ''), specialty),
			experience = CASE WHEN $5::int > 0 THEN $5::int ELSE experience END,
			bio = COALESCE(NULLIF($6, ''), bio),
			location = COALESCE(NULLIF($7, ''), location),
			consultation_fee = CASE WHEN $8::double precision > 0 THEN $8::double precision ELSE consultation_fee END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.Name, p.Phone, p.Specialty, p.Experience, p.Bio, p.Location, p.ConsultationFee))
}

func (r *UserRepository) ToggleActive(ctx context.Context, id string) (accounts.User, error) {
	return scanUser(r.conn.QueryRow(ctx, `
		UPDATE users SET is_active = NOT is_active, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id))
}

func scanUser(row pgx.Row) (accounts.User, error) {
	var (
		u    accounts.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &role, &u.IsActive,
		&u.Specialty, &u.Experience, &u.Bio, &u.Location, &u.ConsultationFee, &u.CreatedAt); err != nil {
		return accounts.User{}, err
	}
	u.Role = access.Role(role)
	return u, nil
}

func collectUsers(rows pgx.Rows) ([]accounts.User, error) {
	defer rows.Close()
	users := []accounts.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
