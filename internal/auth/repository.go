package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/database"
)

var (
	// ErrNotFound is returned when the user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrNoRole is returned when an authenticated user has no role record.
	ErrNoRole = errors.New("user has no role")
	// ErrEmailTaken is returned on registration with an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

// Repository is the identity and role store: users, their single role, and operator section grants.
type Repository struct {
	db database.DB
}

// NewRepository creates an auth repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, email, password_hash, full_name, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// NormalizeEmail is the stored form of an address. users.email is unique on lower(email).
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByEmail returns a user by email, ignoring case.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, NormalizeEmail(email)))
}

// RoleFor returns the principal's role, or ErrNoRole when no role row exists.
func (r *Repository) RoleFor(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	var raw string
	err := r.db.QueryRow(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoRole
	}
	if err != nil {
		return "", fmt.Errorf("load role: %w", err)
	}
	role, err := models.ParseRole(raw)
	if err != nil {
		return "", fmt.Errorf("user %s: %w", userID, err)
	}
	return role, nil
}

// HasSection reports whether the operator holds a grant for section.
func (r *Repository) HasSection(ctx context.Context, userID uuid.UUID, section models.Section) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM operator_permissions WHERE user_id = $1 AND section = $2)`,
		userID, string(section)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("load permission: %w", err)
	}
	return ok, nil
}

// Sections lists the operator's granted sections.
func (r *Repository) Sections(ctx context.Context, userID uuid.UUID) ([]models.OperatorPermission, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, section, granted_at FROM operator_permissions WHERE user_id = $1 ORDER BY section`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.OperatorPermission
	for rows.Next() {
		var p models.OperatorPermission
		var section string
		if err := rows.Scan(&p.UserID, &section, &p.GrantedAt); err != nil {
			return nil, err
		}
		p.Section = models.Section(section)
		list = append(list, p)
	}
	return list, rows.Err()
}

// GrantSection adds a section grant; granting twice is a no-op.
func (r *Repository) GrantSection(ctx context.Context, userID uuid.UUID, section models.Section) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO operator_permissions (user_id, section) VALUES ($1, $2) ON CONFLICT (user_id, section) DO NOTHING`,
		userID, string(section))
	return err
}

// RevokeSection removes a section grant.
func (r *Repository) RevokeSection(ctx context.Context, userID uuid.UUID, section models.Section) error {
	_, err := r.db.Exec(ctx, `DELETE FROM operator_permissions WHERE user_id = $1 AND section = $2`, userID, string(section))
	return err
}

// StaffMember is an operator-side principal that should hear about quote activity.
type StaffMember struct {
	UserID uuid.UUID
	Email  string
}

// QuoteStaff returns admins, super admins, and operators granted the quotes section.
func (r *Repository) QuoteStaff(ctx context.Context) ([]StaffMember, error) {
	const q = `SELECT u.id, u.email
		FROM users u
		INNER JOIN user_roles ur ON ur.user_id = u.id
		WHERE ur.role IN ('admin', 'super_admin')
		   OR (ur.role = 'operator' AND EXISTS (
				SELECT 1 FROM operator_permissions p WHERE p.user_id = u.id AND p.section = 'quotes'))
		ORDER BY u.email`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []StaffMember
	for rows.Next() {
		var m StaffMember
		if err := rows.Scan(&m.UserID, &m.Email); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// List returns all users with their role (empty when no role row exists).
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.db.Query(ctx, `SELECT u.id, u.email, u.full_name, COALESCE(ur.role, ''), u.created_at
		FROM users u LEFT JOIN user_roles ur ON ur.user_id = u.id
		ORDER BY u.full_name, u.email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &role, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = models.Role(role)
		list = append(list, u)
	}
	return list, rows.Err()
}

// RegisterAgencyParams holds the data captured at agency sign-up.
type RegisterAgencyParams struct {
	Email         string
	PasswordHash  string
	FullName      string
	AgencyName    string
	Phone         string
	VATNumber     string
	DocumentDueAt time.Time
}

// RegisterAgency creates the user, its agency role, and a pending agency in one transaction.
func (r *Repository) RegisterAgency(ctx context.Context, p RegisterAgencyParams) (*models.User, *models.Agency, error) {
	var user models.User
	var agency models.Agency
	p.Email = NormalizeEmail(p.Email)
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO users (email, password_hash, full_name)
			VALUES ($1, $2, $3)
			RETURNING `+userColumns, p.Email, p.PasswordHash, p.FullName).
			Scan(&user.ID, &user.Email, &user.Password, &user.FullName, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrEmailTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, user.ID, string(models.RoleAgency)); err != nil {
			return fmt.Errorf("insert role: %w", err)
		}
		var status string
		err = tx.QueryRow(ctx, `INSERT INTO agencies (user_id, name, email, phone, vat_number, status, document_due_at)
			VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), $6, $7)
			RETURNING id, status, created_at, updated_at`,
			user.ID, p.AgencyName, p.Email, p.Phone, p.VATNumber, string(models.AgencyStatusPending), p.DocumentDueAt).
			Scan(&agency.ID, &status, &agency.CreatedAt, &agency.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert agency: %w", err)
		}
		agency.UserID = user.ID
		agency.Name = p.AgencyName
		agency.Email = p.Email
		agency.Phone = p.Phone
		agency.VATNumber = p.VATNumber
		agency.Status = models.AgencyStatus(status)
		due := p.DocumentDueAt
		agency.DocumentDueAt = &due
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &user, &agency, nil
}
