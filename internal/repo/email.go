package repo

import (
	"context"
	"strings"

	"github.com/crucial707/itam/internal/db"
	"github.com/crucial707/itam/internal/errs"
	"github.com/crucial707/itam/internal/models"
)

// EmailRepo reads and writes registration_emails.
type EmailRepo struct {
	q db.Querier
}

func NewEmailRepo(q db.Querier) *EmailRepo {
	return &EmailRepo{q: q}
}

const emailColumns = `id, email, fullname, position, department, is_pc, is_mobile, notes, created_at`

// ========================
// CREATE
// ========================

// Create inserts the registration. A duplicate address yields errs.Conflict.
func (r *EmailRepo) Create(ctx context.Context, e models.RegistrationEmail) (int64, error) {
	res, err := r.q.Execute(ctx,
		`INSERT INTO registration_emails (email, fullname, position, department, is_pc, is_mobile, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		e.Email, nullString(e.FullName), nullString(e.Position), nullString(e.Department),
		boolInt(e.IsPC), boolInt(e.IsMobile), nullString(e.Notes), nullTime(e.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	if res.InsertedID == nil {
		return 0, errs.New(errs.Persistence, "email insert returned no id")
	}
	return *res.InsertedID, nil
}

// ========================
// READ
// ========================

func (r *EmailRepo) Get(ctx context.Context, id int64) (models.RegistrationEmail, error) {
	res, err := r.q.Execute(ctx, `SELECT `+emailColumns+` FROM registration_emails WHERE id = ?`, id)
	if err != nil {
		return models.RegistrationEmail{}, err
	}
	if len(res.Rows) == 0 {
		return models.RegistrationEmail{}, errs.New(errs.NotFound, "email registration not found")
	}
	return emailFromRow(res.Rows[0]), nil
}

// List returns registrations newest first.
func (r *EmailRepo) List(ctx context.Context, f models.EmailFilter) ([]models.RegistrationEmail, error) {
	stmt := `SELECT ` + emailColumns + ` FROM registration_emails`
	var args []any
	if f.Search != "" {
		term := "%" + strings.ToLower(f.Search) + "%"
		stmt += ` WHERE LOWER(email) LIKE ? OR LOWER(fullname) LIKE ? OR LOWER(position) LIKE ?
			OR LOWER(department) LIKE ? OR LOWER(notes) LIKE ?`
		args = append(args, term, term, term, term, term)
	}
	stmt += ` ORDER BY created_at DESC, id DESC`

	res, err := r.q.Execute(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	out := make([]models.RegistrationEmail, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, emailFromRow(row))
	}
	return out, nil
}

// ========================
// UPDATE
// ========================

// Update replaces every editable column. created_at is left alone.
func (r *EmailRepo) Update(ctx context.Context, id int64, e models.RegistrationEmail) error {
	res, err := r.q.Execute(ctx,
		`UPDATE registration_emails
		 SET email = ?, fullname = ?, position = ?, department = ?, is_pc = ?, is_mobile = ?, notes = ?
		 WHERE id = ?`,
		e.Email, nullString(e.FullName), nullString(e.Position), nullString(e.Department),
		boolInt(e.IsPC), boolInt(e.IsMobile), nullString(e.Notes), id,
	)
	if err != nil {
		return err
	}
	if res.Affected == 0 {
		return errs.New(errs.NotFound, "email registration not found")
	}
	return nil
}

// ========================
// DELETE
// ========================

func (r *EmailRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.Execute(ctx, `DELETE FROM registration_emails WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if res.Affected == 0 {
		return errs.New(errs.NotFound, "email registration not found")
	}
	return nil
}

func emailFromRow(row db.Row) models.RegistrationEmail {
	return models.RegistrationEmail{
		ID:         row.Int64("id"),
		Email:      row.String("email"),
		FullName:   row.String("fullname"),
		Position:   row.String("position"),
		Department: row.String("department"),
		IsPC:       row.Bool("is_pc"),
		IsMobile:   row.Bool("is_mobile"),
		Notes:      row.String("notes"),
		CreatedAt:  row.Time("created_at"),
	}
}
