package repo

import (
	"context"
	"strings"

	"github.com/crucial707/itam/internal/db"
	"github.com/crucial707/itam/internal/errs"
	"github.com/crucial707/itam/internal/models"
)

// ========================
// REPOSITORY STRUCT
// ========================

// TicketRepo reads and writes maintenance_logs.
type TicketRepo struct {
	q db.Querier
}

func NewTicketRepo(q db.Querier) *TicketRepo {
	return &TicketRepo{q: q}
}

const ticketSelect = `SELECT m.id, m.asset_id, m.description, m.cost, m.status, m.service_type,
	m.repair_method, m.reporter_name, m.contact_info, m.department, m.location, m.technician_name,
	m.started_at, m.completed_at, m.signature, m.signer_name, m.log_date, m.created_at,
	a.asset_code, a.name AS asset_name, a.type AS asset_type, a.email, a.is_pc, a.is_mobile
	FROM maintenance_logs m
	LEFT JOIN assets a ON m.asset_id = a.id`

// ========================
// CREATE TICKET
// ========================

func (r *TicketRepo) Create(ctx context.Context, t models.Ticket) (int64, error) {
	res, err := r.q.Execute(ctx,
		`INSERT INTO maintenance_logs (asset_id, description, cost, log_date, status, reporter_name,
			contact_info, department, service_type, repair_method, created_at, location)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		t.AssetID, nullString(t.Description), nullFloat(t.Cost), nullTime(t.LogDate), string(t.Status),
		nullString(t.ReporterName), nullString(t.ContactInfo), nullString(t.Department),
		string(t.ServiceType), string(t.RepairMethod), nullTime(t.CreatedAt), nullString(t.Location),
	)
	if err != nil {
		return 0, err
	}
	if res.InsertedID == nil {
		return 0, errs.New(errs.Persistence, "ticket insert returned no id")
	}
	return *res.InsertedID, nil
}

// ========================
// GET TICKET BY ID
// ========================

func (r *TicketRepo) Get(ctx context.Context, id int64) (models.Ticket, error) {
	res, err := r.q.Execute(ctx, ticketSelect+` WHERE m.id = ?`, id)
	if err != nil {
		return models.Ticket{}, err
	}
	if len(res.Rows) == 0 {
		return models.Ticket{}, errs.New(errs.NotFound, "ticket not found")
	}
	return ticketFromRow(res.Rows[0]), nil
}

// ========================
// LIST TICKETS
// ========================

// List returns tickets newest first. A date filter matches the creation day,
// or the log day for rows written before created_at existed.
func (r *TicketRepo) List(ctx context.Context, f models.TicketFilter) ([]models.Ticket, error) {
	stmt := ticketSelect
	var args []any

	switch {
	case f.Date != "":
		stmt += ` WHERE (m.created_at IS NOT NULL AND DATE(m.created_at) = ?)
			OR (m.created_at IS NULL AND DATE(m.log_date) = ?)`
		args = append(args, f.Date, f.Date)
	case f.AssetID != nil:
		stmt += ` WHERE m.asset_id = ?`
		args = append(args, *f.AssetID)
	}
	stmt += ` ORDER BY COALESCE(m.created_at, m.log_date) DESC, m.status ASC, m.id DESC`

	res, err := r.q.Execute(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	tickets := make([]models.Ticket, 0, len(res.Rows))
	for _, row := range res.Rows {
		tickets = append(tickets, ticketFromRow(row))
	}
	return tickets, nil
}

// CountByAsset returns how many tickets reference the asset.
func (r *TicketRepo) CountByAsset(ctx context.Context, assetID int64) (int64, error) {
	res, err := r.q.Execute(ctx, `SELECT COUNT(*) AS n FROM maintenance_logs WHERE asset_id = ?`, assetID)
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	return res.Rows[0].Int64("n"), nil
}

// ========================
// UPDATE TICKET
// ========================

// Update applies the non-nil fields of p.
func (r *TicketRepo) Update(ctx context.Context, id int64, p models.TicketPatch) error {
	return r.update(ctx, id, nil, p)
}

// UpdateFrom applies p only while the ticket is still in status from. A
// ticket that exists in another status yields errs.InvalidTransition.
func (r *TicketRepo) UpdateFrom(ctx context.Context, id int64, from models.TicketStatus, p models.TicketPatch) error {
	return r.update(ctx, id, &from, p)
}

func (r *TicketRepo) update(ctx context.Context, id int64, from *models.TicketStatus, p models.TicketPatch) error {
	var sets []string
	var args []any

	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.Cost != nil {
		add("cost", *p.Cost)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.TechnicianName != nil {
		add("technician_name", *p.TechnicianName)
	}
	if p.StartedAt != nil {
		add("started_at", p.StartedAt.UTC())
	}
	if p.CompletedAt != nil {
		add("completed_at", p.CompletedAt.UTC())
	}
	if p.Signature != nil {
		add("signature", *p.Signature)
	}
	if p.RepairMethod != nil {
		add("repair_method", string(*p.RepairMethod))
	}
	if p.SignerName != nil {
		add("signer_name", *p.SignerName)
	}
	if len(sets) == 0 {
		return errs.Invalid("no fields to update", nil)
	}

	stmt := `UPDATE maintenance_logs SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)
	if from != nil {
		stmt += ` AND status = ?`
		args = append(args, string(*from))
	}

	res, err := r.q.Execute(ctx, stmt, args...)
	if err != nil {
		return err
	}
	if res.Affected > 0 {
		return nil
	}
	if from == nil {
		return errs.New(errs.NotFound, "ticket not found")
	}
	// Tell a missing ticket apart from one that moved on.
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return errs.New(errs.InvalidTransition, "ticket is no longer "+string(*from))
}

// ========================
// DELETE TICKET BY ID
// ========================

func (r *TicketRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.Execute(ctx, `DELETE FROM maintenance_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if res.Affected == 0 {
		return errs.New(errs.NotFound, "ticket not found")
	}
	return nil
}

func ticketFromRow(row db.Row) models.Ticket {
	return models.Ticket{
		ID:             row.Int64("id"),
		AssetID:        row.Int64("asset_id"),
		Description:    row.String("description"),
		Cost:           row.NullFloat("cost"),
		Status:         models.TicketStatus(row.String("status")),
		ServiceType:    models.ServiceType(row.String("service_type")),
		RepairMethod:   models.RepairMethod(row.String("repair_method")),
		ReporterName:   row.String("reporter_name"),
		ContactInfo:    row.String("contact_info"),
		Department:     row.String("department"),
		Location:       row.String("location"),
		TechnicianName: row.String("technician_name"),
		StartedAt:      row.Time("started_at"),
		CompletedAt:    row.Time("completed_at"),
		Signature:      row.String("signature"),
		SignerName:     row.String("signer_name"),
		LogDate:        row.Time("log_date"),
		CreatedAt:      row.Time("created_at"),
		AssetCode:      row.String("asset_code"),
		AssetName:      row.String("asset_name"),
		AssetType:      row.String("asset_type"),
		Email:          row.String("email"),
		IsPC:           row.Bool("is_pc"),
		IsMobile:       row.Bool("is_mobile"),
	}
}
