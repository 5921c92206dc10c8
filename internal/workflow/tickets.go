package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crucial707/itam/internal/db"
	"github.com/crucial707/itam/internal/errs"
	"github.com/crucial707/itam/internal/metrics"
	"github.com/crucial707/itam/internal/models"
	"github.com/crucial707/itam/internal/notify"
	"github.com/crucial707/itam/internal/repo"
)

// CreateTicketInput is a new maintenance request. AssetID is required unless
// ServiceType is new_setup, in which case NewEmployeeName and AssetType
// describe the asset to provision.
type CreateTicketInput struct {
	ServiceType  models.ServiceType
	AssetID      *int64
	Description  string
	Cost         *float64
	LogDate      *time.Time
	ReporterName string
	ContactInfo  string
	Department   string
	Location     string
	RepairMethod models.RepairMethod

	NewEmployeeName string
	AssetType       string
	Email           string
	IsPC            bool
	IsMobile        bool
}

type CreateResult struct {
	ID      int64 `json:"id"`
	AssetID int64 `json:"asset_id"`
}

// ========================
// CREATE TICKET
// ========================

func (s *Service) Create(ctx context.Context, in CreateTicketInput) (CreateResult, error) {
	st := in.ServiceType
	if st == "" {
		st = models.ServiceRepair
	}
	if !st.Valid() {
		return CreateResult{}, errs.Invalid("invalid service type", map[string]string{"service_type": string(st)})
	}
	method := in.RepairMethod
	if method == "" {
		method = models.RepairInternal
	}
	if !method.Valid() {
		return CreateResult{}, errs.Invalid("invalid repair method", map[string]string{"repair_method": string(method)})
	}

	employee := strings.TrimSpace(in.NewEmployeeName)
	category := strings.TrimSpace(in.AssetType)
	if st == models.ServiceNewSetup {
		fields := map[string]string{}
		if employee == "" {
			fields["new_employee_name"] = "required"
		}
		if category == "" {
			fields["asset_type"] = "required"
		}
		if len(fields) > 0 {
			return CreateResult{}, errs.Invalid("employee name and asset type are required for new setup", fields)
		}
	} else if in.AssetID == nil || *in.AssetID <= 0 {
		return CreateResult{}, errs.Invalid("asset is required", map[string]string{"asset_id": "required"})
	}

	now := s.now()
	logDate := now
	if in.LogDate != nil {
		logDate = in.LogDate.UTC()
	}

	var out CreateResult
	var assetCode string

	err := s.store.WithTx(ctx, func(q db.Querier) error {
		assets := repo.NewAssetRepo(q)

		if st == models.ServiceNewSetup {
			code, err := s.codes.Next(ctx, q, category, now.Year())
			if err != nil {
				return err
			}
			location := in.Location
			if location == "" {
				location = "Office"
			}
			id, err := assets.Create(ctx, models.Asset{
				AssetCode:    code,
				Name:         fmt.Sprintf("New %s for %s", category, employee),
				Type:         category,
				Brand:        "Generic",
				Model:        "Generic",
				Status:       models.AssetAssigned,
				Location:     location,
				PurchaseDate: &now,
				AssignedTo:   employee,
				Email:        in.Email,
				IsPC:         in.IsPC,
				IsMobile:     in.IsMobile,
				CreatedAt:    &now,
			})
			if err != nil {
				return err
			}
			out.AssetID = id
			assetCode = code
		} else {
			a, err := assets.Get(ctx, *in.AssetID)
			if err != nil {
				return err
			}
			out.AssetID = a.ID
			assetCode = a.AssetCode
		}

		id, err := repo.NewTicketRepo(q).Create(ctx, models.Ticket{
			AssetID:      out.AssetID,
			Description:  in.Description,
			Cost:         in.Cost,
			LogDate:      &logDate,
			Status:       models.StatusPending,
			ReporterName: in.ReporterName,
			ContactInfo:  in.ContactInfo,
			Department:   in.Department,
			Location:     in.Location,
			ServiceType:  st,
			RepairMethod: method,
			CreatedAt:    &now,
		})
		if err != nil {
			return err
		}
		out.ID = id

		if st == models.ServiceRepair {
			if err := assets.UpdateStatus(ctx, out.AssetID, models.AssetRepair); err != nil {
				return err
			}
		}

		return repo.NewAuditRepo(q).Log(ctx, models.TicketEvent{
			TicketID:  id,
			Action:    models.ActionCreated,
			ToStatus:  string(models.StatusPending),
			Details:   string(st),
			CreatedAt: now,
		})
	})
	if err != nil {
		return CreateResult{}, codeConflict(err)
	}

	metrics.IncTicketsCreated(string(st))
	s.log.Info("ticket created",
		"ticket_id", out.ID,
		"asset_id", out.AssetID,
		"asset_code", assetCode,
		"service_type", st)

	e := notify.NewEvent(notify.KindTicketCreated)
	e.TicketID = out.ID
	e.AssetID = out.AssetID
	e.AssetCode = assetCode
	e.ServiceType = string(st)
	e.Status = string(models.StatusPending)
	e.ReporterName = in.ReporterName
	e.Location = in.Location
	e.Description = in.Description
	s.publish(e)

	return out, nil
}

// ========================
// START / COMPLETE
// ========================

// Start moves a pending ticket to in_progress and records who works on it.
func (s *Service) Start(ctx context.Context, id int64, technician string, method models.RepairMethod) error {
	technician = strings.TrimSpace(technician)
	if technician == "" {
		return errs.Invalid("technician is required", map[string]string{"technician_name": "required"})
	}
	if method == "" {
		method = models.RepairInternal
	}
	if !method.Valid() {
		return errs.Invalid("invalid repair method", map[string]string{"repair_method": string(method)})
	}

	now := s.now()
	to := models.StatusInProgress
	return s.transition(ctx, id, to, models.TicketPatch{
		Status:         &to,
		StartedAt:      &now,
		TechnicianName: &technician,
		RepairMethod:   &method,
	}, models.ActionStarted, "technician: "+technician)
}

// Complete closes an in_progress ticket with the signer's sign-off.
func (s *Service) Complete(ctx context.Context, id int64, signature, signerName string) error {
	now := s.now()
	to := models.StatusCompleted
	p := models.TicketPatch{
		Status:      &to,
		CompletedAt: &now,
	}
	if signature != "" {
		p.Signature = &signature
	}
	if signerName != "" {
		p.SignerName = &signerName
	}
	return s.transition(ctx, id, to, p, models.ActionCompleted, signerName)
}

func (s *Service) transition(ctx context.Context, id int64, to models.TicketStatus, p models.TicketPatch, action, details string) error {
	var from models.TicketStatus

	err := s.store.WithTx(ctx, func(q db.Querier) error {
		tickets := repo.NewTicketRepo(q)
		t, err := tickets.Get(ctx, id)
		if err != nil {
			return err
		}
		from = t.Status
		if err := models.ValidateTransition(from, to); err != nil {
			return err
		}
		if err := tickets.UpdateFrom(ctx, id, from, p); err != nil {
			return err
		}
		return repo.NewAuditRepo(q).Log(ctx, models.TicketEvent{
			TicketID:   id,
			Action:     action,
			FromStatus: string(from),
			ToStatus:   string(to),
			Details:    details,
			CreatedAt:  s.now(),
		})
	})
	if err != nil {
		if errs.Is(err, errs.InvalidTransition) {
			metrics.IncTransition(string(to), "rejected")
			s.log.Warn("ticket transition rejected", "ticket_id", id, "from", from, "to", to)
		}
		return err
	}

	metrics.IncTransition(string(to), "ok")
	s.log.Info("ticket transitioned", "ticket_id", id, "from", from, "to", to)
	return nil
}

// ========================
// EDIT TICKET
// ========================

// Edit applies a partial update. In permissive mode any valid status may be
// set; in strict mode a status change must be the next workflow step. Moving
// to in_progress or completed stamps the matching timestamp unless one is
// supplied. A completed_at earlier than started_at is rejected in strict mode
// and only logged in permissive mode.
func (s *Service) Edit(ctx context.Context, id int64, p models.TicketPatch) error {
	if p.Empty() {
		return errs.Invalid("no fields to update", nil)
	}
	if p.Status != nil && !p.Status.Valid() {
		return errs.Invalid("invalid status", map[string]string{"status": string(*p.Status)})
	}
	if p.RepairMethod != nil && !p.RepairMethod.Valid() {
		return errs.Invalid("invalid repair method", map[string]string{"repair_method": string(*p.RepairMethod)})
	}

	var from models.TicketStatus
	changed := false

	err := s.store.WithTx(ctx, func(q db.Querier) error {
		tickets := repo.NewTicketRepo(q)
		t, err := tickets.Get(ctx, id)
		if err != nil {
			return err
		}
		from = t.Status

		if p.Status != nil && *p.Status != t.Status {
			changed = true
			if s.strict {
				if err := models.ValidateTransition(t.Status, *p.Status); err != nil {
					return err
				}
			}
		}
		if p.Status != nil {
			now := s.now()
			switch *p.Status {
			case models.StatusInProgress:
				if p.StartedAt == nil && (changed || t.StartedAt == nil) {
					p.StartedAt = &now
				}
			case models.StatusCompleted:
				if p.CompletedAt == nil && (changed || t.CompletedAt == nil) {
					p.CompletedAt = &now
				}
			}
		}

		if err := s.checkTimestampOrder(id, t, p); err != nil {
			return err
		}

		if err := tickets.Update(ctx, id, p); err != nil {
			return err
		}

		e := models.TicketEvent{
			TicketID:  id,
			Action:    models.ActionUpdated,
			Details:   patchFields(p),
			CreatedAt: s.now(),
		}
		if changed {
			e.FromStatus = string(from)
			e.ToStatus = string(*p.Status)
		}
		return repo.NewAuditRepo(q).Log(ctx, e)
	})
	if err != nil {
		if changed && errs.Is(err, errs.InvalidTransition) {
			metrics.IncTransition(string(*p.Status), "rejected")
		}
		return err
	}

	if changed {
		metrics.IncTransition(string(*p.Status), "ok")
		s.log.Info("ticket status edited", "ticket_id", id, "from", from, "to", *p.Status, "strict", s.strict)
	}
	return nil
}

// checkTimestampOrder compares the started_at and completed_at the ticket
// would have after p. Strict mode rejects completed_at before started_at;
// permissive mode stores it and logs a warning.
func (s *Service) checkTimestampOrder(id int64, t models.Ticket, p models.TicketPatch) error {
	started, completed := t.StartedAt, t.CompletedAt
	if p.StartedAt != nil {
		started = p.StartedAt
	}
	if p.CompletedAt != nil {
		completed = p.CompletedAt
	}
	if started == nil || completed == nil || !completed.Before(*started) {
		return nil
	}

	if s.strict {
		return errs.Invalid("completed_at must not be before started_at", map[string]string{
			"started_at":   started.UTC().Format(time.RFC3339),
			"completed_at": completed.UTC().Format(time.RFC3339),
		})
	}
	s.log.Warn("ticket completed before it started",
		"ticket_id", id,
		"started_at", started.UTC(),
		"completed_at", completed.UTC())
	return nil
}

func patchFields(p models.TicketPatch) string {
	var f []string
	add := func(set bool, name string) {
		if set {
			f = append(f, name)
		}
	}
	add(p.Status != nil, "status")
	add(p.Cost != nil, "cost")
	add(p.Description != nil, "description")
	add(p.TechnicianName != nil, "technician_name")
	add(p.StartedAt != nil, "started_at")
	add(p.CompletedAt != nil, "completed_at")
	add(p.Signature != nil, "signature")
	add(p.RepairMethod != nil, "repair_method")
	add(p.SignerName != nil, "signer_name")
	return strings.Join(f, ",")
}

// ========================
// DELETE TICKET
// ========================

// Delete removes the ticket. The linked asset keeps its current status.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(q db.Querier) error {
		tickets := repo.NewTicketRepo(q)
		t, err := tickets.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := tickets.Delete(ctx, id); err != nil {
			return err
		}
		return repo.NewAuditRepo(q).Log(ctx, models.TicketEvent{
			TicketID:   id,
			Action:     models.ActionDeleted,
			FromStatus: string(t.Status),
			CreatedAt:  s.now(),
		})
	})
	if err != nil {
		return err
	}
	s.log.Info("ticket deleted", "ticket_id", id)
	return nil
}

// ========================
// READS
// ========================

func (s *Service) Get(ctx context.Context, id int64) (models.Ticket, error) {
	return repo.NewTicketRepo(s.store).Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f models.TicketFilter) ([]models.Ticket, error) {
	if f.Date != "" {
		if _, err := time.Parse("2006-01-02", f.Date); err != nil {
			return nil, errs.Invalid("date must be YYYY-MM-DD", map[string]string{"date": f.Date})
		}
	}
	return repo.NewTicketRepo(s.store).List(ctx, f)
}

// History returns the audit trail of a ticket, including deleted ones.
func (s *Service) History(ctx context.Context, id int64) ([]models.TicketEvent, error) {
	events, err := repo.NewAuditRepo(s.store).ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	return events, nil
}
