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

// AssetRepo reads and writes the assets table through q, which may be the
// pool or an open transaction.
type AssetRepo struct {
	q db.Querier
}

func NewAssetRepo(q db.Querier) *AssetRepo {
	return &AssetRepo{q: q}
}

const assetColumns = `id, asset_code, name, type, brand, model, serial_number, purchase_date, price,
	status, location, image_path, notes, assigned_to, signature, spec, received_date, return_date,
	email, is_pc, is_mobile, software, created_at`

// ========================
// CREATE ASSET
// ========================

func (r *AssetRepo) Create(ctx context.Context, a models.Asset) (int64, error) {
	status := a.Status
	if status == "" {
		status = models.AssetAvailable
	}
	res, err := r.q.Execute(ctx,
		`INSERT INTO assets (asset_code, name, type, brand, model, serial_number, purchase_date, price,
			status, location, image_path, notes, assigned_to, signature, spec, received_date, return_date,
			email, is_pc, is_mobile, software, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		a.AssetCode, a.Name, a.Type, nullString(a.Brand), nullString(a.Model), nullString(a.SerialNumber),
		nullTime(a.PurchaseDate), nullFloat(a.Price), string(status), nullString(a.Location), nullString(a.ImagePath),
		nullString(a.Notes), nullString(a.AssignedTo), nullString(a.Signature), nullString(a.Spec),
		nullTime(a.ReceivedDate), nullTime(a.ReturnDate), nullString(a.Email), boolInt(a.IsPC), boolInt(a.IsMobile),
		nullString(a.Software), nullTime(a.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	if res.InsertedID == nil {
		return 0, errs.New(errs.Persistence, "asset insert returned no id")
	}
	return *res.InsertedID, nil
}

// ========================
// GET ASSET BY ID
// ========================

func (r *AssetRepo) Get(ctx context.Context, id int64) (models.Asset, error) {
	res, err := r.q.Execute(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	if err != nil {
		return models.Asset{}, err
	}
	if len(res.Rows) == 0 {
		return models.Asset{}, errs.New(errs.NotFound, "asset not found")
	}
	return assetFromRow(res.Rows[0]), nil
}

// ========================
// LIST ASSETS
// ========================

func (r *AssetRepo) List(ctx context.Context, f models.AssetFilter) ([]models.Asset, error) {
	var conds []string
	var args []any

	if f.Search != "" {
		term := "%" + strings.ToLower(f.Search) + "%"
		conds = append(conds, `(LOWER(name) LIKE ? OR LOWER(asset_code) LIKE ? OR LOWER(serial_number) LIKE ?)`)
		args = append(args, term, term, term)
	}
	if f.Type != "" {
		conds = append(conds, `type = ?`)
		args = append(args, f.Type)
	}
	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(f.Status))
	}

	stmt := `SELECT ` + assetColumns + ` FROM assets`
	if len(conds) > 0 {
		stmt += ` WHERE ` + strings.Join(conds, " AND ")
	}
	stmt += ` ORDER BY created_at DESC, id DESC`

	res, err := r.q.Execute(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	assets := make([]models.Asset, 0, len(res.Rows))
	for _, row := range res.Rows {
		assets = append(assets, assetFromRow(row))
	}
	return assets, nil
}

// ========================
// UPDATE ASSET
// ========================

// Update replaces every editable column of the asset.
func (r *AssetRepo) Update(ctx context.Context, id int64, a models.Asset) error {
	res, err := r.q.Execute(ctx,
		`UPDATE assets SET asset_code = ?, name = ?, type = ?, brand = ?, model = ?, serial_number = ?,
			purchase_date = ?, price = ?, status = ?, location = ?, notes = ?, assigned_to = ?,
			signature = ?, spec = ?, received_date = ?, return_date = ?, email = ?, is_pc = ?,
			is_mobile = ?, software = ?
		 WHERE id = ?`,
		a.AssetCode, a.Name, a.Type, nullString(a.Brand), nullString(a.Model), nullString(a.SerialNumber),
		nullTime(a.PurchaseDate), nullFloat(a.Price), string(a.Status), nullString(a.Location), nullString(a.Notes),
		nullString(a.AssignedTo), nullString(a.Signature), nullString(a.Spec), nullTime(a.ReceivedDate),
		nullTime(a.ReturnDate), nullString(a.Email), boolInt(a.IsPC), boolInt(a.IsMobile), nullString(a.Software),
		id,
	)
	if err != nil {
		return err
	}
	if res.Affected == 0 {
		return errs.New(errs.NotFound, "asset not found")
	}
	return nil
}

func (r *AssetRepo) UpdateStatus(ctx context.Context, id int64, status models.AssetStatus) error {
	res, err := r.q.Execute(ctx, `UPDATE assets SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	if res.Affected == 0 {
		return errs.New(errs.NotFound, "asset not found")
	}
	return nil
}

// ========================
// DELETE ASSET BY ID
// ========================

func (r *AssetRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.Execute(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if res.Affected == 0 {
		return errs.New(errs.NotFound, "asset not found")
	}
	return nil
}

func assetFromRow(row db.Row) models.Asset {
	return models.Asset{
		ID:           row.Int64("id"),
		AssetCode:    row.String("asset_code"),
		Name:         row.String("name"),
		Type:         row.String("type"),
		Brand:        row.String("brand"),
		Model:        row.String("model"),
		SerialNumber: row.String("serial_number"),
		PurchaseDate: row.Time("purchase_date"),
		Price:        row.NullFloat("price"),
		Status:       models.AssetStatus(row.String("status")),
		Location:     row.String("location"),
		ImagePath:    row.String("image_path"),
		Notes:        row.String("notes"),
		AssignedTo:   row.String("assigned_to"),
		Signature:    row.String("signature"),
		Spec:         row.String("spec"),
		ReceivedDate: row.Time("received_date"),
		ReturnDate:   row.Time("return_date"),
		Email:        row.String("email"),
		IsPC:         row.Bool("is_pc"),
		IsMobile:     row.Bool("is_mobile"),
		Software:     row.String("software"),
		CreatedAt:    row.Time("created_at"),
	}
}
