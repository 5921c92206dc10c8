package workflow

import (
	"context"
	"strings"

	"github.com/crucial707/itam/internal/db"
	"github.com/crucial707/itam/internal/errs"
	"github.com/crucial707/itam/internal/models"
	"github.com/crucial707/itam/internal/repo"
)

// NextAssetCode previews the next code for category in the current year.
// Nothing is reserved; the code actually assigned may differ under load.
func (s *Service) NextAssetCode(ctx context.Context, category string) (string, error) {
	return s.codes.Peek(ctx, s.store, category, s.now().Year())
}

// CreateAsset registers an asset. When AssetCode is empty a code is reserved
// for the asset's type. A duplicate code yields errs.Conflict.
func (s *Service) CreateAsset(ctx context.Context, a models.Asset) (models.Asset, error) {
	if err := validateAsset(&a); err != nil {
		return models.Asset{}, err
	}

	now := s.now()
	a.CreatedAt = &now

	var created models.Asset
	err := s.store.WithTx(ctx, func(q db.Querier) error {
		if a.AssetCode == "" {
			code, err := s.codes.Next(ctx, q, a.Type, now.Year())
			if err != nil {
				return err
			}
			a.AssetCode = code
		}

		assets := repo.NewAssetRepo(q)
		id, err := assets.Create(ctx, a)
		if err != nil {
			return err
		}
		created, err = assets.Get(ctx, id)
		return err
	})
	if err != nil {
		return models.Asset{}, codeConflict(err)
	}

	s.log.Info("asset created", "asset_id", created.ID, "asset_code", created.AssetCode, "type", created.Type)
	return created, nil
}

// UpdateAsset replaces the editable fields of an asset. An empty code or
// status keeps the stored value.
func (s *Service) UpdateAsset(ctx context.Context, id int64, a models.Asset) (models.Asset, error) {
	var updated models.Asset
	err := s.store.WithTx(ctx, func(q db.Querier) error {
		assets := repo.NewAssetRepo(q)
		current, err := assets.Get(ctx, id)
		if err != nil {
			return err
		}
		if strings.TrimSpace(a.AssetCode) == "" {
			a.AssetCode = current.AssetCode
		}
		if a.Status == "" {
			a.Status = current.Status
		}
		if err := validateAsset(&a); err != nil {
			return err
		}
		if err := assets.Update(ctx, id, a); err != nil {
			return err
		}
		updated, err = assets.Get(ctx, id)
		return err
	})
	if err != nil {
		return models.Asset{}, codeConflict(err)
	}
	return updated, nil
}

func (s *Service) GetAsset(ctx context.Context, id int64) (models.Asset, error) {
	return repo.NewAssetRepo(s.store).Get(ctx, id)
}

func (s *Service) ListAssets(ctx context.Context, f models.AssetFilter) ([]models.Asset, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, errs.Invalid("invalid status", map[string]string{"status": string(f.Status)})
	}
	return repo.NewAssetRepo(s.store).List(ctx, f)
}

// DeleteAsset removes an asset that no ticket references.
func (s *Service) DeleteAsset(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(q db.Querier) error {
		n, err := repo.NewTicketRepo(q).CountByAsset(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return errs.Invalid("asset has maintenance tickets", map[string]string{"asset_id": "referenced by tickets"})
		}
		return repo.NewAssetRepo(q).Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("asset deleted", "asset_id", id)
	return nil
}

func codeConflict(err error) error {
	if errs.Is(err, errs.Conflict) {
		return errs.Wrap(errs.Conflict, "asset code must be unique", err)
	}
	return err
}

func validateAsset(a *models.Asset) error {
	a.AssetCode = strings.TrimSpace(a.AssetCode)
	a.Name = strings.TrimSpace(a.Name)
	a.Type = strings.TrimSpace(a.Type)

	fields := map[string]string{}
	if a.Name == "" {
		fields["name"] = "required"
	}
	if a.Type == "" {
		fields["type"] = "required"
	}
	if a.Status == "" {
		a.Status = models.AssetAvailable
	} else if !a.Status.Valid() {
		fields["status"] = "invalid"
	}
	if len(fields) > 0 {
		return errs.Invalid("invalid asset", fields)
	}
	return nil
}
