package workflow

import (
	"context"
	"net/mail"
	"strings"

	"github.com/crucial707/itam/internal/errs"
	"github.com/crucial707/itam/internal/models"
	"github.com/crucial707/itam/internal/repo"
)

const msgEmailTaken = "this email is already registered"

// RegisterEmail records a mailbox request. Addresses are unique; a duplicate
// yields errs.Conflict.
func (s *Service) RegisterEmail(ctx context.Context, e models.RegistrationEmail) (models.RegistrationEmail, error) {
	if err := validateEmail(&e); err != nil {
		return models.RegistrationEmail{}, err
	}
	now := s.now()
	e.CreatedAt = &now

	emails := repo.NewEmailRepo(s.store)
	id, err := emails.Create(ctx, e)
	if err != nil {
		if errs.Is(err, errs.Conflict) {
			return models.RegistrationEmail{}, errs.Wrap(errs.Conflict, msgEmailTaken, err)
		}
		return models.RegistrationEmail{}, err
	}
	e.ID = id

	s.log.Info("email registered", "email_id", id, "is_pc", e.IsPC, "is_mobile", e.IsMobile)
	return e, nil
}

// UpdateEmail replaces every editable field of a registration.
func (s *Service) UpdateEmail(ctx context.Context, id int64, e models.RegistrationEmail) error {
	if err := validateEmail(&e); err != nil {
		return err
	}
	if err := repo.NewEmailRepo(s.store).Update(ctx, id, e); err != nil {
		if errs.Is(err, errs.Conflict) {
			return errs.Wrap(errs.Conflict, msgEmailTaken, err)
		}
		return err
	}
	return nil
}

func (s *Service) GetEmail(ctx context.Context, id int64) (models.RegistrationEmail, error) {
	return repo.NewEmailRepo(s.store).Get(ctx, id)
}

func (s *Service) ListEmails(ctx context.Context, f models.EmailFilter) ([]models.RegistrationEmail, error) {
	f.Search = strings.TrimSpace(f.Search)
	return repo.NewEmailRepo(s.store).List(ctx, f)
}

func (s *Service) DeleteEmail(ctx context.Context, id int64) error {
	if err := repo.NewEmailRepo(s.store).Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("email registration deleted", "email_id", id)
	return nil
}

func validateEmail(e *models.RegistrationEmail) error {
	e.Email = strings.TrimSpace(e.Email)
	e.FullName = strings.TrimSpace(e.FullName)

	if e.Email == "" {
		return errs.Invalid("email is required", map[string]string{"email": "required"})
	}
	if _, err := mail.ParseAddress(e.Email); err != nil {
		return errs.Invalid("invalid email", map[string]string{"email": "email"})
	}
	return nil
}
