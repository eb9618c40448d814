package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

// MinPasswordLength largo mínimo de password de un empleado.
const MinPasswordLength = 8

// UserUseCase consulta y administración de empleados.
type UserUseCase struct {
	repo repository.UserRepository
	now  func() time.Time
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo, now: time.Now}
}

// GetByID obtiene un empleado (GET /api/auth/me y /api/employees/:id).
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return entityToUserResponse(user), nil
}

// List lista empleados por email.
func (uc *UserUseCase) List(ctx context.Context, limit, offset int) ([]*dto.UserResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, entityToUserResponse(u))
	}
	return out, nil
}

// Update cambia nombre, rol o estado. Un admin no puede quitarse el rol ni desactivarse a sí mismo.
func (uc *UserUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		user.Name = name
	}
	if in.Role != nil {
		if !entity.ValidRole(*in.Role) {
			return nil, domain.ErrInvalidInput
		}
		if actorID == id && *in.Role != user.Role {
			return nil, fmt.Errorf("%w: no puede cambiar su propio rol", domain.ErrInvalidState)
		}
		user.Role = *in.Role
	}
	if in.Status != nil {
		switch *in.Status {
		case entity.UserStatusActive, entity.UserStatusInactive:
		default:
			return nil, domain.ErrInvalidInput
		}
		if actorID == id && *in.Status == entity.UserStatusInactive {
			return nil, fmt.Errorf("%w: no puede desactivarse a sí mismo", domain.ErrInvalidState)
		}
		user.Status = *in.Status
	}
	user.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return entityToUserResponse(user), nil
}

// Deactivate da de baja al empleado: deja de poder iniciar sesión. Sus movimientos siguen en el historial.
func (uc *UserUseCase) Deactivate(ctx context.Context, actorID, id string) error {
	status := entity.UserStatusInactive
	_, err := uc.Update(ctx, actorID, id, dto.UpdateUserRequest{Status: &status})
	return err
}

// ChangePassword cambia el password del propio empleado verificando el actual.
func (uc *UserUseCase) ChangePassword(ctx context.Context, userID string, in dto.ChangePasswordRequest) error {
	if len(in.NewPassword) < MinPasswordLength {
		return domain.ErrInvalidInput
	}
	user, err := uc.get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return domain.ErrUnauthorized
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = uc.now()
	return uc.repo.Update(ctx, user)
}

func (uc *UserUseCase) get(ctx context.Context, id string) (*entity.User, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func entityToUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
