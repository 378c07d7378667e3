// Package users manages ERP operator accounts.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/shared"
)

const minPasswordLength = 8

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]ledger.User, error)
	CreateUser(ctx context.Context, user ledger.User) (*ledger.User, error)
}

// Auditor persists audit trail entries.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CreateUserInput carries a new account.
type CreateUserInput struct {
	Email     string
	Name      string
	Role      string
	Password  string
	CreatedBy int64
}

// Service handles user business logic.
type Service struct {
	repo   RepositoryPort
	audit  Auditor
	logger *slog.Logger
	cost   int
}

// NewService builds Service instance. audit and logger may be nil.
func NewService(repo RepositoryPort, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, audit: audit, logger: logger, cost: bcrypt.DefaultCost}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]ledger.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return users, nil
}

// CreateUser validates and stores a new active account with a bcrypt hash.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*ledger.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("email %q: %w", input.Email, shared.ErrInvalidArgument)
	}
	role, ok := shared.ParseRole(input.Role)
	if !ok {
		return nil, fmt.Errorf("role %q: %w", input.Role, shared.ErrInvalidArgument)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("password shorter than %d characters: %w", minPasswordLength, shared.ErrInvalidArgument)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	user, err := s.repo.CreateUser(ctx, ledger.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Role:         string(role),
		PasswordHash: string(hash),
		IsActive:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("users: create: %w", err)
	}
	if s.audit != nil {
		err := s.audit.Record(context.WithoutCancel(ctx), shared.AuditLog{
			ActorID:  input.CreatedBy,
			Action:   shared.AuditUserCreated,
			Entity:   "user",
			EntityID: strconv.FormatInt(user.ID, 10),
			Meta:     map[string]any{"email": user.Email, "role": user.Role},
		})
		if err != nil {
			s.logger.Warn("users: audit", slog.Int64("user_id", user.ID), slog.Any("error", err))
		}
	}
	return user, nil
}

// VerifyPassword reports whether password matches the stored hash.
func VerifyPassword(user *ledger.User, password string) bool {
	if user == nil || !user.IsActive {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
