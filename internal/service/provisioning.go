package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/llsilvas/user-gateway/internal/apperr"
	"github.com/llsilvas/user-gateway/internal/config"
	"github.com/llsilvas/user-gateway/internal/dto"
	"github.com/llsilvas/user-gateway/internal/entity"
	"github.com/llsilvas/user-gateway/internal/keycloak"
	"github.com/llsilvas/user-gateway/internal/logger"
)

const defaultPageSize = 10

// AdminTokenSource issues admin tokens for the IAM admin API.
type AdminTokenSource interface {
	FetchAdminToken(ctx context.Context) (string, error)
}

// IAMClient is the subset of the admin API used for provisioning.
type IAMClient interface {
	CreateUser(ctx context.Context, token string, user keycloak.UserRepresentation) (string, error)
	ListRoles(ctx context.Context, token string) ([]keycloak.RoleRepresentation, error)
	AssignRealmRoles(ctx context.Context, token, userID string, roles []keycloak.RoleRepresentation) error
	UpdateUser(ctx context.Context, token, id string, update keycloak.UserUpdate) error
	ResetPassword(ctx context.Context, token, id, password string) error
	DeleteUser(ctx context.Context, token, id string) error
	GetUser(ctx context.Context, token, id string) (*keycloak.UserRepresentation, error)
	ListUsers(ctx context.Context, token, search string, first, limit int) ([]keycloak.UserRepresentation, error)
	CountUsers(ctx context.Context, token, search string) (int, error)
}

// OrganizerRegistrar records organizer accounts in the event service.
type OrganizerRegistrar interface {
	Register(ctx context.Context, token, requestID string, reg dto.OrganizerRegistration) error
}

// Caller identifies who triggered an operation. Token is the caller's own
// bearer token and may be empty.
type Caller struct {
	Token     string
	RequestID string
}

// ProvisioningService sequences the IAM and organizer calls behind each user
// operation. It holds no per-request state.
type ProvisioningService struct {
	tokens     AdminTokenSource
	iam        IAMClient
	organizers OrganizerRegistrar
	contacts   *ContactNormalizer
	cfg        config.OrganizerConfig
}

// NewProvisioningService wires the orchestrator.
func NewProvisioningService(tokens AdminTokenSource, iam IAMClient, organizers OrganizerRegistrar, cfg config.OrganizerConfig) *ProvisioningService {
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = config.OrganizerPolicySoft
	}
	return &ProvisioningService{
		tokens:     tokens,
		iam:        iam,
		organizers: organizers,
		contacts:   NewContactNormalizer(cfg.PhoneRegion),
		cfg:        cfg,
	}
}

// CreateUser creates the account, assigns its realm role and, for organizers,
// registers the organization.
func (s *ProvisioningService) CreateUser(ctx context.Context, caller Caller, req dto.CreateUserRequest) (*dto.UserCreated, error) {
	const op = "user.create"
	req.Role = strings.TrimSpace(req.Role)
	log := logger.Log.WithFields(logrus.Fields{
		"op":         op,
		"username":   req.Username,
		"role":       req.Role,
		"request_id": caller.RequestID,
	})

	organizer := s.IsOrganizer(req.Role)
	var registration dto.OrganizerRegistration
	if organizer {
		reg, err := s.organizerRegistration(req)
		if err != nil {
			log.WithError(err).Warn("organizer contact data rejected")
			return nil, apperr.Wrap(apperr.KindInvalidRequest, op, err.Error(), err)
		}
		registration = reg
	}

	token, err := s.fetchToken(ctx, log)
	if err != nil {
		return nil, err
	}

	id, err := s.iam.CreateUser(ctx, token, keycloak.UserRepresentation{
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Enabled:     true,
		Credentials: []keycloak.Credential{keycloak.PasswordCredential(req.Password)},
	})
	if err != nil {
		log.WithError(err).Error("user creation failed")
		return nil, err
	}
	log = log.WithField("user_id", id)
	log.Info("user created")

	if err := s.assignRole(ctx, op, token, id, req.Role); err != nil {
		log.WithError(err).Error("role assignment failed; user left without role")
		return nil, err
	}
	log.Info("role assigned")

	result := &dto.UserCreated{ID: id, Username: req.Username, Role: req.Role}
	if !organizer {
		return result, nil
	}

	registration.UserID = id
	regToken := caller.Token
	if regToken == "" {
		regToken = token
	}
	if err := s.organizers.Register(ctx, regToken, caller.RequestID, registration); err != nil {
		if apperr.KindOf(err) == apperr.KindDependencyUnavailable {
			log.WithError(err).Error("organizer service unreachable")
			return nil, err
		}
		if s.cfg.FailurePolicy == config.OrganizerPolicyStrict {
			log.WithError(err).Error("organizer registration failed")
			return nil, err
		}
		log.WithError(err).Warn("organizer registration failed; user and role kept")
		result.Warning = "organizer registration failed: " + err.Error()
		return result, nil
	}

	log.Info("organizer registered")
	result.OrganizerRegistered = true
	return result, nil
}

// UpdateUser applies a sparse update and, when a password is given, resets it.
func (s *ProvisioningService) UpdateUser(ctx context.Context, caller Caller, id string, req dto.UpdateUserRequest) error {
	const op = "user.update"
	log := logger.Log.WithFields(logrus.Fields{"op": op, "user_id": id, "request_id": caller.RequestID})

	token, err := s.fetchToken(ctx, log)
	if err != nil {
		return err
	}

	update := keycloak.UserUpdate{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := s.iam.UpdateUser(ctx, token, id, update); err != nil {
		log.WithError(err).Error("user update failed")
		return err
	}
	log.Info("user updated")

	if req.Password == nil || *req.Password == "" {
		log.Debug("password not provided; skipping reset")
		return nil
	}
	if err := s.iam.ResetPassword(ctx, token, id, *req.Password); err != nil {
		log.WithError(err).Error("password reset failed")
		return err
	}
	log.Info("password reset")
	return nil
}

// DeleteUser removes the account from the IAM. Organizer records are untouched.
func (s *ProvisioningService) DeleteUser(ctx context.Context, caller Caller, id string) error {
	const op = "user.delete"
	log := logger.Log.WithFields(logrus.Fields{"op": op, "user_id": id, "request_id": caller.RequestID})

	token, err := s.fetchToken(ctx, log)
	if err != nil {
		return err
	}
	if err := s.iam.DeleteUser(ctx, token, id); err != nil {
		log.WithError(err).Error("user deletion failed")
		return err
	}
	log.Info("user deleted")
	return nil
}

// FindUserByID loads one account.
func (s *ProvisioningService) FindUserByID(ctx context.Context, caller Caller, id string) (*entity.User, error) {
	const op = "user.find_by_id"
	log := logger.Log.WithFields(logrus.Fields{"op": op, "user_id": id, "request_id": caller.RequestID})

	token, err := s.fetchToken(ctx, log)
	if err != nil {
		return nil, err
	}
	rep, err := s.iam.GetUser(ctx, token, id)
	if err != nil {
		log.WithError(err).Warn("user lookup failed")
		return nil, err
	}
	user := toEntity(*rep)
	return &user, nil
}

// FindUsers runs the list and count queries concurrently and joins them into
// one page.
func (s *ProvisioningService) FindUsers(ctx context.Context, caller Caller, q dto.UserQuery) (*dto.UserPage, error) {
	const op = "user.find_all"
	if q.First < 0 {
		q.First = 0
	}
	if q.Max <= 0 {
		q.Max = defaultPageSize
	}
	log := logger.Log.WithFields(logrus.Fields{
		"op":         op,
		"search":     q.Search,
		"first":      q.First,
		"max":        q.Max,
		"request_id": caller.RequestID,
	})

	token, err := s.fetchToken(ctx, log)
	if err != nil {
		return nil, err
	}

	var (
		users []keycloak.UserRepresentation
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.iam.ListUsers(gctx, token, q.Search, q.First, q.Max)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.iam.CountUsers(gctx, token, q.Search)
		return err
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("user search failed")
		return nil, err
	}

	items := make([]entity.User, 0, len(users))
	for _, u := range users {
		items = append(items, toEntity(u))
	}
	return &dto.UserPage{
		Total:    total,
		Page:     q.First/q.Max + 1,
		PageSize: q.Max,
		Items:    items,
	}, nil
}

// IsOrganizer reports whether role designates an organizer.
func (s *ProvisioningService) IsOrganizer(role string) bool {
	return s.cfg.Role != "" && strings.EqualFold(strings.TrimSpace(role), s.cfg.Role)
}

func (s *ProvisioningService) fetchToken(ctx context.Context, log *logrus.Entry) (string, error) {
	token, err := s.tokens.FetchAdminToken(ctx)
	if err != nil {
		log.WithError(err).Error("admin token fetch failed")
		return "", err
	}
	log.WithField("token", logger.TokenPrefix(token)).Debug("admin token acquired")
	return token, nil
}

func (s *ProvisioningService) assignRole(ctx context.Context, op, token, userID, roleName string) error {
	roles, err := s.iam.ListRoles(ctx, token)
	if err != nil {
		return roleAssignmentFailure(op, userID, "user created but role lookup failed", err)
	}

	var matches []keycloak.RoleRepresentation
	for _, r := range roles {
		if r.Name == roleName {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return apperr.New(apperr.KindNotFound, op, "role "+roleName+" not found").WithID(userID)
	case 1:
	default:
		return apperr.New(apperr.KindProtocol, op, fmt.Sprintf("%d roles named %q", len(matches), roleName)).WithID(userID)
	}

	if err := s.iam.AssignRealmRoles(ctx, token, userID, matches); err != nil {
		return roleAssignmentFailure(op, userID, "user created but role assignment failed", err)
	}
	return nil
}

// roleAssignmentFailure marks a failure that left the user created without its
// role, keeping the upstream status of the cause.
func roleAssignmentFailure(op, userID, message string, err error) *apperr.Error {
	wrapped := apperr.Wrap(apperr.KindRoleAssignment, op, message, err).WithID(userID)
	if e, ok := apperr.As(err); ok {
		wrapped = wrapped.WithStatus(e.Status)
	}
	return wrapped
}

func (s *ProvisioningService) organizerRegistration(req dto.CreateUserRequest) (dto.OrganizerRegistration, error) {
	if strings.TrimSpace(req.OrganizationName) == "" {
		return dto.OrganizerRegistration{}, fmt.Errorf("organization name is required for role %s", req.Role)
	}
	email, err := s.contacts.Email(req.ContactEmail)
	if err != nil {
		return dto.OrganizerRegistration{}, err
	}
	phone, err := s.contacts.Phone(req.ContactPhone)
	if err != nil {
		return dto.OrganizerRegistration{}, err
	}
	document, err := s.contacts.Document(req.DocumentNumber)
	if err != nil {
		return dto.OrganizerRegistration{}, err
	}
	return dto.OrganizerRegistration{
		OrganizationName: strings.TrimSpace(req.OrganizationName),
		ContactEmail:     email,
		ContactPhone:     phone,
		DocumentNumber:   document,
	}, nil
}

func toEntity(rep keycloak.UserRepresentation) entity.User {
	user := entity.User{
		ID:        rep.ID,
		Username:  rep.Username,
		Email:     rep.Email,
		FirstName: rep.FirstName,
		LastName:  rep.LastName,
		Enabled:   rep.Enabled,
	}
	if rep.CreatedTimestamp > 0 {
		created := time.UnixMilli(rep.CreatedTimestamp).UTC()
		user.CreatedAt = &created
	}
	return user
}
