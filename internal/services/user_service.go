package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/domain"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserService manages agents and admins.
type UserService struct {
	db       *gorm.DB
	validate *validator.Validate
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewUserService(db *gorm.DB, m *metrics.Metrics) *UserService {
	return &UserService{
		db:       db,
		validate: newValidator(),
		metrics:  m,
		now:      utcNow,
	}
}

func (s *UserService) Create(req dto.CreateUserRequest, actor policy.Actor) (*models.User, error) {
	if err := enforce(s.metrics, policy.CreateUser, actor, policy.CanCreateUser(actor)); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(s.validate, &req); err != nil {
		return nil, err
	}
	role := policy.RoleUser
	if req.Role != "" {
		role = policy.Role(req.Role)
	}

	if err := s.ensureEmailFree(req.Email, uuid.Nil); err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, internal("create_user", err)
	}

	user := models.User{
		ID:       uuid.New(),
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Role:     string(role),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, internal("create_user", err, "user_id", actor.ID.String())
	}
	return &user, nil
}

// List returns all users with their lead counts. Rates are whole percents.
func (s *UserService) List(actor policy.Actor) ([]dto.UserWithStats, error) {
	if err := enforce(s.metrics, policy.ListAllUsers, actor, policy.CanListAllUsers(actor)); err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, internal("list_users", err)
	}
	counts, err := countByAssignee(s.db)
	if err != nil {
		return nil, internal("list_users", err)
	}

	out := make([]dto.UserWithStats, 0, len(users))
	for _, u := range users {
		out = append(out, withStats(u, counts[u.ID.String()]))
	}
	return out, nil
}

func (s *UserService) Get(id uuid.UUID, actor policy.Actor) (*dto.UserWithStats, error) {
	if err := enforce(s.metrics, policy.ListAllUsers, actor, policy.CanListAllUsers(actor)); err != nil {
		return nil, err
	}
	user, err := findUser(s.db, id)
	if err != nil {
		return nil, err
	}

	var c assigneeCount
	q := s.db.Model(&models.Lead{}).Where("assigned_to = ?", id)
	if err := q.Count(&c.Total).Error; err != nil {
		return nil, internal("get_user", err, "user_id", id.String())
	}
	if err := s.db.Model(&models.Lead{}).
		Where("assigned_to = ? AND lead_status = ?", id, models.StatusAdmissionTaken).
		Count(&c.Conversions).Error; err != nil {
		return nil, internal("get_user", err, "user_id", id.String())
	}

	out := withStats(*user, c)
	return &out, nil
}

// Update edits another user. Only admins may call it; demoting the last admin is a conflict.
func (s *UserService) Update(id uuid.UUID, req dto.UpdateUserRequest, actor policy.Actor) (*models.User, error) {
	if err := enforce(s.metrics, policy.ListAllUsers, actor, policy.CanListAllUsers(actor)); err != nil {
		return nil, err
	}
	user, err := findUser(s.db, id)
	if err != nil {
		return nil, err
	}
	if req.Role != nil {
		if err := enforce(s.metrics, policy.ManageUserRole, actor, policy.CanManageUserRole(actor)); err != nil {
			return nil, err
		}
	}
	if err := s.apply(user, req); err != nil {
		return nil, err
	}
	return user, nil
}

// Profile returns the actor's own account.
func (s *UserService) Profile(actor policy.Actor) (*models.User, error) {
	return findUser(s.db, actor.ID)
}

// UpdateProfile edits the actor's own account. A role change is applied only when
// the actor may manage roles, and is otherwise ignored.
func (s *UserService) UpdateProfile(req dto.UpdateUserRequest, actor policy.Actor) (*models.User, error) {
	user, err := findUser(s.db, actor.ID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageUserRole(actor).Allowed {
		req.Role = nil
	}
	if err := s.apply(user, req); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) apply(user *models.User, req dto.UpdateUserRequest) error {
	trimPtr(req.Name)
	trimPtr(req.Email)
	if req.Email != nil {
		*req.Email = strings.ToLower(*req.Email)
	}
	if req.Name != nil && *req.Name == "" {
		return domain.NewValidationError("name cannot be empty")
	}
	if req.Email != nil && *req.Email == "" {
		return domain.NewValidationError("email cannot be empty")
	}
	if err := validateStruct(s.validate, &req); err != nil {
		return err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil && *req.Email != user.Email {
		if err := s.ensureEmailFree(*req.Email, user.ID); err != nil {
			return err
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return internal("update_user", err, "user_id", user.ID.String())
		}
		user.Password = hash
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if req.Role != nil && *req.Role != user.Role {
			if user.Role == string(policy.RoleAdmin) {
				admins, err := lockAdmins(tx)
				if err != nil {
					return internal("update_user", err, "user_id", user.ID.String())
				}
				if admins <= 1 {
					return domain.NewConflictError("cannot demote the last admin user")
				}
			}
			user.Role = *req.Role
		}
		user.UpdatedAt = s.now()
		if err := tx.Save(user).Error; err != nil {
			return internal("update_user", err, "user_id", user.ID.String())
		}
		return nil
	})
}

// Delete removes a user. Their leads move to the deleting admin and their refresh
// tokens are dropped, all in one transaction.
func (s *UserService) Delete(id uuid.UUID, actor policy.Actor) error {
	if err := enforce(s.metrics, policy.DeleteUser, actor, policy.CanDeleteUser(actor, "", 0)); err != nil {
		return err
	}
	target, err := findUser(s.db, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		admins, err := lockAdmins(tx)
		if err != nil {
			return internal("delete_user", err, "user_id", id.String())
		}
		decision := policy.CanDeleteUser(actor, policy.Role(target.Role), admins)
		if err := enforce(s.metrics, policy.DeleteUser, actor, decision); err != nil {
			return err
		}
		// leads are handed to the deleting admin, so it cannot be the user being removed
		if id == actor.ID {
			return domain.NewValidationError("you cannot delete your own account")
		}

		if err := tx.Model(&models.Lead{}).
			Where("assigned_to = ?", id).
			Updates(map[string]any{"assigned_to": actor.ID, "updated_at": s.now()}).Error; err != nil {
			return internal("delete_user", err, "user_id", id.String())
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return internal("delete_user", err, "user_id", id.String())
		}
		if err := tx.Delete(&models.User{}, "id = ?", id).Error; err != nil {
			return internal("delete_user", err, "user_id", id.String())
		}
		slog.Info("user deleted", "user_id", id.String(), "action", "delete_user", "by", actor.ID.String())
		return nil
	})
}

// EnsureAdmin creates an admin with the given credentials unless a user with that
// email already exists. It reports whether a user was created.
func (s *UserService) EnsureAdmin(name, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return false, domain.NewValidationError("admin email is required and password must be at least 8 characters")
	}

	var existing models.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, internal("ensure_admin", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, internal("ensure_admin", err)
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	admin := models.User{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: hash,
		Role:     string(policy.RoleAdmin),
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return false, internal("ensure_admin", err)
	}
	return true, nil
}

// ActorFor returns the current actor for a user id, reading the role from the store.
func (s *UserService) ActorFor(id uuid.UUID) (policy.Actor, error) {
	user, err := findUser(s.db, id)
	if err != nil {
		return policy.Actor{}, err
	}
	return policy.Actor{ID: user.ID, Role: policy.Role(user.Role)}, nil
}

// ActorByEmail resolves an actor from an email address.
func (s *UserService) ActorByEmail(email string) (policy.Actor, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.Actor{}, domain.NewNotFoundError("user")
		}
		return policy.Actor{}, internal("actor_by_email", err)
	}
	return policy.Actor{ID: user.ID, Role: policy.Role(user.Role)}, nil
}

func (s *UserService) ensureEmailFree(email string, except uuid.UUID) error {
	var count int64
	if err := s.db.Model(&models.User{}).
		Where("email = ? AND id <> ?", email, except).
		Count(&count).Error; err != nil {
		return internal("check_email", err)
	}
	if count > 0 {
		return domain.NewConflictError(fmt.Sprintf("a user with email %s already exists", email))
	}
	return nil
}

// lockAdmins locks every admin row for the rest of tx and returns how many there
// are, so concurrent deletes or demotions cannot both pass the last-admin check.
// Postgres rejects FOR UPDATE on an aggregate, hence the ids.
func lockAdmins(tx *gorm.DB) (int64, error) {
	var ids []uuid.UUID
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Model(&models.User{}).
		Where("role = ?", string(policy.RoleAdmin)).
		Pluck("id", &ids).Error
	return int64(len(ids)), err
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func withStats(u models.User, c assigneeCount) dto.UserWithStats {
	return dto.UserWithStats{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		CreatedAt:      u.CreatedAt,
		Leads:          c.Total,
		Conversions:    c.Conversions,
		ConversionRate: wholePercent(c.Conversions, c.Total),
	}
}
