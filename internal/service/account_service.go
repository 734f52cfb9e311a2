package service

import (
	"context"
	"strings"
	"time"

	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID uint, username string) (string, error)
}

// RegisterInput is the public sign-up payload.
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Bio       string `json:"bio"`
	BirthDate string `json:"birth_date"`
}

// LoginInput accepts a username or an email address in Username.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfileInput is a partial profile update.
type ProfileInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Bio       *string `json:"bio"`
	BirthDate *string `json:"birth_date"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type AccountService struct {
	users    repository.UserRepository
	tokens   TokenIssuer
	hashCost int
	now      func() time.Time
	// dummyHash is compared against on unknown usernames so a miss costs
	// as much as a wrong password.
	dummyHash []byte
}

func NewAccountService(users repository.UserRepository, tokens TokenIssuer) *AccountService {
	return newAccountService(users, tokens, bcrypt.DefaultCost)
}

func newAccountService(users repository.UserRepository, tokens TokenIssuer, cost int) *AccountService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("agora-timing-equalizer"), cost)
	return &AccountService{
		users:     users,
		tokens:    tokens,
		hashCost:  cost,
		now:       time.Now,
		dummyHash: dummy,
	}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Bio = strings.TrimSpace(in.Bio)

	errs := validation.FieldErrors{}
	errs.AddErr("username", validation.ValidateUsername(in.Username))
	errs.AddErr("email", validation.ValidateEmail(in.Email))
	errs.AddErr("password", validation.ValidatePassword(in.Password))
	errs.AddErr("bio", validation.ValidateBio(in.Bio))

	var birth *time.Time
	if strings.TrimSpace(in.BirthDate) != "" {
		b, err := s.cleanBirthDate(in.BirthDate)
		errs.AddErr("birth_date", err)
		birth = b
	}

	if !errs.Has("username") {
		existing, err := s.users.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			errs.Add("username", "A user with that username already exists.")
		}
	}
	if !errs.Has("email") {
		existing, err := s.users.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			errs.Add("email", "A user with that email already exists.")
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hash),
		Bio:       in.Bio,
		BirthDate: birth,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login verifies credentials. Every failure is the same INVALID_CREDENTIALS
// error so callers cannot tell unknown users from wrong passwords.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	identifier := strings.TrimSpace(in.Username)
	if identifier == "" || in.Password == "" {
		return nil, models.NewInvalidCredentialsError()
	}

	user, err := s.users.GetByUsername(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil && strings.Contains(identifier, "@") {
		if user, err = s.users.GetByEmail(ctx, identifier); err != nil {
			return nil, err
		}
	}

	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return nil, models.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.NewInvalidCredentialsError()
	}
	return s.issue(user)
}

func (s *AccountService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AccountService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AccountService) ListUsers(ctx context.Context, page ListParams) ([]models.User, error) {
	return s.users.List(ctx, page.Limit, page.Offset)
}

// UpdateProfile patches the caller's own profile. Only present fields are
// validated and written.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	errs := validation.FieldErrors{}
	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(v); err != nil {
			errs.AddErr("username", err)
		} else if v != user.Username {
			existing, err := s.users.GetByUsername(ctx, v)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				errs.Add("username", "A user with that username already exists.")
			}
		}
		user.Username = v
	}
	if in.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validation.ValidateEmail(v); err != nil {
			errs.AddErr("email", err)
		} else if v != user.Email {
			existing, err := s.users.GetByEmail(ctx, v)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != user.ID {
				errs.Add("email", "A user with that email already exists.")
			}
		}
		user.Email = v
	}
	if in.Bio != nil {
		v := strings.TrimSpace(*in.Bio)
		errs.AddErr("bio", validation.ValidateBio(v))
		user.Bio = v
	}
	if in.BirthDate != nil {
		if strings.TrimSpace(*in.BirthDate) == "" {
			user.BirthDate = nil
		} else {
			b, err := s.cleanBirthDate(*in.BirthDate)
			errs.AddErr("birth_date", err)
			user.BirthDate = b
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) cleanBirthDate(raw string) (*time.Time, error) {
	b, err := validation.ParseBirthDate(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateBirthDate(b, s.now()); err != nil {
		return nil, err
	}
	return &b, nil
}
