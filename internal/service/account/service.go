package account

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/auth"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/dto"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
)

const (
	maxNameLen    = 100
	maxProgramLen = 100
	maxBioLen     = 500
	maxAvatarLen  = 500
	minTerm       = 1
	maxTerm       = 20
)

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Program   string   `json:"program"`
	Term      int      `json:"term"`
	Interests []string `json:"interests"`
	Bio       string   `json:"bio"`
	Avatar    string   `json:"avatar"`
}

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateInput is the body of PUT /auth/me. Absent fields stay unchanged.
type UpdateInput struct {
	Name      *string   `json:"name"`
	Password  *string   `json:"password"`
	Program   *string   `json:"program"`
	Term      *int      `json:"term"`
	Interests *[]string `json:"interests"`
	Bio       *string   `json:"bio"`
	Avatar    *string   `json:"avatar"`
}

// Service owns registration, login and profile maintenance.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// Register creates a verified account and returns a session for it.
//
// Behavior:
//   - Every field is validated before anything is written.
//   - The email must belong to the institutional domain; it is stored
//     lower-cased.
//   - A duplicate email is a conflict, detected by the unique index.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*dto.Session, error) {
	email, err := s.normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	u := &db.User{
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		Program:   strings.TrimSpace(in.Program),
		Term:      in.Term,
		Interests: cleanInterests(in.Interests),
		Bio:       strings.TrimSpace(in.Bio),
		Avatar:    strings.TrimSpace(in.Avatar),
		Verified:  true,
	}
	if err := validateProfile(u); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.appCtx.Config.Auth.BcryptCost)
	if err != nil {
		return nil, svcErr.Internal(err)
	}
	u.PasswordHash = hash

	if err := s.users.Create(ctx, u); err != nil {
		if svcErr.IsDuplicate(err) {
			return nil, svcErr.Conflict("email is already registered")
		}
		s.appCtx.Logger.Error("create user failed", "err", err)
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("user registered", "user_id", u.ID)
	return s.session(u)
}

// Login verifies a credential. Unknown email and wrong password produce the
// same error.
func (s *Service) Login(ctx context.Context, in LoginInput) (*dto.Session, error) {
	invalid := svcErr.Unauthenticated("invalid email or password")

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, svcErr.Validation("email and password are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}

	ok, err := auth.CheckPassword(u.PasswordHash, in.Password)
	if err != nil {
		s.appCtx.Logger.Error("password check failed", "user_id", u.ID, "err", err)
		return nil, invalid
	}
	if !ok {
		return nil, invalid
	}
	return s.session(u)
}

// Me returns the caller's profile as stored now.
func (s *Service) Me(ctx context.Context, userID uint64) (*dto.Profile, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	p := dto.NewProfile(u)
	return &p, nil
}

// Update applies a partial profile change with the same rules as Register.
// A new password is re-hashed.
func (s *Service) Update(ctx context.Context, userID uint64, in UpdateInput) (*dto.Profile, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Program != nil {
		u.Program = strings.TrimSpace(*in.Program)
	}
	if in.Term != nil {
		u.Term = *in.Term
	}
	if in.Interests != nil {
		u.Interests = cleanInterests(*in.Interests)
	}
	if in.Bio != nil {
		u.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Avatar != nil {
		u.Avatar = strings.TrimSpace(*in.Avatar)
	}
	if err := validateProfile(u); err != nil {
		return nil, err
	}

	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*in.Password, s.appCtx.Config.Auth.BcryptCost)
		if err != nil {
			return nil, svcErr.Internal(err)
		}
		u.PasswordHash = hash
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, svcErr.Map(err)
	}
	p := dto.NewProfile(u)
	return &p, nil
}

func (s *Service) session(u *db.User) (*dto.Session, error) {
	token, exp, err := s.appCtx.Tokens.Issue(u.ID)
	if err != nil {
		return nil, svcErr.Internal(err)
	}
	return &dto.Session{Token: token, ExpiresAt: exp, User: dto.NewProfile(u)}, nil
}

// normalizeEmail lower-cases the address and checks the domain suffix.
func (s *Service) normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	domain := strings.ToLower(s.appCtx.Config.App.EmailDomain)

	if email == "" {
		return "", svcErr.Validation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", svcErr.Validation("email is not a valid address")
	}
	local, host, ok := strings.Cut(email, "@")
	if !ok || local == "" || host != domain {
		return "", svcErr.Validationf("only @%s addresses may register", domain)
	}
	return email, nil
}

func validateProfile(u *db.User) error {
	switch {
	case u.Name == "":
		return svcErr.Validation("name is required")
	case utf8.RuneCountInString(u.Name) > maxNameLen:
		return svcErr.Validationf("name must be at most %d characters", maxNameLen)
	case u.Program == "":
		return svcErr.Validation("program is required")
	case utf8.RuneCountInString(u.Program) > maxProgramLen:
		return svcErr.Validationf("program must be at most %d characters", maxProgramLen)
	case u.Term < minTerm || u.Term > maxTerm:
		return svcErr.Validationf("term must be between %d and %d", minTerm, maxTerm)
	case utf8.RuneCountInString(u.Bio) > maxBioLen:
		return svcErr.Validationf("bio must be at most %d characters", maxBioLen)
	case len(u.Avatar) > maxAvatarLen:
		return svcErr.Validationf("avatar must be at most %d characters", maxAvatarLen)
	}
	return nil
}

func validatePassword(p string) error {
	if utf8.RuneCountInString(p) < auth.MinPasswordLength {
		return svcErr.Validationf("password must be at least %d characters", auth.MinPasswordLength)
	}
	return nil
}

// cleanInterests trims entries and drops empties and duplicates.
func cleanInterests(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
