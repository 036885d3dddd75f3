package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/quillpress/quillpress/internal/models"
	"github.com/quillpress/quillpress/pkg/domain"
	"github.com/quillpress/quillpress/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalid marks validation failures; the message says which field.
	ErrInvalid            = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const MinPasswordLength = 8

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().\-]{5,19}$`)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	cost int
	now  func() time.Time
}

type Option func(*Service)

// WithCost sets the bcrypt cost; tests use bcrypt.MinCost.
func WithCost(cost int) Option { return func(s *Service) { s.cost = cost } }

func NewService(r UserRepository, opts ...Option) *Service {
	s := &Service{repo: r, cost: bcrypt.DefaultCost, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email %q is not a valid address", email)
	}
	return nil
}

func validatePhone(phone string) error {
	if phone != "" && !phonePattern.MatchString(phone) {
		return invalid("phone %q is not a valid phone number", phone)
	}
	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("%s must be an http(s) URL", field)
	}
	return nil
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a regular account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return nil, invalid("first and last name are required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, invalid("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, &models.User{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Password:  hash,
		Role:      domain.RoleUser,
	})
}

// Authenticate checks a password against the stored hash. Unknown emails and
// wrong passwords give the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ProfileUpdate is a partial profile edit; nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Bio       *string `json:"bio"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatarUrl"`
	Location  *string `json:"location"`
	Website   *string `json:"website"`
	Twitter   *string `json:"twitter"`
	LinkedIn  *string `json:"linkedin"`
}

// Fields validates the update and returns the paths to $set.
func (p ProfileUpdate) Fields() (Fields, error) {
	f := Fields{}
	put := func(path string, v *string) {
		if v != nil {
			f[path] = strings.TrimSpace(*v)
		}
	}
	put("firstName", p.FirstName)
	put("lastName", p.LastName)
	put("profile.bio", p.Bio)
	put("profile.phone", p.Phone)
	put("profile.avatarUrl", p.AvatarURL)
	put("profile.location", p.Location)
	put("profile.website", p.Website)
	put("profile.twitter", p.Twitter)
	put("profile.linkedin", p.LinkedIn)

	if v, ok := f["firstName"]; ok && v == "" {
		return nil, invalid("firstName cannot be empty")
	}
	if v, ok := f["lastName"]; ok && v == "" {
		return nil, invalid("lastName cannot be empty")
	}
	if v, ok := f["profile.phone"].(string); ok {
		if err := validatePhone(v); err != nil {
			return nil, err
		}
	}
	for _, path := range []string{"profile.website", "profile.avatarUrl"} {
		if v, ok := f[path].(string); ok {
			if err := validateURL(strings.TrimPrefix(path, "profile."), v); err != nil {
				return nil, err
			}
		}
	}
	if len(f) == 0 {
		return nil, invalid("no fields to update")
	}
	return f, nil
}

// UpdateProfile applies a partial edit to the account with the given email.
func (s *Service) UpdateProfile(ctx context.Context, email string, p ProfileUpdate) (*models.User, error) {
	f, err := p.Fields()
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateByEmail(ctx, NormalizeEmail(email), f)
}

// SetSubscription toggles the newsletter flag. Subscribing twice keeps the
// original timestamp.
func (s *Service) SetSubscription(ctx context.Context, id string, subscribed bool) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsSubscribed == subscribed {
		return u, nil
	}
	f := Fields{"isSubscribed": subscribed, "subscribedAt": nil}
	if subscribed {
		f["subscribedAt"] = s.now().UTC()
	}
	return s.repo.UpdateByID(ctx, id, f)
}

// AdminUpdate is the moderation patch for an account.
type AdminUpdate struct {
	Role       *string `json:"role"`
	IsWriter   *bool   `json:"isWriter"`
	IsVerified *bool   `json:"isVerified"`
}

func (s *Service) AdminUpdate(ctx context.Context, id string, a AdminUpdate) (*models.User, error) {
	f := Fields{}
	if a.Role != nil {
		r := domain.Role(strings.TrimSpace(*a.Role))
		if !r.Valid() {
			return nil, invalid("role must be %q or %q", domain.RoleUser, domain.RoleAdmin)
		}
		f["role"] = r
	}
	if a.IsWriter != nil {
		f["isWriter"] = *a.IsWriter
	}
	if a.IsVerified != nil {
		f["isVerified"] = *a.IsVerified
	}
	if len(f) == 0 {
		return nil, invalid("no fields to update")
	}
	return s.repo.UpdateByID(ctx, id, f)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*models.User, int64, error) {
	return s.repo.List(ctx, f)
}

// SeedAdmin makes sure an admin account exists for email. An existing account
// with that email is left as it is.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return false, err
	}
	if len(password) < MinPasswordLength {
		return false, invalid("admin password must be at least %d characters", MinPasswordLength)
	}
	hash, err := s.hash(password)
	if err != nil {
		return false, err
	}
	created, err := s.repo.EnsureAdmin(ctx, &models.User{
		Email:     email,
		FirstName: "Site",
		LastName:  "Admin",
		Password:  hash,
		Role:      domain.RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	if created {
		logger.Infof("seeded admin account %s", email)
	}
	return created, nil
}
