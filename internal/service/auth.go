// Package service — authentication business logic.
//
// AuthService is the business logic layer for the phone-OTP flow. It sits
// between the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT)  ↘ sms.Provider (delivery)
//
// KEY RESPONSIBILITIES:
//   - Issue verification codes: generate, persist with expiry, deliver
//   - Verify codes: the ONLY path that flips a user to verified
//   - Seed default categories exactly once, on first verification
//   - Stay free of HTTP concerns — no cookies, no status codes
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/auth"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
	"github.com/sakif/expense-tracker/internal/sms"
)

// defaultCategories is the fixed starter set seeded for every new user, in
// this order. Changing it only affects users who verify after the change.
var defaultCategories = []model.Category{
	{Name: "Food", Color: "#FF6B6B", Icon: "🍔"},
	{Name: "Transport", Color: "#4ECDC4", Icon: "🚗"},
	{Name: "Shopping", Color: "#FFD93D", Icon: "🛍️"},
	{Name: "Entertainment", Color: "#A78BFA", Icon: "🎬"},
	{Name: "Bills", Color: "#6BCB77", Icon: "🧾"},
	{Name: "Health", Color: "#FF8FAB", Icon: "💊"},
}

// AuthService handles the authentication business logic.
type AuthService struct {
	users      repository.UserRepository
	categories repository.CategoryRepository
	tokens     *auth.TokenService
	sender     sms.Provider
	logger     *slog.Logger

	// now is swappable so tests can move the clock past a code's expiry.
	now func() time.Time
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	categories repository.CategoryRepository,
	tokens *auth.TokenService,
	sender sms.Provider,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		categories: categories,
		tokens:     tokens,
		sender:     sender,
		logger:     logger,
		now:        time.Now,
	}
}

// IssueResult is what the request-code operation reveals to the client:
// the masked phone we sent to, and — only through a dev provider — the code
// itself. A production response never carries the code.
type IssueResult struct {
	Phone   string // masked, e.g. "+1555***1111"
	DevCode string // plaintext code, set only when the provider is a dev channel
}

// IssueCode generates a fresh 6-digit code for the phone number, stores it
// with a 10-minute expiry, and delivers it via SMS.
//
// Re-issuing before the previous code expires simply overwrites it — there
// is no queue of outstanding codes, and concurrent issues race with
// last-writer-wins (only the delivered code is useful to anyone).
func (s *AuthService) IssueCode(ctx context.Context, phone string) (*IssueResult, error) {
	if !auth.ValidPhone(phone) {
		return nil, apperror.ValidationFailed("phone", "phone number must be in +<countrycode><number> format")
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}
	expiresAt := s.now().Add(auth.CodeTTL)

	// Find-or-create, then overwrite any prior code/expiry together.
	user, err := s.users.GetByPhone(ctx, phone)
	switch {
	case err == nil:
		user.Code = &code
		user.CodeExpiresAt = &expiresAt
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: storing code: %w", err)
		}
	case isNotFound(err):
		user = &model.User{
			Phone:         phone,
			Code:          &code,
			CodeExpiresAt: &expiresAt,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating user: %w", err)
		}
	default:
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	body := fmt.Sprintf("Your expense-tracker verification code is %s. It expires in 10 minutes.", code)
	if err := s.sender.Send(ctx, phone, body); err != nil {
		// The code is stored but undeliverable — the client can't proceed,
		// so surface the failure instead of pretending it was sent.
		return nil, fmt.Errorf("service/auth: delivering code: %w", err)
	}

	masked := auth.MaskPhone(phone)
	s.logger.Info("verification code issued", slog.String("phone", masked))

	result := &IssueResult{Phone: masked}
	if s.sender.Dev() {
		result.DevCode = code
	}
	return result, nil
}

// VerifyResult is the tagged outcome of a successful verification: the
// caller learns explicitly whether this was the user's first verification
// instead of inferring it from prior state.
type VerifyResult struct {
	User              *model.User
	Token             string
	FirstVerification bool
}

// VerifyCode checks a claimed code against the stored state.
//
// Failure order matters and is load-bearing:
//  1. unknown phone            → NotFound
//  2. no code outstanding      → InvalidCode (covers single-use replay:
//     a consumed code was cleared, so resubmitting it lands here)
//  3. expiry missing or passed → Expired, regardless of what was submitted
//  4. string mismatch          → InvalidCode (exact string equality —
//     "482913" and " 482913" are different codes)
//
// On success the code and expiry are cleared together, verified is set, and
// a session token is minted. This is the only code path anywhere that flips
// verified to true. First-time verifiers also get the default category set;
// a seeding failure is logged and swallowed because authentication success
// is the primary contract.
func (s *AuthService) VerifyCode(ctx context.Context, phone, code string) (*VerifyResult, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user", auth.MaskPhone(phone))
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if user.Code == nil {
		return nil, apperror.InvalidCode()
	}
	if user.CodeExpiresAt == nil || user.CodeExpiresAt.Before(s.now()) {
		return nil, apperror.Expired()
	}
	if *user.Code != code {
		return nil, apperror.InvalidCode()
	}

	first := !user.Verified

	// Consume the code: both fields cleared together, verified flipped.
	user.Code = nil
	user.CodeExpiresAt = nil
	user.Verified = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: consuming code: %w", err)
	}

	if first {
		s.seedDefaults(ctx, user.ID)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user verified",
		slog.String("userID", user.ID),
		slog.String("phone", auth.MaskPhone(user.Phone)),
		slog.Bool("first", first),
	)

	return &VerifyResult{
		User:              user,
		Token:             token,
		FirstVerification: first,
	}, nil
}

// seedDefaults inserts the starter categories for a newly verified user.
//
// Errors are logged and swallowed — a user without default categories is a
// cosmetic problem; a failed login is not. Partial success is fine too: each
// insert stands alone.
func (s *AuthService) seedDefaults(ctx context.Context, userID string) {
	for _, def := range defaultCategories {
		category := def // copy; Create mutates its argument
		category.UserID = userID
		if err := s.categories.Create(ctx, &category); err != nil {
			s.logger.Error("seeding default category failed",
				slog.String("userID", userID),
				slog.String("category", def.Name),
				slog.String("error", err.Error()),
			)
		}
	}
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/me handler after the middleware has validated the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
