package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/jsonb"
	"ghonsi-proof/internal/observability/middleware"
	"ghonsi-proof/internal/service"
	"ghonsi-proof/internal/store"
	"ghonsi-proof/internal/validate"

	"github.com/google/uuid"
)

const maxProfilePage = 100

type ProfileServiceImpl struct {
	store    *store.Store
	messages service.MessageService
}

func NewProfileService(st *store.Store, messages service.MessageService) *ProfileServiceImpl {
	return &ProfileServiceImpl{store: st, messages: messages}
}

// ProfileUID derives the 9-digit public id from a user id: the 32-bit string
// hash h = h*31 + c, absolute value, zero padded and cut to 9 digits.
func ProfileUID(userID string) string {
	if userID == "" {
		return "000000000"
	}
	var h int32
	for _, c := range userID {
		h = (h << 5) - h + int32(c)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	s := strconv.FormatInt(abs, 10)
	if len(s) < 9 {
		s = strings.Repeat("0", 9-len(s)) + s
	}
	return s[:9]
}

func (p *ProfileServiceImpl) Create(ctx context.Context, userID uuid.UUID, r dto.ProfileRequest) (*domain.Profile, error) {
	if r.DisplayName == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, validate.DisplayName(""))
	}
	fields, err := profileFields(r)
	if err != nil {
		return nil, err
	}
	user, err := p.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	prof := &domain.Profile{
		UserID:      userID,
		UID:         ProfileUID(userID.String()),
		DisplayName: strings.TrimSpace(*r.DisplayName),
		Email:       user.EmailOrEmpty(),
	}
	applyProfileFields(prof, r)
	if links, ok := fields["social_links"]; ok {
		prof.SocialLinks = links.(jsonb.JSON)
	}
	if err := p.store.Profiles().Create(ctx, prof); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: profile already exists", ErrConflict)
		}
		return nil, err
	}
	slog.Info("profile created", append(middleware.LogAttrs(ctx), "user_id", userID, "uid", prof.UID)...)

	if p.messages != nil {
		if _, err := p.messages.Welcome(ctx, userID, firstName(prof.DisplayName)); err != nil {
			slog.Warn("welcome message failed", append(middleware.LogAttrs(ctx), "user_id", userID, "error", err)...)
		}
	}
	return prof, nil
}

func (p *ProfileServiceImpl) Update(ctx context.Context, userID uuid.UUID, r dto.ProfileRequest) (*domain.Profile, error) {
	fields, err := profileFields(r)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := p.store.Profiles().Update(ctx, userID, fields); err != nil {
			return nil, notFound(err, "profile")
		}
	}
	return p.Get(ctx, userID)
}

func (p *ProfileServiceImpl) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	prof, err := p.store.Profiles().GetByUserID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return prof, nil
}

func (p *ProfileServiceImpl) GetByWallet(ctx context.Context, address string) (*domain.Profile, error) {
	if err := validate.SolanaAddress(address); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	prof, err := p.store.Profiles().GetByWallet(ctx, address)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return prof, nil
}

func (p *ProfileServiceImpl) List(ctx context.Context, limit, offset int) ([]domain.Profile, error) {
	if limit <= 0 || limit > maxProfilePage {
		limit = maxProfilePage
	}
	if offset < 0 {
		offset = 0
	}
	return p.store.Profiles().List(ctx, limit, offset)
}

func (p *ProfileServiceImpl) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return p.store.Profiles().Exists(ctx, userID)
}

// profileFields validates the set fields of r and returns them as column updates.
func profileFields(r dto.ProfileRequest) (map[string]any, error) {
	fields := map[string]any{}
	check := func(err error) error {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return nil
	}
	if r.DisplayName != nil {
		if err := check(validate.DisplayName(*r.DisplayName)); err != nil {
			return nil, err
		}
		fields["display_name"] = strings.TrimSpace(*r.DisplayName)
	}
	if r.ProfessionalTitle != nil {
		if err := check(validate.ProfessionalTitle(*r.ProfessionalTitle)); err != nil {
			return nil, err
		}
		fields["professional_title"] = strings.TrimSpace(*r.ProfessionalTitle)
	}
	if r.Bio != nil {
		if err := check(validate.Bio(*r.Bio)); err != nil {
			return nil, err
		}
		fields["bio"] = strings.TrimSpace(*r.Bio)
	}
	if r.Location != nil {
		if err := check(validate.Location(*r.Location)); err != nil {
			return nil, err
		}
		fields["location"] = strings.TrimSpace(*r.Location)
	}
	if r.AvatarURL != nil {
		if err := check(validate.URL(*r.AvatarURL)); err != nil {
			return nil, err
		}
		fields["avatar_url"] = *r.AvatarURL
	}
	if r.Email != nil && *r.Email != "" {
		if err := check(validate.Email(*r.Email)); err != nil {
			return nil, err
		}
		fields["email"] = strings.TrimSpace(*r.Email)
	}
	if r.SocialLinks != nil {
		for name, link := range r.SocialLinks {
			if err := validate.URL(link); err != nil {
				return nil, fmt.Errorf("%w: invalid %s link", ErrInvalidRequest, name)
			}
		}
		links, err := jsonb.From(r.SocialLinks)
		if err != nil {
			return nil, err
		}
		fields["social_links"] = links
	}
	return fields, nil
}

func applyProfileFields(prof *domain.Profile, r dto.ProfileRequest) {
	if r.ProfessionalTitle != nil {
		prof.ProfessionalTitle = strings.TrimSpace(*r.ProfessionalTitle)
	}
	if r.Bio != nil {
		prof.Bio = strings.TrimSpace(*r.Bio)
	}
	if r.Location != nil {
		prof.Location = strings.TrimSpace(*r.Location)
	}
	if r.AvatarURL != nil {
		prof.AvatarURL = *r.AvatarURL
	}
	if r.Email != nil && *r.Email != "" {
		prof.Email = strings.TrimSpace(*r.Email)
	}
}

func firstName(displayName string) string {
	if f := strings.Fields(displayName); len(f) > 0 {
		return f[0]
	}
	return ""
}
