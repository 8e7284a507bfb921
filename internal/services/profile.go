package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/store"
)

// ProfileService owns profile lifecycle: creation, lookup with merged events,
// and partial name updates.
type ProfileService struct {
	store store.Store
	locks *ProfileLocks
	log   zerolog.Logger
}

// NameUpdate carries a partial rename; nil fields are left untouched.
type NameUpdate struct {
	ProfileName  *string `json:"profileName,omitempty"`
	UserName     *string `json:"userName,omitempty"`
	OpponentName *string `json:"opponentName,omitempty"`
}

func NewProfileService(s store.Store, locks *ProfileLocks, log zerolog.Logger) *ProfileService {
	return &ProfileService{store: s, locks: locks, log: log}
}

// Create registers a new relationship profile. userName defaults to "Me" when
// blank.
func (s *ProfileService) Create(ctx context.Context, profileName, opponentName, userName string) (*model.Profile, error) {
	profileName = strings.TrimSpace(profileName)
	opponentName = strings.TrimSpace(opponentName)
	userName = strings.TrimSpace(userName)
	if profileName == "" {
		return nil, fmt.Errorf("profile_name is required: %w", model.ErrValidation)
	}
	if opponentName == "" {
		return nil, fmt.Errorf("opponent_name is required: %w", model.ErrValidation)
	}
	if userName == "" {
		userName = "Me"
	}

	p := &model.Profile{
		ProfileID:        model.NewProfileID(),
		ProfileName:      profileName,
		UserName:         userName,
		OpponentName:     opponentName,
		CreationTime:     nowUTC(),
		ProcessedSources: []string{},
		Messages:         []model.Message{},
	}
	if err := s.store.Profiles().Put(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.log.Info().Str("profile_id", p.ProfileID).Str("profile_name", p.ProfileName).Msg("profile created")
	p.Events = []model.Event{}
	return p, nil
}

// Get loads a profile with its events record merged in.
func (s *ProfileService) Get(ctx context.Context, profileID string) (*model.Profile, error) {
	p, err := s.store.Profiles().Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	evts, err := s.store.Events().List(ctx, profileID)
	if err != nil {
		return nil, err
	}
	p.Events = evts
	return p, nil
}

// List returns all profiles, newest first. Events are not attached.
func (s *ProfileService) List(ctx context.Context) ([]*model.Profile, error) {
	ps, err := s.store.Profiles().List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(ps, func(i, j int) bool {
		return ps[i].CreationTime.After(ps[j].CreationTime)
	})
	return ps, nil
}

// UpdateNames applies a partial rename. A request with no fields set is a
// validation error.
func (s *ProfileService) UpdateNames(ctx context.Context, profileID string, upd NameUpdate) (*model.Profile, error) {
	if upd.ProfileName == nil && upd.UserName == nil && upd.OpponentName == nil {
		return nil, fmt.Errorf("at least one field must be provided: %w", model.ErrValidation)
	}
	unlock := s.locks.Lock(profileID)
	defer unlock()

	p, err := s.store.Profiles().Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if upd.ProfileName != nil {
		p.ProfileName = *upd.ProfileName
	}
	if upd.UserName != nil {
		p.UserName = *upd.UserName
	}
	if upd.OpponentName != nil {
		p.OpponentName = *upd.OpponentName
	}
	if err := s.store.Profiles().Put(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile names: %w", err)
	}
	return s.Get(ctx, profileID)
}
