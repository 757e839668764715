package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/model"
	"github.com/harplab/site-api/internal/repository"
)

// TeamService manages the team roster: filtered listing with the display
// ordering the frontend expects, and admin CRUD.
type TeamService struct {
	repo   repository.TeamMemberRepository
	logger *slog.Logger
}

func NewTeamService(repo repository.TeamMemberRepository, logger *slog.Logger) *TeamService {
	return &TeamService{repo: repo, logger: logger}
}

// TeamMemberInput carries the multipart form fields of a create or update
// request. Founder arrives as "true"/"false" like the article top-story
// flag.
type TeamMemberInput struct {
	Name        string
	Role        string
	GitHubURL   string
	LinkedInURL string
	Semester    string
	MemberType  string
	Founder     string
}

// List returns the roster, optionally restricted to one semester or one
// member type. An unrecognized filter value is a validation error rather
// than an empty result, so frontend typos surface immediately.
func (s *TeamService) List(ctx context.Context, semester, memberType string) ([]model.TeamMember, error) {
	semester = strings.TrimSpace(semester)
	memberType = strings.TrimSpace(memberType)

	if semester != "" && !model.ValidSemester(semester) {
		return nil, apperror.ValidationFailed("semester",
			fmt.Sprintf("unrecognized semester %q", semester))
	}
	if memberType != "" && !model.ValidMemberType(memberType) {
		return nil, apperror.ValidationFailed("member_type",
			fmt.Sprintf("unrecognized member type %q", memberType))
	}

	members, err := s.repo.List(ctx, repository.TeamMemberFilter{
		Semester:   semester,
		MemberType: memberType,
	})
	if err != nil {
		return nil, fmt.Errorf("service/team: listing members: %w", err)
	}

	sortMembers(members)
	return members, nil
}

// Get returns a single roster entry.
func (s *TeamService) Get(ctx context.Context, id string) (*model.TeamMember, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "team member ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// GetImage returns a member's portrait bytes and MIME type.
func (s *TeamService) GetImage(ctx context.Context, memberID string) (*model.Image, error) {
	if strings.TrimSpace(memberID) == "" {
		return nil, apperror.ValidationFailed("id", "team member ID is required")
	}
	return s.repo.GetImage(ctx, memberID)
}

// Create validates and persists a new member with an optional portrait.
func (s *TeamService) Create(ctx context.Context, input TeamMemberInput, image *ImageUpload) (*model.TeamMember, error) {
	member, err := s.buildMember(input)
	if err != nil {
		return nil, err
	}
	if err := validateImage(image, MaxImageBytes); err != nil {
		return nil, err
	}

	var img *model.Image
	if image != nil {
		img = &model.Image{Data: image.Data, MimeType: image.MimeType}
	}

	if err := s.repo.Create(ctx, member, img); err != nil {
		return nil, fmt.Errorf("service/team: creating member: %w", err)
	}

	s.logger.Info("team member created",
		slog.String("id", member.ID),
		slog.String("name", member.Name),
	)
	return member, nil
}

// Update replaces every field of an existing member. A non-nil image also
// swaps the portrait; a nil image keeps the current one.
func (s *TeamService) Update(ctx context.Context, id string, input TeamMemberInput, image *ImageUpload) (*model.TeamMember, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "team member ID is required")
	}

	member, err := s.buildMember(input)
	if err != nil {
		return nil, err
	}
	member.ID = id

	if err := validateImage(image, MaxImageBytes); err != nil {
		return nil, err
	}

	var img *model.Image
	if image != nil {
		img = &model.Image{Data: image.Data, MimeType: image.MimeType}
	}

	if err := s.repo.Update(ctx, member, img); err != nil {
		return nil, err
	}

	s.logger.Info("team member updated", slog.String("id", id))
	return member, nil
}

// Delete removes a member and their portrait.
func (s *TeamService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.ValidationFailed("id", "team member ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("team member deleted", slog.String("id", id))
	return nil
}

// buildMember validates the required fields and coerces the form values
// into a model.TeamMember.
func (s *TeamService) buildMember(input TeamMemberInput) (*model.TeamMember, error) {
	name := strings.TrimSpace(input.Name)
	role := strings.TrimSpace(input.Role)
	semester := strings.TrimSpace(input.Semester)
	memberType := strings.TrimSpace(input.MemberType)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "member name is required")
	}
	if role == "" {
		return nil, apperror.ValidationFailed("role", "member role is required")
	}
	if !model.ValidSemester(semester) {
		return nil, apperror.ValidationFailed("semester",
			fmt.Sprintf("unrecognized semester %q", semester))
	}
	if !model.ValidMemberType(memberType) {
		return nil, apperror.ValidationFailed("member_type",
			fmt.Sprintf("unrecognized member type %q", memberType))
	}

	founder, err := parseFlag(input.Founder)
	if err != nil {
		return nil, apperror.ValidationFailed("founder", err.Error())
	}

	return &model.TeamMember{
		Name:        name,
		Role:        role,
		GitHubURL:   strings.TrimSpace(input.GitHubURL),
		LinkedInURL: strings.TrimSpace(input.LinkedInURL),
		Semester:    semester,
		MemberType:  memberType,
		Founder:     founder,
	}, nil
}

// sortMembers orders the roster for display: founders first, then by role
// seniority, then alphabetically by role and name so ties are stable.
func sortMembers(members []model.TeamMember) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.Founder != b.Founder {
			return a.Founder
		}
		pa, pb := rolePriority(a.Role), rolePriority(b.Role)
		if pa != pb {
			return pa < pb
		}
		if a.Role != b.Role {
			return a.Role < b.Role
		}
		return a.Name < b.Name
	})
}

// rolePriority ranks leadership titles ahead of everyone else. Exact
// matches take the listed rank; "Vice President" and "Project Manager"
// match as prefixes so variants like "Vice President of Operations" rank
// with their family.
func rolePriority(role string) int {
	switch {
	case role == "CEO, Vice President of Core Research":
		return 1
	case strings.HasPrefix(role, "Vice President"):
		return 2
	case role == "Marketing Manager":
		return 3
	case strings.HasPrefix(role, "Project Manager"):
		return 4
	default:
		return 5
	}
}
