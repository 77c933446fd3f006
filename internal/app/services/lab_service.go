package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/app/repositories"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/helpers"
)

const labRecentPosts = 10

// LabPage is one page of labs
type LabPage struct {
	Labs  []*models.Lab
	Total int64
	Page  int
	Size  int
}

// LabDetail is a lab together with the state shown on its page
type LabDetail struct {
	Lab           *models.Lab
	Members       []*models.User
	MemberCount   int64
	FollowerCount int64
	IsMember      bool
	IsFollowing   bool
	Posts         []*models.Post
}

// LabService manages labs and their membership
type LabService interface {
	ListLabs(ctx context.Context, page, size int) (*LabPage, error)
	CreateLab(ctx context.Context, creatorID int64, name, description, image string) (*models.Lab, error)
	GetLab(ctx context.Context, labID, viewerID int64) (*LabDetail, error)
	JoinLab(ctx context.Context, labID, userID int64) error
	LeaveLab(ctx context.Context, labID, userID int64) error
	LabsOf(ctx context.Context, userID int64) ([]*models.Lab, error)
}

type labServiceImpl struct {
	labRepo  repositories.ILabRepository
	subRepo  repositories.ISubscriptionRepository
	postRepo repositories.IPostRepository
	logger   zerolog.Logger
}

// NewLabService creates a new LabService
func NewLabService(
	labRepo repositories.ILabRepository,
	subRepo repositories.ISubscriptionRepository,
	postRepo repositories.IPostRepository,
	logger zerolog.Logger,
) LabService {
	return &labServiceImpl{
		labRepo:  labRepo,
		subRepo:  subRepo,
		postRepo: postRepo,
		logger:   logger,
	}
}

func (s *labServiceImpl) ListLabs(ctx context.Context, page, size int) (*LabPage, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	labs, total, err := s.labRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &LabPage{Labs: labs, Total: total, Page: max(page, 1), Size: limit}, nil
}

// CreateLab stores the lab and makes the creator its first member
func (s *labServiceImpl) CreateLab(ctx context.Context, creatorID int64, name, description, image string) (*models.Lab, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 30 {
		return nil, apperrors.NewValidationError("lab name must be between 2 and 30 characters")
	}
	if image == "" {
		image = models.DefaultLabImage
	}

	lab := &models.Lab{
		Name:        name,
		Description: description,
		Image:       image,
		CreatedBy:   creatorID,
	}
	if err := s.labRepo.Create(ctx, lab); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("labID", lab.ID).Int64("creatorID", creatorID).Msg("Lab created")
	return lab, nil
}

// GetLab loads a lab page. viewerID 0 means an anonymous viewer.
func (s *labServiceImpl) GetLab(ctx context.Context, labID, viewerID int64) (*LabDetail, error) {
	lab, err := s.labRepo.GetByID(ctx, labID)
	if err != nil {
		return nil, err
	}

	detail := &LabDetail{Lab: lab}
	ref := models.LabRef(labID)

	if detail.Members, err = s.labRepo.Members(ctx, labID); err != nil {
		return nil, err
	}
	if detail.MemberCount, err = s.labRepo.CountMembers(ctx, labID); err != nil {
		return nil, err
	}
	if detail.FollowerCount, err = s.subRepo.CountFollowers(ctx, ref); err != nil {
		return nil, err
	}
	if detail.Posts, _, err = s.postRepo.ListByAuthor(ctx, ref, 0, labRecentPosts); err != nil {
		return nil, err
	}

	if viewerID != 0 {
		if detail.IsMember, err = s.labRepo.IsMember(ctx, labID, viewerID); err != nil {
			return nil, err
		}
		if detail.IsFollowing, err = s.subRepo.Exists(ctx, viewerID, ref); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func (s *labServiceImpl) JoinLab(ctx context.Context, labID, userID int64) error {
	added, err := s.labRepo.AddMember(ctx, labID, userID)
	if err != nil {
		return err
	}
	if !added {
		return apperrors.NewConflictError("you are already a member of this lab")
	}
	s.logger.Info().Int64("labID", labID).Int64("userID", userID).Msg("Joined lab")
	return nil
}

func (s *labServiceImpl) LeaveLab(ctx context.Context, labID, userID int64) error {
	if _, err := s.labRepo.GetByID(ctx, labID); err != nil {
		return err
	}
	removed, err := s.labRepo.RemoveMember(ctx, labID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.NewResourceNotFoundError("you are not a member of this lab")
	}
	s.logger.Info().Int64("labID", labID).Int64("userID", userID).Msg("Left lab")
	return nil
}

func (s *labServiceImpl) LabsOf(ctx context.Context, userID int64) ([]*models.Lab, error) {
	return s.labRepo.ListForMember(ctx, userID)
}
