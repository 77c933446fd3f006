package seed

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/labsphere/internal/app/models"
	appRepos "github.com/yigit/labsphere/internal/app/repositories"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/auth"
)

// Interests is the controlled vocabulary users pick their research interests from
var Interests = []string{
	"Artificial Intelligence",
	"Machine Learning",
	"Computer Vision",
	"Natural Language Processing",
	"Robotics",
	"Computer Networks",
	"Distributed Systems",
	"Databases",
	"Security and Privacy",
	"Theory of Computation",
	"Computer Architecture",
	"Human-Computer Interaction",
	"Computational Biology",
	"Signal Processing",
	"VLSI",
	"Software Engineering",
}

const (
	demoEmail    = "demo.professor@labsphere.app"
	demoUsername = "demoprof"
	demoLabName  = "Demo Lab"
)

// CreateDefaultData ensures the interest vocabulary exists. When demoPassword
// is set it also creates a verified demo professor owning a demo lab.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, demoPassword string, lgr zerolog.Logger) error {
	interestRepo := appRepos.NewInterestRepository(dbPool)
	userRepo := appRepos.NewUserRepository(dbPool)
	labRepo := appRepos.NewLabRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data (interests)...")
	var finalErr error

	added, err := interestRepo.EnsureNames(ctx, Interests)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating interest vocabulary")
		finalErr = errors.Join(finalErr, err)
	} else if added > 0 {
		lgr.Info().Int64("added", added).Msg("Interest vocabulary extended")
	}

	if demoPassword == "" {
		lgr.Info().Msg("Default data check/creation finished.")
		return finalErr
	}

	// --- Demo professor and lab --- //
	prof, err := userRepo.GetByEmail(ctx, demoEmail)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		hash, hashErr := auth.HashPassword(demoPassword)
		if hashErr != nil {
			lgr.Error().Err(hashErr).Msg("Error hashing demo password")
			return errors.Join(finalErr, hashErr)
		}
		now := time.Now()
		prof = &appModels.User{
			Name:          "Demo Professor",
			Username:      demoUsername,
			Email:         demoEmail,
			Password:      hash,
			ProfilePic:    appModels.DefaultProfilePic,
			UserType:      appModels.UserTypeProfessor,
			EmailVerified: true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := userRepo.Create(ctx, prof); err != nil {
			lgr.Error().Err(err).Msg("Error creating demo professor")
			return errors.Join(finalErr, err)
		}
		lgr.Info().Int64("userID", prof.ID).Msg("Demo professor created")
	case err != nil:
		lgr.Error().Err(err).Msg("Error checking if demo professor exists")
		return errors.Join(finalErr, err)
	default:
		lgr.Info().Msg("Demo professor already exists, skipping creation")
	}

	labs, err := labRepo.ListForMember(ctx, prof.ID)
	if err != nil {
		lgr.Error().Err(err).Msg("Error listing demo professor labs")
		return errors.Join(finalErr, err)
	}
	if len(labs) == 0 {
		lab := &appModels.Lab{
			Name:        demoLabName,
			Description: "A sandbox lab for trying out posts, follows and memberships.",
			CreatedBy:   prof.ID,
		}
		if err := labRepo.Create(ctx, lab); err != nil {
			lgr.Error().Err(err).Msg("Error creating demo lab")
			finalErr = errors.Join(finalErr, err)
		} else {
			lgr.Info().Int64("labID", lab.ID).Msg("Demo lab created")
		}
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}
