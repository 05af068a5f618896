package services

import (
	"errors"

	"github.com/mediafolio/mediafolio/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = response.NewNotFound("user not found")
	ErrTeamNotFound       = response.NewNotFound("team not found")
	ErrProjectNotFound    = response.NewNotFound("project not found")
	ErrMediaNotFound      = response.NewNotFound("media not found")
	ErrCategoryNotFound   = response.NewNotFound("category not found")
	ErrCommentNotFound    = response.NewNotFound("comment not found")
	ErrAssociationMissing = response.NewNotFound("association not found")

	ErrPermissionDenied = response.NewForbidden("you do not have permission to perform this action")
	ErrPrivatePortfolio = response.NewForbidden("portfolio is private")

	ErrAlreadyMember   = response.NewConflict("user is already a team member")
	ErrMediaAttached   = response.NewConflict("media is already attached to this project")
	ErrProjectArchived = response.NewConflict("archived projects cannot change status")
)

// isDuplicate reports a unique constraint violation. The database is opened
// with TranslateError so this is driver independent.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// notFoundOr maps gorm.ErrRecordNotFound to notFound and passes other errors through.
func notFoundOr(err error, notFound *response.AppError) error {
	if isNotFound(err) {
		return notFound
	}
	return err
}
