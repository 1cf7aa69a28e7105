package service

import (
	"errors"

	"gamelibrary/internal/apperror"

	"gorm.io/gorm"
)

// notFoundOr maps a missing row to NotFound and anything else to Internal.
func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.New(apperror.NotFound, notFound)
	}
	return apperror.Internalf(internal, err)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
