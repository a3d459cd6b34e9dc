package mysql

import (
	"errors"
	"fmt"

	"shop-service/internal/repository"

	"gorm.io/gorm"
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	}
	return err
}
