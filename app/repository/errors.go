package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateSlug is returned when a unique slug index rejects a write.
	ErrDuplicateSlug = errors.New("slug already exists")
	// ErrDuplicateCode is returned when a region code is already taken.
	ErrDuplicateCode = errors.New("region code already exists")
	// ErrDuplicateKey is returned for any other unique index violation.
	ErrDuplicateKey = errors.New("duplicate key")
)

const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a unique index violation and, when the
// driver says so, the name of the offending key.
func duplicateKey(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		// Duplicate entry 'x' for key 'regions.idx_regions_slug'
		if i := strings.LastIndex(myErr.Message, "for key "); i >= 0 {
			return strings.Trim(myErr.Message[i+len("for key "):], "'`"), true
		}
		return "", true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}

// translateDuplicate maps a unique key violation onto one of the sentinel
// errors above. Other errors are returned unchanged.
func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	key, ok := duplicateKey(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(key, "slug"):
		return ErrDuplicateSlug
	case strings.Contains(key, "regions_code"), strings.HasSuffix(key, "code") && strings.Contains(key, "region"):
		return ErrDuplicateCode
	default:
		return ErrDuplicateKey
	}
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
