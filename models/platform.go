package models

import (
	"database/sql/driver"
	"fmt"
)

// Platform represents an external social network with its own publishing API
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformX        Platform = "x"
)

// String returns the string representation of the platform
func (p Platform) String() string {
	return string(p)
}

// Valid checks if the platform is valid
func (p Platform) Valid() bool {
	switch p {
	case PlatformLinkedIn, PlatformX:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for Platform
func (p *Platform) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*p = Platform(v)
	case []byte:
		*p = Platform(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Platform", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for Platform
func (p Platform) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid Platform: %s", p)
	}
	return string(p), nil
}

// AllPlatforms returns every supported platform
func AllPlatforms() []Platform {
	return []Platform{PlatformLinkedIn, PlatformX}
}
