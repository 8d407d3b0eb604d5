package internal

import "time"

// Session is the client-side view of an authenticated eldorado session.
// It is what gets persisted between runs and cleared on logout.
type Session struct {
	Login        string    `json:"login"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Levels       []string  `json:"levels"`       // user levels granted by the server (CLIENT, STAFF, ADMIN)
	ActiveLevel  string    `json:"active_level"` // locally selected level, never sent as a mutation
	Expiration   time.Time `json:"expiration"`   // decoded from the access token at save time, for display

	// VersionTags holds the last ETag observed per open edit flow,
	// keyed by resource identity ("sector/<id>", "account/self", ...).
	VersionTags map[string]string `json:"version_tags,omitempty"`
}

// TokenPair is what the login and refresh endpoints return.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Account mirrors the authenticated account payload (/accounts/self).
type Account struct {
	ID         string      `json:"id"`
	Login      string      `json:"login"`
	Name       string      `json:"name"`
	Lastname   string      `json:"lastname"`
	Email      string      `json:"email"`
	Language   string      `json:"language"`
	Blocked    bool        `json:"blocked"`
	Active     bool        `json:"active"`
	UserLevels []UserLevel `json:"userLevelsDto"`
}

// UserLevel is one role grant attached to an account.
type UserLevel struct {
	ID       string `json:"id"`
	RoleName string `json:"roleName"`
}

// Sector is one parking sector, edited under optimistic locking.
type Sector struct {
	ID        string `json:"id"`
	ParkingID string `json:"parkingId"`
	Name      string `json:"name"`
	Type      string `json:"type"` // UNCOVERED, COVERED, UNDERGROUND
	MaxPlaces int    `json:"maxPlaces"`
	Weight    int    `json:"weight"`
}

// Reservation is one row of /reservations/active/self.
type Reservation struct {
	ID         string    `json:"id"`
	City       string    `json:"city"`
	Street     string    `json:"street"`
	SectorName string    `json:"sectorName"`
	BeginTime  time.Time `json:"beginTime"`
	EndingTime time.Time `json:"endingTime"`
}
