package config

import (
	"slices"
	"time"
)

const (
	// Chat
	RoomIDSeparator    = "_"
	MaxMessageLength   = 1000
	UnknownDisplayName = "Unknown"
	RoomTxMaxAttempts  = 5
	RoomTxBackoff      = 20 * time.Millisecond

	// Posts
	MinDescriptionLength = 10
	OtherGame            = "Other"
	AllGames             = "All Games"
	AllPlatforms         = "All Platforms"

	// Games
	PopularGamesCategory  = "Popular Games"
	UserSubmittedCategory = "User Submitted"
	SystemSubmitter       = "system"

	// Roles
	RoleUser  = "user"
	RoleAdmin = "admin"

	// Accounts
	MinPasswordLength = 6
)

// Games is the predefined catalogue offered when creating a post.
// "Other" lets the author submit a custom title.
var Games = []string{
	"League of Legends",
	"Valorant",
	"CS2",
	"Dota 2",
	"Apex Legends",
	"Overwatch 2",
	"Fortnite",
	"Call of Duty",
	"Rainbow Six Siege",
	"Rocket League",
	"Minecraft",
	"Among Us",
	"Fall Guys",
	"PUBG",
	"Warzone",
	"FIFA",
	"NBA 2K",
	"Grand Theft Auto V",
	"Rust",
	"Destiny 2",
	"World of Warcraft",
	"Final Fantasy XIV",
	"Genshin Impact",
	OtherGame,
}

var Platforms = []string{
	"PC",
	"PlayStation 5",
	"PlayStation 4",
	"Xbox Series X/S",
	"Xbox One",
	"Nintendo Switch",
	"Mobile",
	"Cross-platform",
}

// IsKnownPlatform reports whether p is one of Platforms.
func IsKnownPlatform(p string) bool {
	return slices.Contains(Platforms, p)
}
