package utils

import (
	"github.com/bwmarrin/discordgo"
)

// HasPermission reports whether the user holds the given permission in
// the channel. Administrators implicitly hold everything.
func HasPermission(s *discordgo.Session, channelID, userID string, perm int64) (bool, error) {
	perms, err := s.UserChannelPermissions(userID, channelID)
	if err != nil {
		return false, err
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	return perms&perm == perm, nil
}
