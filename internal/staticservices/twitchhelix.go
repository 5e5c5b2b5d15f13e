package staticservices

import (
	"errors"
	"strings"

	"github.com/nicklaw5/helix/v2"
)

// TwitchHelixService wraps an authenticated helix client and caches the
// identity of the token's owner.
type TwitchHelixService struct {
	nickname string
	userID   string
	client   *helix.Client
}

func NewTwitchHelixService(client *helix.Client) (*TwitchHelixService, error) {
	s := &TwitchHelixService{client: client}
	if err := s.TestConnection(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TwitchHelixService) Client() *helix.Client {
	return s.client
}

func (s *TwitchHelixService) GetNickname() string {
	return s.nickname
}

func (s *TwitchHelixService) GetUserID() string {
	return s.userID
}

// TestConnection resolves the token owner via GetUsers with no params,
// which returns the authenticated user.
func (s *TwitchHelixService) TestConnection() error {
	r, err := s.client.GetUsers(&helix.UsersParams{})
	if err != nil {
		return err
	}
	if len(r.Data.Users) == 0 {
		return errNoUser
	}
	s.nickname = strings.ToLower(r.Data.Users[0].Login)
	s.userID = r.Data.Users[0].ID
	return nil
}

var errNoUser = errors.New("twitch returned no user for this token")
