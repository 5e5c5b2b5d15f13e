package appservices

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joeyak/go-twitch-eventsub/v3"
	"github.com/nicklaw5/helix/v2"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/data"
)

// TwitchEventSubService keeps one EventSub websocket session alive and
// re-subscribes on every welcome, so chat events survive Twitch-side
// reconnects.
type TwitchEventSubService struct {
	stopChan      chan struct{}
	client        *twitch.Client
	helixMain     *helix.Client
	broadcasterID string
	userID        string
	subscriptions []twitch.EventSubscription
	log           *log.Logger
	msgChan       chan struct{}
	rcvChan       chan error
}

var _ appService[struct{}, error] = (*TwitchEventSubService)(nil)

func NewTwitchEventSub(helixMain *helix.Client, broadcasterID, userID string, subscriptions []twitch.EventSubscription) *TwitchEventSubService {
	return &TwitchEventSubService{
		stopChan:      make(chan struct{}, 1),
		client:        twitch.NewClient(),
		helixMain:     helixMain,
		broadcasterID: broadcasterID,
		userID:        userID,
		subscriptions: subscriptions,
		log:           log.New(os.Stderr, "TWITCH_ES ", log.Ldate|log.Ltime),
		msgChan:       make(chan struct{}),
		rcvChan:       make(chan error, 1),
	}
}

// Client exposes the underlying eventsub client so handlers can be
// attached before StartCtx.
func (s *TwitchEventSubService) Client() *twitch.Client {
	return s.client
}

func (s *TwitchEventSubService) StartCtx(ctx context.Context) error {
	s.client.OnWelcome(func(message twitch.WelcomeMessage) {
		sessionID := message.Payload.Session.ID
		token := s.helixMain.GetUserAccessToken()
		ok := 0
		for _, sub := range s.subscriptions {
			condition := map[string]string{"broadcaster_user_id": s.broadcasterID}
			if sub == twitch.SubChannelChatMessage {
				condition["user_id"] = s.userID
			}
			_, err := twitch.SubscribeEvent(twitch.SubscribeRequest{
				SessionID:   sessionID,
				ClientID:    data.GetTwitchClientID(),
				AccessToken: token,
				Event:       sub,
				Condition:   condition,
			})
			if err != nil {
				s.log.Printf("failed to subscribe to %s: %v", sub, err)
				continue
			}
			ok++
		}
		s.log.Printf("eventsub session established, %d/%d subscriptions", ok, len(s.subscriptions))
	})

	go func() {
		for {
			err := s.client.ConnectWithContext(ctx)
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			default:
			}
			s.log.Println("eventsub connection closed:", err)
			s.log.Println("reconnecting in 5s...")
			time.Sleep(5 * time.Second)
		}
	}()
	return nil
}

func (s *TwitchEventSubService) Stop() error {
	s.log.Println("Twitch EventSub service stopping...")
	close(s.stopChan)
	return s.client.Close()
}

func (s *TwitchEventSubService) MsgChan() chan struct{} {
	return s.msgChan
}

func (s *TwitchEventSubService) RcvChan() chan error {
	return s.rcvChan
}

func (s *TwitchEventSubService) Log() *log.Logger {
	return s.log
}
