// Package settings persists the small key/value state that must survive
// restarts: player volume, wave auto-fill flag and auth tokens.
package settings

//lint:file-ignore ST1001 Dot imports by jet
import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/veslov/wave-desktop-twitch-song-requests/gen/model"
	. "github.com/veslov/wave-desktop-twitch-song-requests/gen/table"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/data"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/databaseconn"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/player"

	. "github.com/go-jet/jet/v2/sqlite"
	"github.com/go-jet/jet/v2/qrm"
)

const defaultVolume = 50

// Store reads and writes the settings table. Connections are opened per
// call, the way the rest of the app talks to sqlite.
type Store struct {
	log *log.Logger
}

func NewStore() *Store {
	return &Store{log: log.New(os.Stderr, "SETTINGS ", log.Ldate|log.Ltime)}
}

// Get returns the stored value, or "" when the key was never written.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	db, err := databaseconn.NewDBConnection()
	if err != nil {
		return "", err
	}
	defer db.Close()

	results := []model.Settings{}
	stmt := SELECT(Settings.AllColumns).FROM(Settings).WHERE(Settings.Key.EQ(String(key))).LIMIT(1)
	err = stmt.QueryContext(ctx, db, &results)
	if err != nil && err != qrm.ErrNoRows {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].Value, nil
}

// Set upserts one key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	db, err := databaseconn.NewDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	setting := model.Settings{Key: key, Value: value}
	stmt := Settings.INSERT(Settings.AllColumns).MODEL(setting).ON_CONFLICT(Settings.Key).DO_UPDATE(SET(
		Settings.Value.SET(String(value)),
	))
	_, err = stmt.ExecContext(ctx, db)
	return err
}

func (s *Store) PlayerVolume(ctx context.Context) int {
	v, err := s.Get(ctx, data.DB_KEY_PLAYER_VOLUME)
	if err != nil || v == "" {
		return defaultVolume
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVolume
	}
	return player.ClampVolume(n)
}

func (s *Store) SetPlayerVolume(ctx context.Context, volume int) {
	if err := s.Set(ctx, data.DB_KEY_PLAYER_VOLUME, strconv.Itoa(volume)); err != nil {
		s.log.Println("failed to save volume:", err)
	}
}

func (s *Store) AutoWave(ctx context.Context) bool {
	v, err := s.Get(ctx, data.DB_KEY_AUTO_WAVE)
	if err != nil {
		return false
	}
	return v == "1" || v == "true"
}

func (s *Store) SetAutoWave(ctx context.Context, on bool) {
	v := "0"
	if on {
		v = "1"
	}
	if err := s.Set(ctx, data.DB_KEY_AUTO_WAVE, v); err != nil {
		s.log.Println("failed to save auto-wave flag:", err)
	}
}

// RecordSongRequest appends to the request history. Repeats of the same
// song update the requester and timestamp.
func (s *Store) RecordSongRequest(ctx context.Context, song player.SongRequest) error {
	db, err := databaseconn.NewDBConnection()
	if err != nil {
		return err
	}
	defer db.Close()

	row := model.SongRequests{
		SongID:      song.ID,
		SongTitle:   song.Title,
		Requester:   song.Requester,
		Source:      string(song.Source),
		RequestedAt: time.Now().Local().Format(data.TWITCH_SERVER_DATE_LAYOUT),
	}
	stmt := SongRequests.INSERT(SongRequests.AllColumns).MODEL(row).ON_CONFLICT(SongRequests.SongID).DO_UPDATE(SET(
		SongRequests.Requester.SET(String(row.Requester)),
		SongRequests.RequestedAt.SET(String(row.RequestedAt)),
	))
	_, err = stmt.ExecContext(ctx, db)
	return err
}
