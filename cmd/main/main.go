package main

import (
	"context"
	"embed"
	"log"
	"os/exec"
	"runtime"
	"sync"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lrstanley/go-ytdlp"
	"github.com/nicklaw5/helix/v2"
	"golang.org/x/net/websocket"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/appservices"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/browserplayer"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/controlchannel"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/data"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/databaseconn"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/localaudio"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/player"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/resolve"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/settings"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/yandexmusic"
)

const cacheMaxAge = 24 * time.Hour

func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatalln(err)
	}
	log.Fatalln(app.Run())
}

type twitchData struct {
	accessToken     string
	login           string
	userID          string
	expiresDate     time.Time
	isAuthenticated bool
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	store    *settings.Store
	yandex   *yandexmusic.Client
	resolver *resolve.Resolver
	player   *player.Player
	bridge   *controlchannel.Bridge

	helix            *helix.Client
	twitchWSService  *appservices.TwitchEventSubService
	twitchDataStruct twitchData
	streamOnline     bool

	clients          map[*websocket.Conn]struct{}
	clientsMu        sync.Mutex
	clientsBroadcast chan string
}

func NewApp() (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	if err := databaseconn.Migrate(); err != nil {
		cancel()
		return nil, err
	}

	helixClient, err := helix.NewClient(&helix.Options{
		ClientID: data.GetTwitchClientID(),
	})
	if err != nil {
		cancel()
		return nil, err
	}

	a := &App{
		ctx:              ctx,
		cancel:           cancel,
		store:            settings.NewStore(),
		yandex:           yandexmusic.New("."),
		helix:            helixClient,
		clients:          map[*websocket.Conn]struct{}{},
		clientsBroadcast: make(chan string, 16),
	}
	a.resolver = resolve.New(a.yandex)

	volume, autoWave := a.loadSqliteSettings()

	backends := map[player.Source]player.Backend{}
	a.player = player.NewPlayer(
		player.NewQueue(),
		backends,
		func(n int) []player.SongRequest { return a.resolver.WaveSongs(a.ctx, n) },
		player.Options{Volume: volume, AutoWave: autoWave},
		player.Callbacks{
			QueueChanged:    a.broadcastQueue,
			Message:         a.broadcastMessage,
			VolumeChanged:   func(v int) { a.store.SetPlayerVolume(a.ctx, v) },
			AutoWaveChanged: func(on bool) { a.store.SetAutoWave(a.ctx, on) },
		},
	)
	a.bridge = controlchannel.NewBridge(a.player.Events(), a.yandex.CacheDir())
	backends[player.SourceYouTube] = browserplayer.New(a.bridge, a.player.Events(), volume)
	backends[player.SourceYandex] = localaudio.New(ctx, localaudio.NewSpeaker(), a.yandex, a.bridge, a.player.Events(), volume)

	return a, nil
}

//go:embed build/*
var staticControlPanelFS embed.FS

func (a *App) Run() error {
	log.Println("App is running on " + data.GetListenAddr() + "...")

	defer a.cancel()

	// yt-dlp is fetched in the background; the resolver falls through to
	// the native strategies until it lands.
	go func() {
		if _, err := ytdlp.Install(a.ctx, nil); err != nil {
			log.Printf("Warning: yt-dlp install failed, using fallback lookups only: %v", err)
		}
	}()

	if n := a.yandex.CleanCache(cacheMaxAge); n > 0 {
		log.Printf("Evicted %d stale downloads", n)
	}

	go a.player.Run(a.ctx)
	go a.handleClientsBroadcast()

	if a.twitchDataStruct.isAuthenticated {
		a.startTwitchServices()
	}

	// Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.StaticFS("/", echo.MustSubFS(staticControlPanelFS, "build"))

	playerGroup := e.Group("/player")
	a.bridge.RegisterRoutes(playerGroup)

	apiV1 := e.Group("/api/v1")
	apiV1.POST("/twitch-oauth", a.processTwitchOAuth)
	apiV1.POST("/yandex-token", a.handleYandexToken)
	apiV1.GET("/queue", a.handleGetQueue)
	apiV1.POST("/queue", a.handleAddToQueue)
	apiV1.DELETE("/queue", a.handleClearQueue)
	apiV1.DELETE("/queue/:index", a.handleRemoveFromQueue)
	apiV1.POST("/queue/shuffle", a.handleShuffleQueue)
	apiV1.GET("/song", a.handleGetSong)
	apiV1.POST("/next", a.handleSkip)
	apiV1.POST("/toggle-play", a.handleTogglePlay)
	apiV1.GET("/volume", a.handleGetVolume)
	apiV1.POST("/volume", a.handleSetVolume)
	apiV1.POST("/wave", a.handleAddWave)
	apiV1.POST("/wave/toggle", a.handleToggleWave)
	apiV1.GET("/ws", a.handleAppWs)

	openBrowser("http://" + data.GetListenAddr() + "/player.html")

	// Start server with graceful shutdown
	go func() {
		<-a.ctx.Done()
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	return e.Start(data.GetListenAddr())
}

func (a *App) startTwitchServices() {
	if a.twitchWSService != nil {
		return
	}
	a.twitchWSService = appservices.NewTwitchEventSub(
		a.helix,
		a.twitchDataStruct.userID,
		a.twitchDataStruct.userID,
		chatSubscriptions(),
	)
	a.SetSubscriptionHandlers()
	if err := a.twitchWSService.StartCtx(a.ctx); err != nil {
		log.Printf("Failed to start Twitch EventSub service: %v", err)
	}

	resp, err := a.helix.GetStreams(&helix.StreamsParams{
		UserLogins: []string{a.twitchDataStruct.login},
	})
	if err == nil && len(resp.Data.Streams) > 0 && resp.Data.Streams[0].ID != "" {
		a.streamOnline = true
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string
	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, url)
	exec.Command(cmd, args...).Start()
}
