package main

import (
	"encoding/json"
	"log"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/websocket"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/data"
)

func (a *App) handleAppWs(c echo.Context) error {
	websocket.Handler(func(ws *websocket.Conn) {
		// Add client to the map
		a.clientsMu.Lock()
		a.clients[ws] = struct{}{}
		a.clientsMu.Unlock()

		defer func() {
			a.clientsMu.Lock()
			delete(a.clients, ws)
			a.clientsMu.Unlock()
		}()

		// Send initial info
		// only login and expiry date
		expiryDate := ""
		if a.twitchDataStruct.login != "" {
			expiryDate = a.twitchDataStruct.expiresDate.Local().Format(data.TWITCH_SERVER_DATE_LAYOUT)
		}

		infoOnConnect, _ := json.Marshal(echo.Map{
			"type":             "TWITCH_INFO",
			"login":            a.twitchDataStruct.login,
			"expiry_date":      expiryDate,
			"stream_online":    a.streamOnline,
			"music_authorized": a.yandex.IsAuthorized(),
		})
		err := websocket.Message.Send(ws, string(infoOnConnect))
		if err != nil {
			// conn already closed
			return
		}

		queueOnConnect, _ := json.Marshal(a.queuePayload())
		if err := websocket.Message.Send(ws, string(queueOnConnect)); err != nil {
			return
		}

		// Keep connection alive and handle any incoming messages
		for {
			msg := ""
			err := websocket.Message.Receive(ws, &msg)
			if err != nil {
				// This break marks the ws closure
				break
			}
			// We don't handle incoming messages from frontend ever
		}
	}).ServeHTTP(c.Response(), c.Request())
	return nil
}

// handleClientsBroadcast fans messages out to every control panel tab.
func (a *App) handleClientsBroadcast() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case msg := <-a.clientsBroadcast:
			a.clientsMu.Lock()
			for ws := range a.clients {
				if err := websocket.Message.Send(ws, msg); err != nil {
					delete(a.clients, ws)
				}
			}
			a.clientsMu.Unlock()
		}
	}
}

func (a *App) queuePayload() echo.Map {
	return echo.Map{
		"type":      "QUEUE_CHANGED",
		"now":       a.player.NowPlaying(),
		"state":     a.player.State(),
		"volume":    a.player.Volume(),
		"auto_wave": a.player.AutoWave(),
		"items":     a.player.QueueSnapshot(),
	}
}

func (a *App) broadcastQueue() {
	j, err := json.Marshal(a.queuePayload())
	if err != nil {
		log.Println("Failed to marshal queue payload:", err)
		return
	}
	select {
	case a.clientsBroadcast <- string(j):
	default:
		// drop when backed up, the next update carries full state
	}
}

func (a *App) broadcastMessage(text string) {
	j, _ := json.Marshal(echo.Map{
		"type": "MESSAGE",
		"text": text,
	})
	select {
	case a.clientsBroadcast <- string(j):
	default:
	}
}
