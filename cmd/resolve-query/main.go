package main

import (
	"context"
	"log"
	"os"

	"github.com/lrstanley/go-ytdlp"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/resolve"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/yandexmusic"
)

// Runs the resolution chain against queries from the command line, or a
// canned set when none are given. Handy for checking which strategy
// answers and what duration it reports.
func main() {
	ctx := context.Background()
	ytdlp.Install(ctx, nil)

	queries := os.Args[1:]
	if len(queries) == 0 {
		queries = []string{
			"yena nemonemo",
			"https://youtu.be/dQw4w9WgXcQ",
			"ym:dua lipa houdini",
		}
	}

	r := resolve.New(yandexmusic.New("."))
	for _, q := range queries {
		song, err := r.Resolve(ctx, q, "resolve-query")
		if err != nil {
			log.Println(q, "=>", err)
			continue
		}
		log.Println(q, "=>", song.Source, song.ID, song.Title, song.Duration)
	}
}
