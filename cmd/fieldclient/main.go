package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"tracker-service/internal/geofence"
	"tracker-service/internal/middleware"
	"tracker-service/internal/models"
	"tracker-service/internal/syncclient"
)

// staticSource reports a fixed position given on the command line.
type staticSource struct {
	pos syncclient.Position
	ok  bool
}

func (s staticSource) CurrentPosition(context.Context) (syncclient.Position, error) {
	if !s.ok {
		return syncclient.Position{}, errors.New("no position configured")
	}
	return s.pos, nil
}

const devTokenTTL = 12 * time.Hour

// resolveToken prefers an explicit token and otherwise signs one for userID.
func resolveToken(token, secret string, userID int) (string, error) {
	if token != "" || secret == "" {
		return token, nil
	}
	return middleware.GenerateToken(secret, userID, devTokenTTL)
}

func main() {
	serverAddr := flag.String("addr", "localhost:8080", "tracker service address")
	apiAddr := flag.String("api", "http://localhost:8080", "tracker REST base url")
	userID := flag.Int("user", 0, "user id to authenticate as")
	token := flag.String("token", "", "bearer token for the REST fallback")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "sign a development token with this secret when -token is empty")
	admin := flag.Bool("admin", false, "enable geofence movement alerts")
	partner := flag.Int("partner", 0, "only print chat from this user and yourself")
	lat := flag.Float64("lat", 0, "latitude to report")
	lon := flag.Float64("lon", 0, "longitude to report")
	track := flag.Duration("track", 0, "report -lat/-lon on this interval (0 disables)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	if *userID <= 0 {
		logger.Fatal().Msg("-user is required")
	}

	bearer, err := resolveToken(*token, *secret, *userID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to sign development token")
	}
	*token = bearer

	u := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/ws"}
	header := http.Header{}
	if *token != "" {
		header.Set("Authorization", "Bearer "+*token)
	}

	store := syncclient.NewStore(syncclient.Config{URL: u.String(), Header: header, Logger: logger})
	monitor := geofence.NewMonitor()
	monitor.SetEnabled(*admin)

	store.OnError(func(text string) {
		fmt.Printf("! %s\n", text)
	})
	store.OnMessage(func(msg models.ChatMessage) {
		if len(syncclient.FilterConversation([]models.ChatMessage{msg}, *userID, *partner)) == 0 {
			return
		}
		prefix := fmt.Sprintf("[%d]", msg.SenderID)
		if msg.IsSystemMessage {
			prefix = "[system]"
		}
		fmt.Printf("%s %s %s\n", msg.Timestamp.Local().Format(time.Kitchen), prefix, msg.Content)
	})
	store.OnStatus(func(s models.UserStatus) {
		fmt.Printf("* user %d is %s\n", s.UserID, s.Status)
	})
	store.OnLocation(func(loc models.LocationEvent) {
		if alert, ok := monitor.Observe(loc); ok {
			fmt.Printf("!! %s\n", alert.Message)
		}
	})

	logger.Info().Str("url", u.String()).Int("user_id", *userID).Msg("connecting")
	if err := store.Connect(*userID); err != nil {
		logger.Warn().Err(err).Msg("initial connect failed, retrying in background")
	}
	defer store.Disconnect()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *track > 0 {
		source := staticSource{pos: syncclient.Position{Latitude: *lat, Longitude: *lon}, ok: true}
		tracker := syncclient.NewTracker(*userID, source, store, syncclient.NewHTTPFallback(*apiAddr, *token), *track, logger)
		tracker.OnError(func(err error) { fmt.Printf("! location: %v\n", err) })
		go tracker.Run(ctx)
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if !store.SendMessage(line) {
				fmt.Println("! not connected, message not sent")
			}
		}
	}
}
