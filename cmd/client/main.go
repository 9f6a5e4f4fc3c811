package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flags "github.com/jessevdk/go-flags"

	"realtime-srv/internal/client"
	"realtime-srv/internal/envelope"
	"realtime-srv/internal/eventrouter"
	"realtime-srv/internal/features"
	"realtime-srv/internal/subscriber"
	"realtime-srv/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, tune, err := parseOptions()
	if err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	endpoints, err := client.BuildEndpoints(opts.BaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := log.Init(log.ZapConfig{
		Level:        opts.LogLevel,
		Mode:         log.ModeDevelopment,
		Encoding:     log.EncodingConsole,
		ColorEnabled: true,
	})

	os.Exit(run(ctx, logger, opts, tune, endpoints))
}

func run(ctx context.Context, logger log.Logger, opts options, tune tuning, endpoints client.Endpoints) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := client.NewSession(opts.UserID, opts.SessionToken)
	creds := client.NewCredentialClient(nil, endpoints, session, logger)
	dialer := client.NewSSEDialer(nil, endpoints)

	router := eventrouter.New(logger)
	set := features.NewSet()
	defer set.Register(router)()
	defer router.Subscribe(eventrouter.HandlerFunc(printEnvelope))()
	go func() { _ = router.Run(ctx) }()

	sub := subscriber.New(creds, dialer, router, session, logger, tune.subscriberConfig())
	go func() {
		for {
			select {
			case authenticated := <-session.Changes():
				sub.SetAuthenticated(authenticated)
			case <-sub.Done():
				return
			}
		}
	}()
	sub.SetAuthenticated(true)

	logger.Infof(ctx, "Subscribing to %s", endpoints.StreamURL)
	err := sub.Run(ctx)
	cancel()
	// deliver what is still queued, the logout notice included
	router.Drain()

	switch {
	case errors.Is(err, subscriber.ErrLoggedOut):
		msg, _ := set.Logout.Message()
		fmt.Fprintln(os.Stderr, "Logged out:", msg)
		return 1
	case errors.Is(err, context.Canceled):
		return 0
	case err != nil:
		logger.Error(ctx, "Subscriber stopped: ", err)
		return 1
	}
	logger.Infof(ctx, "Session ended: %s", session.Reason())
	return 0
}

func printEnvelope(env envelope.Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		return
	}
	fmt.Println(string(b))
}
