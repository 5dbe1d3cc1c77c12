package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"notification_feed/internal/config"
	"notification_feed/internal/fetcher"
	"notification_feed/internal/logger"
	"notification_feed/internal/models"
	"notification_feed/internal/pagedlist"
	"notification_feed/internal/queue"
	"notification_feed/internal/session"
)

const alarmScreen = "alarm"

func usage() {
	fmt.Fprint(os.Stderr, `Usage:
  alarms [--config path] [--session id]          browse notifications
  alarms publish [--config path] --message M --link L
                                                 enqueue a notification event
`)
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) > 1 && os.Args[1] == "publish" {
		if err := runPublish(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "publish:", err)
			os.Exit(1)
		}
		return
	}

	fs := flag.NewFlagSet("alarms", flag.ExitOnError)
	fs.Usage = usage
	configPath := fs.String("config", "", "path to the JSON config file")
	sessionID := fs.String("session", os.Getenv("ALARMS_SESSION"), "session id; a new one is generated when empty")
	fs.Parse(os.Args[1:])

	if err := runBrowse(*configPath, *sessionID); err != nil {
		fmt.Fprintln(os.Stderr, "alarms:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel)
	// Keep log lines out of the list on stdout.
	logger.SetOutput(os.Stderr)
	return cfg, nil
}

func visitStore(cfg *config.Config, sessionID string) (session.VisitStore, func()) {
	if cfg.Redis.Addr == "" {
		return session.NewMemoryStore(), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	return session.NewRedisStore(client, sessionID, cfg.Redis.TTL()), func() { client.Close() }
}

func runBrowse(configPath, sessionID string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := visitStore(cfg, sessionID)
	defer closeStore()

	client := fetcher.NewClient(cfg.Client.BaseURL, cfg.Client.PageSize, cfg.Client.Timeout())
	v := &view{out: os.Stdout}

	list := pagedlist.New(client,
		pagedlist.WithThrottle(cfg.Client.Throttle()),
		pagedlist.WithFetchTimeout(cfg.Client.Timeout()),
		pagedlist.WithLogger(logger.Component("alarms").WithField("session", sessionID)),
		pagedlist.WithErrorHandler(func(err error) {
			fmt.Fprintln(os.Stderr, "서버 에러가 발생했습니다. 잠시 후 다시 시도해주세요.", err)
		}),
	)
	defer list.Close()

	v.header()
	v.placeholders()
	if err := list.Initialize(); err != nil {
		return err
	}

	skeleton := session.NewSkeleton(store, cfg.Client.SkeletonDelay())
	if err := skeleton.Hold(ctx, alarmScreen); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.WithError(err).Warn("Skeleton flag unavailable")
	}
	list.Wait()
	if ctx.Err() != nil {
		return nil
	}

	v.appendNew(list.Items())
	v.footer(list.State())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handleCommand(ctx, list, client, v, strings.Fields(line)); quit {
				return nil
			}
		}
	}
}

func handleCommand(ctx context.Context, list *pagedlist.Controller, client *fetcher.Client, v *view, args []string) bool {
	if len(args) == 0 || args[0] == "more" {
		t := list.OnScrollNearEnd()
		if t != pagedlist.TriggerFetched {
			v.suppressed(t)
			return false
		}
		v.placeholders()
		list.Wait()
		v.appendNew(list.Items())
		v.footer(list.State())
		return false
	}

	switch args[0] {
	case "quit", "q", "exit":
		return true
	case "list":
		v.redraw(list.Items())
		v.footer(list.State())
	case "open":
		if len(args) != 2 {
			fmt.Fprintln(v.out, "usage: open <id>")
			return false
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			fmt.Fprintln(v.out, "invalid id:", args[1])
			return false
		}
		openNotification(ctx, list, client, v, id)
	default:
		fmt.Fprintln(v.out, "unknown command:", args[0])
	}
	return false
}

// openNotification deletes the notification on the server and follows its link.
func openNotification(ctx context.Context, list *pagedlist.Controller, client *fetcher.Client, v *view, id int64) {
	n, ok := list.Lookup(id)
	if !ok {
		fmt.Fprintln(v.out, "no such notification:", id)
		return
	}

	if err := list.Dismiss(ctx, client, id); err != nil {
		fmt.Fprintln(os.Stderr, "서버 에러가 발생했습니다. 잠시 후 다시 시도해주세요.", err)
		return
	}
	fmt.Fprintf(v.out, "→ %s\n", n.Link)
	v.redraw(list.Items())
	v.footer(list.State())
}

func runPublish(args []string) error {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the JSON config file")
	message := fs.String("message", "", "notification text")
	link := fs.String("link", "", "link opened by the notification")
	fs.Parse(args)

	if *message == "" || *link == "" {
		usage()
		return errors.New("--message and --link are required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.RabbitMQ.URL == "" {
		return errors.New("rabbitmq url is not configured")
	}

	producer, err := queue.NewProducer(cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return producer.PublishJSON(ctx, cfg.RabbitMQ.Queue, models.NotificationEvent{
		Message:   *message,
		Link:      *link,
		CreatedAt: time.Now(),
	})
}
