// Package app wires the process together: config, storage, the message
// bus, the cron scheduler, the channel bridge, the agent loop, and the
// ops HTTP surface. Composition shape (build every collaborator, then run
// each long-lived loop as its own goroutine under one cancellable context)
// generalizes a single bot-engine wiring function into this system's
// bus/scheduler/agent pipeline.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zapista-bot/zapista-core/internal/admin"
	"github.com/zapista-bot/zapista-core/internal/agent"
	"github.com/zapista-bot/zapista-core/internal/bus"
	"github.com/zapista-bot/zapista-core/internal/channel"
	"github.com/zapista-bot/zapista-core/internal/config"
	"github.com/zapista-bot/zapista-core/internal/cron"
	"github.com/zapista-bot/zapista-core/internal/dispatch"
	"github.com/zapista-bot/zapista-core/internal/httpapi"
	"github.com/zapista-bot/zapista-core/internal/resilience"
	"github.com/zapista-bot/zapista-core/internal/session"
	"github.com/zapista-bot/zapista-core/internal/tools"
	"github.com/zapista-bot/zapista-core/internal/user"
)

// breakerFailureThreshold/breakerRecovery tune the LLM circuit breaker:
// opens after 3 consecutive failures and turns half-open 60s after the
// last failure; a success then closes it and a failure opens it again.
const (
	breakerFailureThreshold = 3
	breakerRecovery         = 60 * time.Second

	// outboundPoolWorkers bounds how many chats deliver concurrently; sized
	// generously since delivery is I/O-bound (bridge WebSocket writes).
	outboundPoolWorkers = 16
	outboundPoolQueue   = 256
)

// App holds every wired collaborator and the goroutines that drive them.
type App struct {
	cfg *config.Config
	log *logrus.Entry

	bus         *bus.MessageBus
	valkey      *bus.ValkeyClient
	scheduler   *cron.Scheduler
	bridge      *channel.Bridge
	loop        *agent.Loop
	http        *httpapi.Server
	breaker     *resilience.CircuitBreaker
	outPool     *dispatch.Pool
	users       user.Store
	sessions    *session.MemoryStore
	godmode     *admin.GodMode
	mutes       *admin.MuteLedger
	activation  *admin.Activation
	lockout     *admin.Lockout

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New builds the full application graph from cfg. It does not start any
// goroutines; call Run for that.
func New(cfg *config.Config, log *logrus.Entry) (*App, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	userStore, err := user.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}

	var valkeyClient *bus.ValkeyClient
	if cfg.Redis.Enabled {
		valkeyClient, err = bus.NewValkeyClient(bus.ValkeyConfig{URL: cfg.Redis.URL, KeyPrefix: cfg.Redis.Namespace})
		if err != nil {
			log.WithError(err).Warn("redis unavailable, falling back to in-memory bus")
			valkeyClient = nil
		}
	}
	messageBus := bus.New(valkeyClient, cfg.Redis.Namespace, log.WithField("component", "bus"))

	sessions := session.NewMemoryStore(log.WithField("component", "session"))
	confirmations := user.NewConfirmations()

	lockout := admin.NewLockout(
		filepath.Join(cfg.DataDir, "security", "god_mode_lockout.json"),
		cfg.GodMode.MaxAttempts, cfg.GodMode.LockoutMinutes,
		log.WithField("component", "godmode"),
	)
	activation := admin.NewActivation(filepath.Join(cfg.DataDir, "security", "god_mode_activation.json"))
	godmode := admin.NewGodMode(lockout, activation, cfg.GodMode.PasswordHash, log.WithField("component", "godmode"))
	mutes := admin.NewMuteLedger(filepath.Join(cfg.DataDir, "muted.json"))
	allow := channel.NewAllowList(cfg.AllowedNumbers)
	godmode.RegisterCommand("mute", muteCommand(mutes, allow))
	godmode.RegisterCommand("unmute", unmuteCommand(mutes))
	godmode.RegisterCommand("allow", allowCommand(allow))

	breaker := resilience.NewCircuitBreaker("llm", breakerFailureThreshold, breakerRecovery)

	var llm agent.Provider
	if cfg.OpenAIAPIKey != "" {
		llm = agent.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, log.WithField("component", "llm"))
	}
	scope := agent.NewScopeChecker(breaker, llm)

	toolRegistry := tools.NewRegistry()

	var scheduler *cron.Scheduler
	onJob := func(ctx context.Context, job cron.Job) (string, error) {
		if job.Payload.Kind != cron.PayloadAgentTurn || !job.Payload.Deliver {
			return "", nil
		}
		channelName, chatID := job.Owner()
		u, err := userStore.GetUser(ctx, session.Key(channelName, chatID))
		if err == nil && u != nil && u.InQuietHours(time.Now()) {
			scheduler.AddJob(cron.AddJobRequest{
				Channel:     channelName,
				ChatID:      chatID,
				Name:        job.Name,
				Schedule:    cron.Schedule{Kind: cron.KindAt, AtMs: u.NextOutsideQuietHours(time.Now()).UnixMilli()},
				Message:     job.Payload.Message,
				Deliver:     true,
				PayloadKind: cron.PayloadAgentTurn,
				Locale:      user.ResolveLanguage(u.Language, chatID),
			})
			return job.Payload.Message, nil
		}
		messageBus.PublishOutbound(ctx, bus.OutboundMessage{
			Channel: channelName,
			ChatID:  chatID,
			Content: job.Payload.Message,
			Metadata: map[string]any{
				"priority": string(bus.PriorityHigh),
				"job_id":   job.ID,
			},
		})
		if u != nil {
			_ = userStore.AppendReminderHistory(ctx, u.ID, user.HistoryDelivered, job.Payload.Message)
		}
		return job.Payload.Message, nil
	}
	scheduler = cron.New(filepath.Join(cfg.DataDir, "cron", "jobs.json"), onJob, log.WithField("component", "cron"))

	leads := func(ctx context.Context, channelName, chatID string) (int, []int) {
		u, err := userStore.GetUser(ctx, session.Key(channelName, chatID))
		if err != nil || u == nil {
			return 15 * 60, nil
		}
		lead := u.DefaultLeadSeconds
		if lead <= 0 {
			lead = 15 * 60
		}
		return lead, u.ExtraLeads()
	}
	cronTools := tools.NewCronTools(scheduler, leads)
	cronTools.Register(toolRegistry)
	listTools := tools.NewListTools(userStore)
	listTools.Register(toolRegistry)
	eventTools := tools.NewEventTools(userStore)
	eventTools.Register(toolRegistry)

	handlers := agent.NewDefaultRegistry(cfg.StrictHandlers, log.WithField("component", "handlers"))
	rateLimiter := resilience.NewRateLimiter(cfg.RateLimit.Capacity, time.Duration(cfg.RateLimit.WindowS)*time.Second)

	loop := &agent.Loop{
		Bus:           messageBus,
		RateLimit:     rateLimiter,
		Scope:         scope,
		Handlers:      handlers,
		Tools:         toolRegistry,
		Sessions:      sessions,
		Users:         userStore,
		Confirmations: confirmations,
		Scheduler:     scheduler,
		LLM:           llm,
		Breaker:       breaker,
		Log:           log.WithField("component", "agent"),
	}

	bridge := channel.NewBridge(
		cfg.Bridge, messageBus, scheduler, sessions, userStore, confirmations,
		godmode, mutes, allow, log.WithField("component", "bridge"),
	)
	messageBus.SubscribeOutbound(channel.ChannelName, bridge.Send)

	httpServer := httpapi.New(messageBus, scheduler, breaker, log.WithField("component", "httpapi"))

	outPool := dispatch.New(outboundPoolWorkers, outboundPoolQueue, log.WithField("component", "dispatch"))

	return &App{
		cfg:        cfg,
		log:        log,
		bus:        messageBus,
		valkey:     valkeyClient,
		scheduler:  scheduler,
		bridge:     bridge,
		loop:       loop,
		http:       httpServer,
		breaker:    breaker,
		outPool:    outPool,
		users:      userStore,
		sessions:   sessions,
		godmode:    godmode,
		mutes:      mutes,
		activation: activation,
		lockout:    lockout,
	}, nil
}

// Run starts every long-lived loop (bridge, scheduler, agent, dispatcher,
// HTTP) under ctx and blocks until ctx is cancelled or Stop is called.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.scheduler.Start(ctx)
	a.outPool.Start(ctx)
	a.bus.StartRedisFeeder(ctx)

	a.spawn(func() { a.bus.DispatchOutboundPooled(ctx, a.outPool) })
	a.spawn(func() { a.bridge.Run(ctx) })
	a.spawn(func() { a.loop.Run(ctx) })

	if a.cfg.HTTPAdminAddr != "" {
		a.spawn(func() {
			if err := a.http.Listen(a.cfg.HTTPAdminAddr); err != nil {
				a.log.WithError(err).Warn("httpapi server stopped")
			}
		})
	}

	<-ctx.Done()
	a.shutdown()
}

func (a *App) spawn(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// Stop requests a graceful shutdown by cancelling Run's context; it does
// not wait. Run itself shuts the loops down and waits for them to finish
// before returning.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *App) shutdown() {
	a.scheduler.Stop()
	a.outPool.Stop()
	if a.http != nil {
		_ = a.http.Shutdown()
	}
	if a.valkey != nil {
		a.valkey.Close()
	}
	a.wg.Wait()
	a.log.Info("application stopped cleanly")
}

// muteCommand implements "#mute <phone> <level>".
func muteCommand(mutes *admin.MuteLedger, allow *channel.AllowList) admin.CommandHandler {
	return func(chatID, cmd string, args []string) admin.CommandResult {
		if len(args) < 1 {
			return admin.CommandResult{Reply: "uso: #mute <numero> [nivel 1-6]"}
		}
		phone := args[0]
		if len(args) >= 2 {
			level := parseLevel(args[1])
			applied := mutes.ApplyLevel(phone, level)
			return admin.CommandResult{Reply: fmt.Sprintf("número %s mutado no nível %d", phone, applied)}
		}
		applied := mutes.ApplyNextLevel(phone)
		return admin.CommandResult{Reply: fmt.Sprintf("número %s mutado no nível %d", phone, applied)}
	}
}

func unmuteCommand(mutes *admin.MuteLedger) admin.CommandHandler {
	return func(chatID, cmd string, args []string) admin.CommandResult {
		if len(args) < 1 {
			return admin.CommandResult{Reply: "uso: #unmute <numero>"}
		}
		mutes.Unmute(args[0])
		return admin.CommandResult{Reply: fmt.Sprintf("número %s desmutado", args[0])}
	}
}

func allowCommand(allow *channel.AllowList) admin.CommandHandler {
	return func(chatID, cmd string, args []string) admin.CommandResult {
		if len(args) < 1 {
			return admin.CommandResult{Reply: "uso: #allow <numero>"}
		}
		allow.AddRuntime(args[0])
		return admin.CommandResult{Reply: fmt.Sprintf("número %s liberado", args[0])}
	}
}

func parseLevel(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 1
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 {
		return 1
	}
	return n
}
