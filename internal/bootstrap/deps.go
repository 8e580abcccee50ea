package bootstrap

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	inhttp "assistant_server/adapter/in/http"
	"assistant_server/adapter/out/provider"
	"assistant_server/config"
	"assistant_server/core/agent/llm"
	"assistant_server/core/port/out"
	"assistant_server/core/service/auth"
	"assistant_server/core/service/chat"
	"assistant_server/core/service/email"
	"assistant_server/core/session"
	"assistant_server/infra/middleware"
	"assistant_server/pkg/httputil"
	"assistant_server/pkg/logger"
)

// Dependencies holds every wired component of the server.
type Dependencies struct {
	Redis *redis.Client

	Sessions out.SessionStore
	States   out.OAuthStateStore

	LLM   *llm.Client
	Auth  *auth.Service
	Email *email.Service
	Chat  *chat.Dispatcher

	GmailAdapter *provider.GmailAdapter
	Resolver     *inhttp.MailboxResolver
	SessionAuth  fiber.Handler
}

// NewDependencies wires the dependency graph. The returned cleanup stops
// background work and closes connections.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{}
	var cleanups []func()

	// Session and OAuth state stores: Redis when configured, in-memory
	// otherwise.
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		deps.Redis = client
		deps.Sessions = session.NewRedisStore(client, sessionTTL)
		deps.States = session.NewRedisStateStore(client)
		cleanups = append(cleanups, func() { _ = client.Close() })
		logger.Info("Using Redis session store")
	} else {
		store := session.NewMemoryStoreWithTTL(sessionTTL)
		deps.Sessions = store
		deps.States = session.NewMemoryStateStore()
		cleanups = append(cleanups, store.Stop)
		logger.Info("Using in-memory session store")
	}

	// Language model client. Groq routes through its OpenAI-compatible
	// endpoint when a Groq key is present.
	deps.LLM = llm.NewClientWithConfig(llm.ClientConfig{
		APIKey:     cfg.LLMAPIKey(),
		BaseURL:    cfg.LLMBaseURL(),
		Model:      cfg.ResolvedLLMModel(),
		Timeout:    time.Duration(cfg.LLMTimeoutSec) * time.Second,
		HTTPClient: httputil.NewClient(httputil.LLMClientConfig()),
	})
	logger.Info("LLM client initialized with model: %s", cfg.ResolvedLLMModel())

	deps.Auth = auth.NewService(auth.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}, deps.Sessions, deps.States, httputil.NewClient(httputil.DefaultClientConfig()))

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Endpoint:     google.Endpoint,
	}
	deps.GmailAdapter = provider.NewGmailAdapter(oauthConfig, time.Duration(cfg.MailboxTimeoutSec)*time.Second)

	deps.Email = email.NewService(deps.LLM, cfg.SummaryWorkers)
	deps.Chat = chat.NewDispatcher(chat.NewClassifier(deps.LLM), deps.LLM, deps.Email)

	deps.Resolver = inhttp.NewMailboxResolver(deps.Auth, deps.GmailAdapter)
	deps.SessionAuth = middleware.SessionAuth(deps.Sessions)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return deps, cleanup, nil
}
