// Command jp is the conversational workbench's terminal entry point: it
// wires the Configuration Resolver, the Provider Pipeline, the Conversation
// Store, and the Tool Coordinator together into a plain stdin/stdout REPL.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/jpcore/internal/config"
	"github.com/xonecas/jpcore/internal/convo"
	"github.com/xonecas/jpcore/internal/llm"
	"github.com/xonecas/jpcore/internal/mcp"
	"github.com/xonecas/jpcore/internal/provider"
	"github.com/xonecas/jpcore/internal/tool"
)

// stringSliceFlag collects repeated `-set path[op]=value` flags into the
// batch SetCLIAssignments expects.
type stringSliceFlag []string

func (s *stringSliceFlag) String() string { return strings.Join(*s, ",") }

func (s *stringSliceFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	if err := setupFileLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to setup logging: %v\n", err)
	}

	flagWorkspace := flag.String("workspace", "", "workspace root (defaults to the current directory)")
	flagConv := flag.String("c", "", "resume a conversation by ID")
	flag.StringVar(flagConv, "conversation", "", "resume a conversation by ID")
	flagContinue := flag.Bool("r", false, "resume the most recently active conversation")
	flag.BoolVar(flagContinue, "resume", false, "resume the most recently active conversation")
	flagList := flag.Bool("l", false, "list conversations and exit")
	flag.BoolVar(flagList, "list", false, "list conversations and exit")
	var flagSet stringSliceFlag
	flag.Var(&flagSet, "set", "config assignment path[op]=value (repeatable)")
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Printf("Error: failed to get working directory: %v\n", err)
		os.Exit(1)
	}
	workspaceRoot := *flagWorkspace
	if workspaceRoot == "" {
		workspaceRoot = cwd
	}

	resolver := config.NewResolver(workspaceRoot, cwd)
	if len(flagSet) > 0 {
		if err := resolver.SetCLIAssignments(flagSet); err != nil {
			fmt.Printf("Error: invalid -set assignment: %v\n", err)
			os.Exit(1)
		}
	}

	partial, _, err := resolver.Resolve()
	if err != nil {
		fmt.Printf("Error resolving config: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Decode(partial)
	if err != nil {
		fmt.Printf("Error decoding config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: invalid config: %v\n", err)
		os.Exit(1)
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		fmt.Printf("Error loading credentials: %v\n", err)
		os.Exit(1)
	}

	if watcher, err := config.NewWatcher(resolver); err != nil {
		log.Warn().Err(err).Msg("jp: config watcher unavailable")
	} else {
		defer watcher.Close()
		if err := watcher.Start(func(_ *config.Partial, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("jp: config reload failed")
				return
			}
			log.Info().Msg("jp: config changed on disk; restart to pick it up for this session")
		}); err != nil {
			log.Warn().Err(err).Msg("jp: failed to start config watcher")
		}
	}

	registry := buildRegistry(cfg, creds)
	providerName, providerCfg := resolveProvider(cfg, registry)
	prov, err := registry.Create(providerName, providerCfg.Model, provider.Options{
		Temperature: providerCfg.Temperature,
		MaxTokens:   cfg.Assistant.MaxTokens,
	})
	if err != nil {
		fmt.Printf("Error creating provider %q: %v\n", providerName, err)
		os.Exit(1)
	}
	defer prov.Close()

	dataDir, err := config.EnsureDataDir()
	if err != nil {
		fmt.Printf("Error: failed to set up data directory: %v\n", err)
		os.Exit(1)
	}

	store, err := convo.Open(filepath.Join(dataDir, "conversations"))
	if err != nil {
		fmt.Printf("Error opening conversation store: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("jp: failed to sync conversation store on exit")
		}
	}()

	if idx, err := convo.OpenIndex(filepath.Join(dataDir, "conversations", "index.db")); err != nil {
		log.Warn().Err(err).Msg("jp: secondary conversation index unavailable, listing/search degraded")
	} else {
		store.UseIndex(idx)
		defer idx.Close()
	}

	if *flagList {
		listConversations(store)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr := mcp.NewManager()
	for _, srv := range cfg.MCP.Servers {
		spec := mcp.ServerSpec{Name: srv.Name, Command: srv.Command, Args: srv.Args, Checksum: srv.Checksum}
		if err := mgr.Connect(ctx, spec); err != nil {
			fmt.Printf("Warning: failed to connect MCP server %q: %v\n", srv.Name, err)
			continue
		}
	}

	mcpProxy := mcp.NewProxy(mgr)
	defer mcpProxy.Close()
	if err := mcpProxy.Initialize(ctx); err != nil {
		log.Warn().Err(err).Msg("jp: mcp initialize failed")
	}

	toolRegistry := tool.NewRegistry(mcpProxy)
	toolRegistry.RegisterBuiltin(tool.NewDescribeTools(toolRegistry))

	describedTools, err := toolRegistry.Describe(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("jp: failed to describe tools, continuing without tool schemas")
	}

	inquirer := NewCLIInquirer(bufio.NewReader(os.Stdin))
	coordinator := tool.NewCoordinator(toolRegistry, store, cfg.Tool, inquirer)
	pipeline := llm.NewPipeline(prov)

	toolChoice, err := tool.ParseChoice(cfg.Tool.ChoiceOrDefault())
	if err != nil {
		log.Warn().Err(err).Msg("jp: invalid tool.choice, falling back to auto")
		toolChoice = tool.Auto
	}

	convID, err := resolveConversation(store, *flagConv, *flagContinue)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	sess := &session{
		store:       store,
		convID:      convID,
		pipeline:    pipeline,
		coordinator: coordinator,
		tools:       toProviderTools(describedTools),
		toolChoice:  toProviderToolChoice(toolChoice),
	}

	if err := sess.run(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConversation picks the conversation the session should append to:
// an explicitly named one, the most recently active one, or a freshly
// created one.
func resolveConversation(store *convo.Store, explicitID string, resume bool) (string, error) {
	switch {
	case explicitID != "":
		if _, err := store.GetMetadata(explicitID); err != nil {
			return "", fmt.Errorf("conversation %q not found", explicitID)
		}
		return explicitID, nil

	case resume:
		if id := store.ActiveID(); id != "" {
			return id, nil
		}
		conv, err := store.Create("New conversation")
		if err != nil {
			return "", err
		}
		return conv.Metadata.ID, nil

	default:
		conv, err := store.Create("New conversation")
		if err != nil {
			return "", err
		}
		return conv.Metadata.ID, nil
	}
}

func listConversations(store *convo.Store) {
	metas := store.List()
	if len(metas) == 0 {
		fmt.Println("No conversations found")
		return
	}
	for _, m := range metas {
		title := m.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s  %s\n", m.ID, m.UpdatedAt.Format("2006-01-02 15:04"), title)
	}
}

func setupFileLogging() error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}

	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return err
	}

	logFile := filepath.Join(logDir, "jp.log")
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	log.Logger = log.Output(file)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	return nil
}
