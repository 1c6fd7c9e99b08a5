package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"todoassist/internal/agent"
	"todoassist/internal/config"
	"todoassist/internal/observability"
	"todoassist/internal/provider"
	"todoassist/internal/storage"
	"todoassist/internal/task"
	"todoassist/internal/tools"
)

// localOwnerID scopes every console task. The console is single-user;
// the web API is where accounts live.
const localOwnerID = "local"

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	replyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func main() {
	var (
		configPath string
		dbPath     string
		engineName string
	)
	flag.StringVar(&configPath, "config", "", "Path to config JSON")
	flag.StringVar(&dbPath, "db", "", "SQLite database path override")
	flag.StringVar(&engineName, "engine", "policy", "Chat engine: policy or loop")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}

	// Keep JSON logs off the interactive terminal.
	logFile, err := openLogFile(cfg.Storage.DBPath)
	if err == nil {
		observability.SetOutput(logFile)
		defer logFile.Close()
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	dispatch := tools.NewDispatcher(store)
	engine, online, err := buildEngine(engineName, cfg, dispatch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init engine failed: %v\n", err)
		os.Exit(1)
	}

	input, inputErr := newLineInput(filepath.Join(filepath.Dir(cfg.Storage.DBPath), "chat.history"))
	if inputErr != nil {
		fmt.Fprintf(os.Stderr, "line editor unavailable, fallback to basic input: %v\n", inputErr)
	}
	defer input.Close()

	sess := agent.NewSession(uuid.NewString(), localOwnerID)

	fmt.Println(titleStyle.Render("todoassist"))
	if online {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("provider: %s  engine: %s", cfg.Provider.Name, engineName)))
	} else {
		fmt.Println(mutedStyle.Render("offline mode: keyword understanding only"))
	}
	fmt.Println(mutedStyle.Render(`say things like "add buy milk", "list my tasks", "delete the milk task" — /help for commands`))

	for {
		line, err := input.ReadLine("you> ")
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				fmt.Println()
				continue
			case errors.Is(err, io.EOF):
				fmt.Println(mutedStyle.Render("bye"))
				return
			default:
				fmt.Fprintf(os.Stderr, "read input failed: %v\n", err)
				return
			}
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			if quit := handleCommand(text, store); quit {
				return
			}
			continue
		}

		reply := engine.HandleUtterance(context.Background(), sess, text)
		fmt.Println(replyStyle.Render(reply))
	}
}

// handleCommand runs a slash command; returns true to exit the REPL.
func handleCommand(text string, store storage.TaskStore) bool {
	switch text {
	case "/exit", "/quit":
		fmt.Println(mutedStyle.Render("bye"))
		return true
	case "/list":
		tasks, err := store.ListTasks(context.Background(), localOwnerID, task.FilterAll)
		if err != nil {
			fmt.Println(errStyle.Render("list failed: " + err.Error()))
			return false
		}
		if len(tasks) == 0 {
			fmt.Println(mutedStyle.Render("no tasks"))
			return false
		}
		for i, t := range tasks {
			mark := " "
			if t.Completed {
				mark = "x"
			}
			fmt.Printf("%d. [%s] %s  %s\n", i+1, mark, t.Title, mutedStyle.Render(t.ShortID()))
		}
	case "/help":
		fmt.Println(mutedStyle.Render("/list  show tasks with ids\n/exit  leave"))
	default:
		fmt.Println(errStyle.Render("unknown command: " + text))
	}
	return false
}

func buildEngine(name string, cfg config.Config, dispatch *tools.Dispatcher) (agent.Engine, bool, error) {
	opts := agent.LLMOptions{
		MaxTokens:         cfg.Agent.MaxTokens,
		Temperature:       cfg.Agent.Temperature,
		HistoryLimit:      cfg.Agent.HistoryLimit,
		HistoryTokenLimit: cfg.Agent.HistoryTokenLimit,
	}

	var llm provider.Provider
	if cfg.Provider.Enabled() {
		llm = provider.NewOpenAIProvider(provider.OpenAIConfig{
			Name:       cfg.Provider.Name,
			BaseURL:    cfg.Provider.BaseURL,
			APIKey:     cfg.Provider.APIKey,
			Model:      cfg.Provider.Model,
			TimeoutMS:  cfg.Provider.TimeoutMS,
			MaxRetries: cfg.Provider.MaxRetries,
		})
	}

	switch name {
	case "policy":
		var classifier agent.Classifier = agent.NewRuleClassifier()
		if llm != nil {
			classifier = agent.NewLLMClassifier(llm, opts)
		}
		return agent.NewPolicy(dispatch, classifier), llm != nil, nil
	case "loop":
		if llm == nil {
			return nil, false, fmt.Errorf("engine loop requires a configured provider (set GEMINI_API_KEY or OPENAI_API_KEY)")
		}
		return agent.NewToolLoop(llm, dispatch, opts), true, nil
	default:
		return nil, false, fmt.Errorf("unknown engine %q (want policy or loop)", name)
	}
}

func openLogFile(dbPath string) (*os.File, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "todochat.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
