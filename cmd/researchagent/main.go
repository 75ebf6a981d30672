package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/researchagent/researchagent"
	"github.com/researchagent/researchagent/tools/calculator"
)

const defaultPrompt = "You are a research assistant. Answer the user's question accurately and concisely, using the available tools whenever they help."

func main() {
	askCmd := flag.NewFlagSet("ask", flag.ExitOnError)
	dbPath := askCmd.String("db", "", "SQLite database file for conversation history (optional)")
	postgresDSN := askCmd.String("postgres", "", "PostgreSQL DSN for conversation history (optional)")
	model := askCmd.String("model", "", "Model name override")
	showCost := askCmd.Bool("cost", false, "Print token usage and cost after the answer")
	resume := askCmd.String("resume", "", "Session ID whose stored history seeds the conversation memory")

	if len(os.Args) < 2 {
		fmt.Println("Expected 'ask' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ask":
		askCmd.Parse(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		fmt.Println("Expected 'ask' subcommand")
		os.Exit(1)
	}

	question := strings.TrimSpace(strings.Join(askCmd.Args(), " "))
	if question == "" {
		fmt.Println("Usage: researchagent ask [flags] <question>")
		askCmd.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := researchagent.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *model != "" {
		cfg.Model = *model
	}

	var storage researchagent.Storage
	switch {
	case *dbPath != "" && *postgresDSN != "":
		log.Fatal("Use either -db or -postgres, not both")
	case *dbPath != "":
		storage, err = researchagent.NewSQLiteStorage(*dbPath)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		defer storage.Close()
	case *postgresDSN != "":
		storage, err = researchagent.NewPostgresStorage(*postgresDSN)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		defer storage.Close()
	}

	registry := researchagent.NewRegistry()
	if err := registry.Register(calculator.New()); err != nil {
		log.Fatalf("Failed to register calculator: %v", err)
	}

	agent := researchagent.NewAgent(
		"researcher",
		"Multi-tool research agent",
		defaultPrompt,
		registry,
	)
	agent.Configure(cfg)

	llm := researchagent.NewLLMFromConfig(cfg)
	memory := researchagent.NewBoundedMemory(cfg.MemorySize)

	ctx := context.Background()
	if *resume != "" {
		if storage == nil {
			log.Fatal("-resume requires -db or -postgres")
		}
		if err := researchagent.SeedMemory(ctx, memory, storage, *resume, cfg.MemorySize); err != nil {
			log.Fatalf("Failed to load stored conversation: %v", err)
		}
	}

	opts := []researchagent.SessionOption{researchagent.WithModel(cfg.Model)}
	if storage != nil {
		opts = append(opts, researchagent.WithStorage(storage))
	}

	session := researchagent.NewSession(ctx, llm, memory, agent, opts...)
	if storage != nil {
		// The ID is what -resume takes on the next run.
		fmt.Fprintf(os.Stderr, "session: %s\n", session.ID())
	}
	if err := session.In(question); err != nil {
		log.Fatalf("Failed to submit question: %v", err)
	}

	for {
		out := session.Out()
		switch out.Type {
		case researchagent.ResponseTypePartialText:
			fmt.Print(out.Content)
		case researchagent.ResponseTypeStatus:
			fmt.Fprintf(os.Stderr, "[%s...]\n", out.Content)
		case researchagent.ResponseTypeError:
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", out.Content)
			os.Exit(1)
		case researchagent.ResponseTypeEnd:
			fmt.Println()
			if *showCost {
				if cost, ok := session.Cost(); ok {
					fmt.Fprintf(os.Stderr, "tokens: %d in / %d out, cost: $%.6f\n", cost.InputTokens, cost.OutputTokens, cost.TotalCost)
				}
			}
			return
		}
	}
}
