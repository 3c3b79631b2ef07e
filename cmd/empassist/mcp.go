package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/empassist/empassist/pkg/adapters/mcp"
	"github.com/empassist/empassist/pkg/tools"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the dialogue engine as an MCP server over stdio.
This allows MCP-capable clients to drive the conversation through a 'chat' tool.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		logger := createLogger(cfg)
		agent, closeStore, err := buildAgent(cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		logger.Info("starting MCP server (stdio)")

		registry := tools.NewRegistry()
		tools.RegisterValidator(registry, tools.NewValidator(cfg.ValidateURL, tools.WithValidatorLogger(logger)))
		tools.RegisterUpdater(registry, tools.NewUpdater(cfg.UpdateURL, tools.WithUpdaterLogger(logger)))

		srv := mcp.NewServer(agent, mcp.WithToolRegistry(registry))
		if err := srv.ServeStdio(); err != nil {
			logger.Error("MCP server execution failed", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
