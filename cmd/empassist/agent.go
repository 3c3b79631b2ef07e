package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cobra"

	"github.com/empassist/empassist/pkg/agents"
	"github.com/empassist/empassist/pkg/apischema"
	"github.com/empassist/empassist/pkg/dialogue"
	"github.com/empassist/empassist/pkg/tools"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage the hosted agent definition",
}

var agentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision the assistant on the hosted agents platform",
	Long: `Slices the backend OpenAPI document down to the validation and update
operations, attaches both as anonymous OpenAPI tools and creates the assistant
with its instruction text. Prints the new agent ID.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.ValidateProvision(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		logger := createLogger(cfg)
		ctx := cmd.Context()

		doc, err := apischema.Load(ctx, cfg.OpenAPISchemaURL)
		if err != nil {
			fmt.Printf("Error loading OpenAPI schema: %v\n", err)
			os.Exit(1)
		}

		validateSpec, err := sliceOperation(doc, cfg.ValidateURL)
		if err != nil {
			fmt.Printf("Error slicing validation operation: %v\n", err)
			os.Exit(1)
		}
		updateSpec, err := sliceOperation(doc, cfg.UpdateURL)
		if err != nil {
			fmt.Printf("Error slicing update operation: %v\n", err)
			os.Exit(1)
		}

		req := agents.CreateAgentRequest{
			Model:        cfg.ModelDeployment,
			Name:         cfg.AgentName,
			Description:  dialogue.AssistantDescription,
			Instructions: dialogue.AssistantInstructions,
		}.WithTools(
			agents.OpenAPITool{
				Name:        tools.ToolNameValidation,
				Description: "Validate an employee by ID, first name and last name.",
				Spec:        validateSpec,
				Auth:        agents.AnonymousAuth,
			},
			agents.OpenAPITool{
				Name:        tools.ToolNameUpdate,
				Description: "Update profile fields of a validated employee.",
				Spec:        updateSpec,
				Auth:        agents.AnonymousAuth,
			},
		)

		client := agents.NewClient(cfg.ProjectEndpoint, cfg.APIVersion,
			agents.StaticTokenSource(cfg.Token),
			agents.WithClientLogger(logger),
		)
		created, err := client.CreateAgent(ctx, req)
		if err != nil {
			fmt.Printf("Error creating agent: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Agent %q created: %s\n", cfg.AgentName, created.ID)
		fmt.Println("Set AGENT_ID to this value to serve against it.")
	},
}

// sliceOperation cuts the document down to the single path the operation URL
// addresses and returns it as JSON.
func sliceOperation(doc *openapi3.T, operationURL string) (json.RawMessage, error) {
	path, err := apischema.PathFromURL(operationURL)
	if err != nil {
		return nil, err
	}
	sliced, err := apischema.Slice(doc, path)
	if err != nil {
		return nil, err
	}
	return sliced.MarshalJSON()
}

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.AddCommand(agentCreateCmd)
}
