package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/runtime/bootstrap"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/runtime/terminal"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/finance"
)

func main() {
	_ = godotenv.Load()

	cli := terminal.NewCLI(terminal.Options{
		Load: func(ctx context.Context, opts bootstrap.Options) (finance.Service, error) {
			app, err := bootstrap.New(ctx, opts)
			if err != nil {
				return nil, err
			}
			return app.Service, nil
		},
		Output: os.Stdout,
	})

	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
