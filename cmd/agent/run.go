package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfateev/sandbox-agent/internal/cli"
	"github.com/mfateev/sandbox-agent/internal/llm"
	"github.com/mfateev/sandbox-agent/internal/observability"
	"github.com/mfateev/sandbox-agent/internal/workflow"
)

const shutdownTimeout = 5 * time.Second

func runPrompt(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return fmt.Errorf("prompt must not be empty")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer shutdown(a)

	client, err := llm.NewClient(a.cfg.Model.Provider, a.cfg.ClientOptions())
	if err != nil {
		return err
	}
	instrumented := observability.NewInstrumentedClient(client, client.Provider(), a.obs.Metrics, a.obs.TracerOrNoop())

	out := cmd.OutOrStdout()
	noMarkdown := flagNoMarkdown || !cli.StdoutIsTerminal()
	renderer := cli.NewRenderer(0, flagNoColor, noMarkdown)

	opts := []workflow.LoopOption{
		workflow.WithModel(a.cfg.Model),
		workflow.WithMaxIterations(a.cfg.MaxIterations),
		workflow.WithInstructions(a.cfg.Instructions),
		workflow.WithProjectDoc(!flagNoProjectDoc),
		workflow.WithLogger(a.logger),
		workflow.WithTracer(a.obs.TracerOrNoop()),
		workflow.WithObserver(cli.NewProgressObserver(out, renderer, flagVerbose)),
	}
	if a.obs.Metrics != nil {
		opts = append(opts, workflow.WithSessionRecorder(a.obs.Metrics))
	}
	loop := workflow.NewConversationLoop(instrumented, a.executor, opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagVerbose {
		fmt.Fprint(out, renderer.RenderUserPrompt(prompt))
	}

	result, err := loop.Run(ctx, prompt)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), renderer.RenderError(err))
		return &reportedError{err: err}
	}
	fmt.Fprint(out, renderer.RenderAnswer(result.Answer))
	return nil
}

func shutdown(a *app) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.obs.Shutdown(ctx); err != nil {
		a.logger.Warn("observability shutdown failed", "error", err)
	}
}
