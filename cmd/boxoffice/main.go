package main

import (
	"context"
	"log/slog"

	"boxoffice-tracker/cmd/boxoffice/commands"
	"boxoffice-tracker/lib/serviceutil"
	"boxoffice-tracker/lib/telemetry"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()

	tel, err := telemetry.SetupFromEnv(ctx, "boxoffice")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()

	commands.ExecuteContext(ctx)
}
