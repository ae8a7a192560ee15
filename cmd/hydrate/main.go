package main

import (
	"context"
	"votolocal-backend/cmd/hydrate/commands"
	"votolocal-backend/lib/serviceutil"
	"votolocal-backend/lib/telemetry"
)

func main() {
	ctx := context.Background()

	tel, err := telemetry.SetupFromEnv(ctx, "hydrate")
	if err != nil {
		serviceutil.Fatal("init telemetry", err)
	}
	defer tel.Shutdown(ctx)

	commands.ExecuteContext(ctx)
}
