package cli

import (
	"context"
	"os"

	clc "github.com/cloudwego/eino-ext/callbacks/cozeloop"
	"github.com/cloudwego/eino/callbacks"
	"github.com/coze-dev/cozeloop-go"
	"go.uber.org/zap"
)

// setupTracing registers the CozeLoop callback handler when
// COZE_LOOP_API_TOKEN and COZELOOP_WORKSPACE_ID are both set. The returned
// function flushes and closes the client.
func setupTracing(ctx context.Context, log *zap.Logger) func() {
	token := os.Getenv("COZE_LOOP_API_TOKEN")
	workspaceID := os.Getenv("COZELOOP_WORKSPACE_ID")
	if token == "" || workspaceID == "" {
		return func() {}
	}

	client, err := cozeloop.NewClient(
		cozeloop.WithAPIToken(token),
		cozeloop.WithWorkspaceID(workspaceID),
	)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
		return func() {}
	}

	callbacks.AppendGlobalHandlers(clc.NewLoopHandler(client))
	log.Info("tracing model calls with CozeLoop", zap.String("workspace", workspaceID))

	return func() {
		client.Close(ctx)
	}
}
