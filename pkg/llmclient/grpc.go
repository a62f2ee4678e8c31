// Package llmclient implements agent.LLMClient against a remote LLM service
// over gRPC. It carries no generated protobuf stubs: requests and responses
// are well-known google.protobuf.Struct values, sent via the raw
// grpc.ClientConn.Invoke call so the wire format stays real protobuf without
// a code-generation step.
package llmclient

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codeready-toolchain/agentcore/pkg/agent"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// invokeMethod is the fully qualified gRPC method path for a single bounded
// completion call. The remote service is expected to accept and return a
// google.protobuf.Struct shaped per the field names below.
const invokeMethod = "/agentcore.llm.v1.LLMService/Invoke"

// GRPCLLMClient implements agent.LLMClient by calling a remote LLM service.
// One attempt per call: retries are explicitly not this client's concern,
// matching the core's one-shot Agent.Execute contract.
type GRPCLLMClient struct {
	conn *grpc.ClientConn
}

// NewGRPCLLMClient dials addr with insecure (plaintext) transport. The LLM
// service is expected to run as a sidecar or on a trusted network segment;
// deployments crossing a network boundary must upgrade to TLS credentials.
func NewGRPCLLMClient(addr string) (*GRPCLLMClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("llmclient: failed to create client for %s: %w", addr, err)
	}
	return &GRPCLLMClient{conn: conn}, nil
}

// Close releases the underlying gRPC connection.
func (c *GRPCLLMClient) Close() error {
	return c.conn.Close()
}

// Invoke implements agent.LLMClient.
func (c *GRPCLLMClient) Invoke(ctx context.Context, systemPrompt, userMessage, model string, maxTokens int) (agent.InvokeResult, error) {
	req, err := buildRequestStruct(systemPrompt, userMessage, model, maxTokens)
	if err != nil {
		return agent.InvokeResult{}, fmt.Errorf("llmclient: failed to build request struct: %w", err)
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, invokeMethod, req, resp); err != nil {
		return agent.InvokeResult{}, fmt.Errorf("llmclient: invoke failed: %w", err)
	}

	return fromResponseStruct(resp)
}

// buildRequestStruct assembles the wire request for a single Invoke call.
// Kept separate from Invoke so it is testable without a live connection.
func buildRequestStruct(systemPrompt, userMessage, model string, maxTokens int) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"system_prompt": systemPrompt,
		"user_message":  userMessage,
		"model":         model,
		"max_tokens":    float64(maxTokens),
	})
}

func fromResponseStruct(resp *structpb.Struct) (agent.InvokeResult, error) {
	fields := resp.GetFields()

	text, ok := fields["text"]
	if !ok {
		return agent.InvokeResult{}, fmt.Errorf("llmclient: response missing %q field", "text")
	}

	result := agent.InvokeResult{Text: text.GetStringValue()}
	if v, ok := fields["input_tokens"]; ok {
		result.InputTokens = int(v.GetNumberValue())
	}
	if v, ok := fields["output_tokens"]; ok {
		result.OutputTokens = int(v.GetNumberValue())
	}
	if errField, ok := fields["error"]; ok && errField.GetStringValue() != "" {
		slog.Warn("llm service reported a soft error alongside a response", "error", errField.GetStringValue())
	}
	return result, nil
}
