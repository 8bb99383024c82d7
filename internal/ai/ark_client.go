package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type ArkConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Region  string
}

// ArkClient talks to a Volcengine Ark model through eino.
type ArkClient struct {
	chatModel model.BaseChatModel
}

func NewArkClient(ctx context.Context, cfg ArkConfig) (*ArkClient, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, fmt.Errorf("ark: api key and model are required")
	}

	cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Region:  cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ark chat model: %w", err)
	}

	return newArkClientWithModel(cm), nil
}

func newArkClientWithModel(cm model.BaseChatModel) *ArkClient {
	return &ArkClient{chatModel: cm}
}

func (c *ArkClient) Complete(
	ctx context.Context,
	history []Message,
	newMessage string,
) (string, error) {

	input := make([]*schema.Message, 0, len(history)+2)
	input = append(input, schema.SystemMessage(SupportPreamble))

	for _, m := range history {
		if m.Role == RoleUser {
			input = append(input, schema.UserMessage(m.Text))
			continue
		}
		input = append(input, schema.AssistantMessage(m.Text, nil))
	}
	input = append(input, schema.UserMessage(newMessage))

	resp, err := c.chatModel.Generate(ctx, input)
	if err != nil {
		log.Println("[ai] Ark error:", err)
		return "", fmt.Errorf("ark completion: %w", err)
	}
	if resp == nil {
		return "", nil
	}

	log.Printf("[ai] reply provider=ark history=%d length=%d", len(history), len(resp.Content))
	return resp.Content, nil
}
