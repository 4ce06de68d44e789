package sns

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-journal/internal/config"
	"github.com/go-journal/internal/domain"
	"github.com/go-journal/internal/infrastructure/awscfg"
)

// Publisher is the subset of *sns.Client used for SMS delivery.
type Publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Messenger delivers notifications as SMS through AWS SNS. SNS has no message
// templates, so SendTemplate renders a local text body instead.
type Messenger struct {
	client    Publisher
	templates map[string]string
}

func NewMessenger(ctx context.Context, cfg *config.Config) (*Messenger, error) {
	awsCfg, err := awscfg.Load(ctx, cfg, cfg.SNSRegion)
	if err != nil {
		return nil, err
	}
	return newMessenger(sns.NewFromConfig(awsCfg), cfg.WhatsApp), nil
}

func newMessenger(client Publisher, wa config.WhatsApp) *Messenger {
	return &Messenger{
		client: client,
		templates: map[string]string{
			"hello_world":      "Hello World",
			wa.NewPostTemplate: "New post: {{1}}",
		},
	}
}

func (m *Messenger) SendMessage(ctx context.Context, to, text string) domain.SendResult {
	out, err := m.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(text),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		},
	})
	if err != nil {
		return domain.SendResult{Error: err.Error()}
	}
	return domain.SendResult{Success: true, MessageID: aws.ToString(out.MessageId)}
}

// SendTemplate ignores languageCode; templates are single-language text.
func (m *Messenger) SendTemplate(ctx context.Context, to, templateName string, bodyParams []string, _ string) domain.SendResult {
	return m.SendMessage(ctx, to, m.render(templateName, bodyParams))
}

// render substitutes {{n}} placeholders with bodyParams[n-1]. Unknown
// templates fall back to the name followed by each parameter on its own line.
func (m *Messenger) render(name string, params []string) string {
	body, ok := m.templates[name]
	if !ok {
		return strings.Join(append([]string{name}, params...), "\n")
	}
	for i, p := range params {
		body = strings.ReplaceAll(body, fmt.Sprintf("{{%d}}", i+1), p)
	}
	return body
}
