package secret

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ssmAPI is the subset of the SSM client used by SSMProvider.
type ssmAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMProvider reads parameters from AWS Systems Manager Parameter Store.
type SSMProvider struct {
	client ssmAPI
}

// NewSSMProvider creates a new SSMProvider instance
func NewSSMProvider(client ssmAPI) *SSMProvider {
	return &SSMProvider{client: client}
}

// Get fetches the parameter, decrypting SecureString values.
func (p *SSMProvider) Get(ctx context.Context, name string) (string, error) {
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("ssm parameter %s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get ssm parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("ssm parameter %s has no value: %w", name, ErrNotFound)
	}
	return *out.Parameter.Value, nil
}
