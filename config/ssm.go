package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

type SSMGetParametersAPI interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

func NewSSMClient(ctx context.Context) (*ssm.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get aws config: %w", err)
	}

	return ssm.NewFromConfig(cfg), nil
}

// LoadSSMSecrets fills the credentials that are still empty from SSM
// parameters named <SSMParameterPrefix>/<ENV_VAR>. Values already set in the
// environment are kept.
func LoadSSMSecrets(ctx context.Context, client SSMGetParametersAPI, cfg *Config) error {
	if cfg.SSMParameterPrefix == "" {
		return nil
	}

	targets := map[string]*string{
		"ZOOM_ACCOUNT_ID":    &cfg.Zoom.AccountID,
		"ZOOM_CLIENT_ID":     &cfg.Zoom.ClientID,
		"ZOOM_CLIENT_SECRET": &cfg.Zoom.ClientSecret,
		"WEBHOOK_SECRET":     &cfg.Webhook.Secret,
	}

	prefix := strings.TrimSuffix(cfg.SSMParameterPrefix, "/")
	byName := map[string]*string{}
	names := []string{}
	for env, target := range targets {
		if *target != "" {
			continue
		}
		name := prefix + "/" + env
		byName[name] = target
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil
	}

	out, err := client.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          names,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to get ssm parameters: %w", err)
	}

	for _, p := range out.Parameters {
		target, ok := byName[aws.ToString(p.Name)]
		if !ok {
			continue
		}
		*target = aws.ToString(p.Value)
	}

	return nil
}
