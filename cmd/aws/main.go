package main

import (
	"context"
	"fmt"
	"os"
	"passgate/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

func main() {}

func sesClient() *ses.Client {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithRegion(cfg.AwsRegion),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AwsAccessKey,
				cfg.AwsSecretKey,
				"",
			),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	return ses.NewFromConfig(awsCfg)
}

// CreatePasswordResetTemplate registers the templated email the reset
// flow sends. The template body must reference {{email}} and {{resetUrl}}.
func CreatePasswordResetTemplate(
	name string,
	subject string,
	htmlPart string,
	textPart string,
) {
	svc := sesClient()

	input := &ses.CreateTemplateInput{
		Template: &types.Template{
			SubjectPart:  &subject,
			HtmlPart:     &htmlPart,
			TextPart:     &textPart,
			TemplateName: &name,
		},
	}
	result, err := svc.CreateTemplate(context.Background(), input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Success:")
	fmt.Println(result)
}

func DeletePasswordResetTemplate(name string) {
	svc := sesClient()

	result, err := svc.DeleteTemplate(
		context.Background(),
		&ses.DeleteTemplateInput{
			TemplateName: &name,
		},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Success:")
	fmt.Println(result)
}

func SendPasswordResetTemplate(sender string, to string, name string, args string) {
	svc := sesClient()

	result, err := svc.SendTemplatedEmail(
		context.Background(),
		&ses.SendTemplatedEmailInput{
			Source: aws.String(sender),
			Destination: &types.Destination{
				CcAddresses: []string{},
				ToAddresses: []string{to},
			},
			Template:     &name,
			TemplateData: &args,
		},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Success:")
	fmt.Println(result)
}
