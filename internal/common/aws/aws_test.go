package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	in  *ses.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.in = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

// ============================================================================
// SES
// ============================================================================

func TestSESClient_SendText(t *testing.T) {
	api := &fakeSES{}
	c := NewSESClientWith(api, "risk@lease.example")

	id, err := c.SendText(context.Background(), []string{"uw@lease.example"}, "subject", "body")
	require.NoError(t, err)
	assert.Equal(t, "ses-1", id)
	assert.Equal(t, "risk@lease.example", aws.ToString(api.in.Source))
	assert.Equal(t, []string{"uw@lease.example"}, api.in.Destination.ToAddresses)
	assert.Equal(t, "body", aws.ToString(api.in.Message.Body.Text.Data))
}

func TestSESClient_Errors(t *testing.T) {
	c := NewSESClientWith(&fakeSES{err: errors.New("throttled")}, "risk@lease.example")

	_, err := c.SendText(context.Background(), nil, "s", "b")
	assert.Error(t, err)

	_, err = c.SendText(context.Background(), []string{"uw@lease.example"}, "s", "b")
	assert.EqualError(t, err, "throttled")
}

// ============================================================================
// SNS
// ============================================================================

func TestSNSClient_Publish(t *testing.T) {
	api := &fakeSNS{}
	c := NewSNSClientWith(api, "arn:aws:sns:eu-west-1:1:underwriting")

	id, err := c.Publish(context.Background(), "subj", "msg", map[string]string{"finalTier": "REJECTED"})
	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.Equal(t, "arn:aws:sns:eu-west-1:1:underwriting", aws.ToString(api.in.TopicArn))
	require.Contains(t, api.in.MessageAttributes, "finalTier")
	assert.Equal(t, "REJECTED", aws.ToString(api.in.MessageAttributes["finalTier"].StringValue))
	assert.Equal(t, "String", aws.ToString(api.in.MessageAttributes["finalTier"].DataType))
}

func TestSNSClient_NoAttributes(t *testing.T) {
	api := &fakeSNS{}
	_, err := NewSNSClientWith(api, "arn").Publish(context.Background(), "s", "m", nil)
	require.NoError(t, err)
	assert.Nil(t, api.in.MessageAttributes)
}
