package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailer_Send(t *testing.T) {
	api := &fakeSES{}
	m := newSESMailer(api, nil)

	err := m.Send(context.Background(), Message{
		From: "leads@studio.example", FromName: "Studio Leads", To: "team@studio.example",
		Subject: "Callback request from Anna", Text: "plain", HTML: "<p>html</p>",
	})
	require.NoError(t, err)
	require.NotNil(t, api.input)

	assert.Equal(t, "Studio Leads <leads@studio.example>", aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{"team@studio.example"}, api.input.Destination.ToAddresses)
	simple := api.input.Content.Simple
	assert.Equal(t, "Callback request from Anna", aws.ToString(simple.Subject.Data))
	assert.Equal(t, "plain", aws.ToString(simple.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(simple.Body.Html.Data))
}

func TestSESMailer_Error(t *testing.T) {
	m := newSESMailer(&fakeSES{err: errors.New("MessageRejected")}, nil)
	err := m.Send(context.Background(), Message{From: "a@b.co", To: "c@d.co", Subject: "s", Text: "t"})
	assert.ErrorContains(t, err, "MessageRejected")
}

func TestNewSESMailer_NilClient(t *testing.T) {
	assert.Nil(t, NewSESMailer(nil, nil))
}
