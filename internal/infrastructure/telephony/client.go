// Package telephony implements the call control and analysis segment
// capabilities on Amazon Connect and Contact Lens.
package telephony

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/connect"
	connecttypes "github.com/aws/aws-sdk-go-v2/service/connect/types"
	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/config"
	"github.com/openivr/call-server/internal/domain/call"
)

// connectAPI is the slice of the Amazon Connect client the control
// layer uses, narrowed for testability.
type connectAPI interface {
	StartOutboundVoiceContact(ctx context.Context, params *connect.StartOutboundVoiceContactInput, optFns ...func(*connect.Options)) (*connect.StartOutboundVoiceContactOutput, error)
	DescribeContact(ctx context.Context, params *connect.DescribeContactInput, optFns ...func(*connect.Options)) (*connect.DescribeContactOutput, error)
	GetContactAttributes(ctx context.Context, params *connect.GetContactAttributesInput, optFns ...func(*connect.Options)) (*connect.GetContactAttributesOutput, error)
	StopContact(ctx context.Context, params *connect.StopContactInput, optFns ...func(*connect.Options)) (*connect.StopContactOutput, error)
}

// Client implements call.Control on Amazon Connect.
type Client struct {
	api           connectAPI
	instanceID    string
	contactFlowID string
	sourcePhone   string
	log           zerolog.Logger
}

// NewClient builds the Connect control client from shared AWS config.
func NewClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, err
	}
	return &Client{
		api:           connect.NewFromConfig(awsCfg),
		instanceID:    cfg.ConnectInstanceID,
		contactFlowID: cfg.ContactFlowID,
		sourcePhone:   cfg.SourcePhoneNumber,
		log:           log.With().Str("component", "connect-client").Logger(),
	}, nil
}

var _ call.Control = (*Client)(nil)

// Initiate places an outbound campaign call and returns the contact id.
func (c *Client) Initiate(ctx context.Context, destination string, callbackContext map[string]string) (string, error) {
	out, err := c.api.StartOutboundVoiceContact(ctx, &connect.StartOutboundVoiceContactInput{
		InstanceId:             aws.String(c.instanceID),
		ContactFlowId:          aws.String(c.contactFlowID),
		DestinationPhoneNumber: aws.String(destination),
		SourcePhoneNumber:      aws.String(c.sourcePhone),
		TrafficType:            connecttypes.TrafficTypeCampaign,
		Attributes:             callbackContext,
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.ContactId), nil
}

// Describe reads the contact's current status and attributes. Connect
// splits the two across DescribeContact and GetContactAttributes; the
// reads are combined into one additive update, and an attribute read
// failure degrades to a status-only update rather than an error.
func (c *Client) Describe(ctx context.Context, contactID string) (call.StatusUpdate, error) {
	described, err := c.api.DescribeContact(ctx, &connect.DescribeContactInput{
		InstanceId: aws.String(c.instanceID),
		ContactId:  aws.String(contactID),
	})
	if err != nil {
		return call.StatusUpdate{}, err
	}

	update := call.StatusUpdate{Status: statusFromContact(described.Contact)}

	attrs, err := c.api.GetContactAttributes(ctx, &connect.GetContactAttributesInput{
		InstanceId:       aws.String(c.instanceID),
		InitialContactId: aws.String(contactID),
	})
	if err != nil {
		c.log.Debug().Err(err).Str("contact_id", contactID).Msg("attribute read failed")
		return update, nil
	}
	update.Attributes = attrs.Attributes
	return update, nil
}

// Stop ends the contact.
func (c *Client) Stop(ctx context.Context, contactID string) error {
	_, err := c.api.StopContact(ctx, &connect.StopContactInput{
		InstanceId: aws.String(c.instanceID),
		ContactId:  aws.String(contactID),
	})
	return err
}

// statusFromContact derives the session status from the contact's
// timestamps: a disconnect after the flow answered means COMPLETED, a
// disconnect without ever connecting means the call never went through
// and maps to FAILED, connected to the flow means IN_PROGRESS,
// otherwise the call is still being placed.
func statusFromContact(contact *connecttypes.Contact) call.Status {
	if contact == nil {
		return call.StatusInitiated
	}
	if contact.DisconnectTimestamp != nil {
		if contact.ConnectedToSystemTimestamp == nil {
			return call.StatusFailed
		}
		return call.StatusCompleted
	}
	if contact.ConnectedToSystemTimestamp != nil {
		return call.StatusInProgress
	}
	return call.StatusInitiated
}
