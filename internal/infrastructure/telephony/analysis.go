package telephony

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/connectcontactlens"
	lenstypes "github.com/aws/aws-sdk-go-v2/service/connectcontactlens/types"
	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/config"
	"github.com/openivr/call-server/internal/domain/call"
)

type lensAPI interface {
	ListRealtimeContactAnalysisSegments(ctx context.Context, params *connectcontactlens.ListRealtimeContactAnalysisSegmentsInput, optFns ...func(*connectcontactlens.Options)) (*connectcontactlens.ListRealtimeContactAnalysisSegmentsOutput, error)
}

// AnalysisClient implements call.SegmentSource on Contact Lens
// real-time analysis.
type AnalysisClient struct {
	api        lensAPI
	instanceID string
	log        zerolog.Logger
}

// NewAnalysisClient builds the Contact Lens segment source.
func NewAnalysisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*AnalysisClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, err
	}
	return &AnalysisClient{
		api:        connectcontactlens.NewFromConfig(awsCfg),
		instanceID: cfg.ConnectInstanceID,
		log:        log.With().Str("component", "contact-lens-client").Logger(),
	}, nil
}

var _ call.SegmentSource = (*AnalysisClient)(nil)

// ListSegments fetches one page of transcript segments. A
// ResourceNotFoundException from Contact Lens means analysis has not
// started for the contact yet and is surfaced as the distinguished
// call.ErrAnalysisNotReady.
func (c *AnalysisClient) ListSegments(ctx context.Context, contactID string, pageSize int32, cursor string) (*call.SegmentPage, error) {
	input := &connectcontactlens.ListRealtimeContactAnalysisSegmentsInput{
		InstanceId: aws.String(c.instanceID),
		ContactId:  aws.String(contactID),
		MaxResults: aws.Int32(pageSize),
	}
	if cursor != "" {
		input.NextToken = aws.String(cursor)
	}

	out, err := c.api.ListRealtimeContactAnalysisSegments(ctx, input)
	if err != nil {
		var notFound *lenstypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", call.ErrAnalysisNotReady, contactID)
		}
		return nil, err
	}

	page := &call.SegmentPage{NextCursor: aws.ToString(out.NextToken)}
	now := time.Now()
	for _, seg := range out.Segments {
		if seg.Transcript == nil {
			continue
		}
		page.Segments = append(page.Segments, call.Segment{
			Participant:  call.Participant(aws.ToString(seg.Transcript.ParticipantRole)),
			Content:      aws.ToString(seg.Transcript.Content),
			OffsetMillis: int64(aws.ToInt32(seg.Transcript.BeginOffsetMillis)),
			ObservedAt:   now,
		})
	}
	return page, nil
}
