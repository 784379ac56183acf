package telephony

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/connectcontactlens"
	lenstypes "github.com/aws/aws-sdk-go-v2/service/connectcontactlens/types"
	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/domain/call"
)

type fakeLensAPI struct {
	out   *connectcontactlens.ListRealtimeContactAnalysisSegmentsOutput
	err   error
	input *connectcontactlens.ListRealtimeContactAnalysisSegmentsInput
}

func (f *fakeLensAPI) ListRealtimeContactAnalysisSegments(ctx context.Context, params *connectcontactlens.ListRealtimeContactAnalysisSegmentsInput, optFns ...func(*connectcontactlens.Options)) (*connectcontactlens.ListRealtimeContactAnalysisSegmentsOutput, error) {
	f.input = params
	return f.out, f.err
}

func newTestAnalysisClient(api lensAPI) *AnalysisClient {
	return &AnalysisClient{api: api, instanceID: "instance-1", log: zerolog.Nop()}
}

func TestListSegments_MapsTranscriptSegments(t *testing.T) {
	api := &fakeLensAPI{out: &connectcontactlens.ListRealtimeContactAnalysisSegmentsOutput{
		NextToken: aws.String("cursor-1"),
		Segments: []lenstypes.RealtimeContactAnalysisSegment{
			{Transcript: &lenstypes.Transcript{
				ParticipantRole:   aws.String("AGENT"),
				Content:           aws.String("Press one for claims"),
				BeginOffsetMillis: aws.Int32(1500),
			}},
			// Non-transcript segments (categories etc.) are skipped.
			{},
			{Transcript: &lenstypes.Transcript{
				ParticipantRole:   aws.String("CUSTOMER"),
				Content:           aws.String("One"),
				BeginOffsetMillis: aws.Int32(3000),
			}},
		},
	}}
	c := newTestAnalysisClient(api)

	page, err := c.ListSegments(context.Background(), "contact-1", 100, "")
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if page.NextCursor != "cursor-1" {
		t.Errorf("cursor = %q, want %q", page.NextCursor, "cursor-1")
	}
	if len(page.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(page.Segments))
	}
	if page.Segments[0].Participant != call.ParticipantSystem || page.Segments[0].OffsetMillis != 1500 {
		t.Errorf("unexpected first segment: %+v", page.Segments[0])
	}
	if page.Segments[1].Participant != call.ParticipantCaller || page.Segments[1].Content != "One" {
		t.Errorf("unexpected second segment: %+v", page.Segments[1])
	}

	if api.input.NextToken != nil {
		t.Error("first page must not carry a token")
	}
	if aws.ToInt32(api.input.MaxResults) != 100 {
		t.Errorf("max results = %d, want 100", aws.ToInt32(api.input.MaxResults))
	}
}

func TestListSegments_PassesCursor(t *testing.T) {
	api := &fakeLensAPI{out: &connectcontactlens.ListRealtimeContactAnalysisSegmentsOutput{}}
	c := newTestAnalysisClient(api)

	if _, err := c.ListSegments(context.Background(), "contact-1", 100, "cursor-1"); err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if aws.ToString(api.input.NextToken) != "cursor-1" {
		t.Errorf("token = %q, want %q", aws.ToString(api.input.NextToken), "cursor-1")
	}
}

func TestListSegments_NotFoundBecomesNotReady(t *testing.T) {
	api := &fakeLensAPI{err: &lenstypes.ResourceNotFoundException{Message: aws.String("no analysis")}}
	c := newTestAnalysisClient(api)

	_, err := c.ListSegments(context.Background(), "contact-1", 100, "")
	if !errors.Is(err, call.ErrAnalysisNotReady) {
		t.Fatalf("expected ErrAnalysisNotReady, got %v", err)
	}
}

func TestListSegments_OtherErrorsPassThrough(t *testing.T) {
	api := &fakeLensAPI{err: errors.New("throttled")}
	c := newTestAnalysisClient(api)

	_, err := c.ListSegments(context.Background(), "contact-1", 100, "")
	if err == nil || errors.Is(err, call.ErrAnalysisNotReady) {
		t.Fatalf("expected the raw error, got %v", err)
	}
}
