package trigger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// ErrMalformedMessage marks a queue message whose body is not a storage notification.
var ErrMalformedMessage = errors.New("malformed queue message")

const s3TestEvent = "s3:TestEvent"

// snsEnvelope is the notification-service wrapper; the S3 payload is a JSON string.
type snsEnvelope struct {
	Type    string  `json:"Type"`
	Message *string `json:"Message"`
}

type s3Notification struct {
	Event   string                 `json:"Event"`
	Records []events.S3EventRecord `json:"Records"`
}

// ParseEnvelope extracts storage events from a queue message body. The body is
// either an S3 notification or a notification-service envelope whose Message
// field carries one. S3 test events yield no events and no error.
func ParseEnvelope(body []byte) ([]Event, error) {
	var outer snsEnvelope
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, fmt.Errorf("%w: body is not JSON: %v", ErrMalformedMessage, err)
	}

	payload := body
	if outer.Message != nil {
		payload = []byte(*outer.Message)
	}

	var n s3Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("%w: notification payload is not JSON: %v", ErrMalformedMessage, err)
	}
	if n.Event == s3TestEvent {
		return nil, nil
	}
	if n.Records == nil {
		return nil, fmt.Errorf("%w: notification has no Records", ErrMalformedMessage)
	}

	return FromS3Records(n.Records), nil
}
