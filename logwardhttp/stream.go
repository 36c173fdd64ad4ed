package logwardhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bernerdschaefer/eventsource"

	"github.com/logward-dev/logward-go"
)

// Stream subscribes to entries matching the request filter as the backend
// observes them, sending each on ch. The send is blocking: a slow consumer
// applies backpressure to the stream rather than losing entries. Stream
// blocks until the context is canceled (returning nil) or the connection
// fails in a non-recoverable way (returning the error).
func (a *API) Stream(ctx context.Context, req logward.StreamRequest, ch chan<- logward.Entry) error {
	retry := a.RetryInterval
	if def, min, max := 3*time.Second, 1*time.Second, 60*time.Second; retry == 0 {
		retry = def
	} else if retry < min {
		retry = min
	} else if retry > max {
		retry = max
	}

	// Explicitly don't provide the context to the request, because
	// EventSource treats context cancelation as a recoverable error, in
	// which case Read can block for a full retry interval before
	// returning. Cancelation is handled by closing the source instead.
	//
	// EventSource also re-uses this request across reconnect attempts,
	// which prevents the use of a body, so the filter goes in the URL.
	httpReq, err := http.NewRequest("GET", a.endpoint(pathStream, encodeFilter(req.Filter)), nil)
	if err != nil {
		return fmt.Errorf("create HTTP request: %w", err)
	}

	a.authorize(httpReq)

	es := eventsource.New(httpReq, retry)
	go func() {
		<-ctx.Done()
		es.Close()
	}()

	for {
		ev, err := es.Read()
		if errors.Is(err, eventsource.ErrClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read server-sent event: %w", err)
		}

		switch ev.Type {
		case "init":
			// Connection acknowledgment, nothing to deliver.

		case "log":
			var e logward.Entry
			if err := json.Unmarshal(ev.Data, &e); err != nil {
				return fmt.Errorf("decode log event: %w", err)
			}
			select {
			case ch <- e:
				// OK
			case <-ctx.Done():
				return nil
			}

		default:
			// Unknown event types are ignored for forward compatibility.
		}
	}
}
