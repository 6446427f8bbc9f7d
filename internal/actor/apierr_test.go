package actor

import (
	"testing"

	"github.com/nexuscore/agentruntime/internal/apierr"
)

func TestToAPIErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want apierr.Code
	}{
		{ErrSessionClosed, apierr.CodeSessionClosed},
		{ErrQueueFull, apierr.CodeServiceUnavailable},
		{ErrResponseTimeout, apierr.CodeRequestTimeout},
	}
	for _, tc := range cases {
		got := ToAPIError(tc.err)
		if got.Code != tc.want {
			t.Errorf("ToAPIError(%v).Code = %v, want %v", tc.err, got.Code, tc.want)
		}
	}
}

func TestToAPIErrorNil(t *testing.T) {
	if ToAPIError(nil) != nil {
		t.Fatalf("expected ToAPIError(nil) to be nil")
	}
}
