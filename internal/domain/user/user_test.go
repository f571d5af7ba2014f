package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscription_ActiveAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{"nil subscription", nil, false},
		{"active and in future", &Subscription{IsActive: true, EndDate: now.Add(time.Hour)}, true},
		{"active but ended", &Subscription{IsActive: true, EndDate: now.Add(-time.Hour)}, false},
		{"ends exactly now", &Subscription{IsActive: true, EndDate: now}, false},
		{"inactive", &Subscription{IsActive: false, EndDate: now.Add(time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.ActiveAt(now))
		})
	}
}
