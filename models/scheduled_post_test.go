package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduledPostStatusValid(t *testing.T) {
	valid := []ScheduledPostStatus{
		ScheduledPostStatusPending,
		ScheduledPostStatusPublishing,
		ScheduledPostStatusPublished,
		ScheduledPostStatusFailed,
		ScheduledPostStatusCancelled,
	}
	for _, s := range valid {
		assert.True(t, s.Valid(), "expected %s to be valid", s)
	}

	assert.False(t, ScheduledPostStatus("archived").Valid())
	assert.False(t, ScheduledPostStatus("").Valid())
}

func TestScheduledPostStatusIsTerminal(t *testing.T) {
	assert.True(t, ScheduledPostStatusPublished.IsTerminal())
	assert.True(t, ScheduledPostStatusCancelled.IsTerminal())

	assert.False(t, ScheduledPostStatusPending.IsTerminal())
	assert.False(t, ScheduledPostStatusPublishing.IsTerminal())
	assert.False(t, ScheduledPostStatusFailed.IsTerminal())
}

func TestScheduledPostCanTransitionTo(t *testing.T) {
	statuses := []ScheduledPostStatus{
		ScheduledPostStatusPending,
		ScheduledPostStatusPublishing,
		ScheduledPostStatusPublished,
		ScheduledPostStatusFailed,
		ScheduledPostStatusCancelled,
	}

	allowed := map[ScheduledPostStatus][]ScheduledPostStatus{
		ScheduledPostStatusPending:    {ScheduledPostStatusPublishing, ScheduledPostStatusCancelled},
		ScheduledPostStatusPublishing: {ScheduledPostStatusPublished, ScheduledPostStatusFailed},
		ScheduledPostStatusFailed:     {ScheduledPostStatusPending, ScheduledPostStatusCancelled},
		ScheduledPostStatusPublished:  {},
		ScheduledPostStatusCancelled:  {},
	}

	for from, targets := range allowed {
		sp := &ScheduledPost{Status: from}
		allowedSet := make(map[ScheduledPostStatus]bool, len(targets))
		for _, to := range targets {
			allowedSet[to] = true
		}
		for _, to := range statuses {
			got := sp.CanTransitionTo(to)
			assert.Equal(t, allowedSet[to], got, "transition %s -> %s", from, to)
		}
	}
}

func TestScheduledPostSelfTransitionsNotAllowed(t *testing.T) {
	for _, s := range []ScheduledPostStatus{
		ScheduledPostStatusPending,
		ScheduledPostStatusPublishing,
		ScheduledPostStatusPublished,
		ScheduledPostStatusFailed,
		ScheduledPostStatusCancelled,
	} {
		sp := &ScheduledPost{Status: s}
		assert.False(t, sp.CanTransitionTo(s), "self transition allowed for %s", s)
	}
}

func TestScheduledPostIsReschedulable(t *testing.T) {
	tests := []struct {
		status   ScheduledPostStatus
		expected bool
	}{
		{ScheduledPostStatusPending, true},
		{ScheduledPostStatusPublishing, false},
		{ScheduledPostStatusPublished, false},
		{ScheduledPostStatusFailed, false},
		{ScheduledPostStatusCancelled, false},
	}
	for _, tt := range tests {
		sp := &ScheduledPost{Status: tt.status}
		assert.Equal(t, tt.expected, sp.IsReschedulable(), "status %s", tt.status)
	}
}

func TestScheduledPostIsCancellable(t *testing.T) {
	tests := []struct {
		status   ScheduledPostStatus
		expected bool
	}{
		{ScheduledPostStatusPending, true},
		{ScheduledPostStatusFailed, true},
		{ScheduledPostStatusPublishing, false},
		{ScheduledPostStatusPublished, false},
		{ScheduledPostStatusCancelled, false},
	}
	for _, tt := range tests {
		sp := &ScheduledPost{Status: tt.status}
		assert.Equal(t, tt.expected, sp.IsCancellable(), "status %s", tt.status)
	}
}

func TestScheduledPostIsRetryable(t *testing.T) {
	tests := []struct {
		status   ScheduledPostStatus
		expected bool
	}{
		{ScheduledPostStatusFailed, true},
		{ScheduledPostStatusPending, false},
		{ScheduledPostStatusPublishing, false},
		{ScheduledPostStatusPublished, false},
		{ScheduledPostStatusCancelled, false},
	}
	for _, tt := range tests {
		sp := &ScheduledPost{Status: tt.status}
		assert.Equal(t, tt.expected, sp.IsRetryable(), "status %s", tt.status)
	}
}

func TestScheduledPostStatusValue(t *testing.T) {
	v, err := ScheduledPostStatusPending.Value()
	assert.NoError(t, err)
	assert.Equal(t, "pending", v)

	_, err = ScheduledPostStatus("bogus").Value()
	assert.Error(t, err)
}

func TestScheduledPostStatusScan(t *testing.T) {
	var s ScheduledPostStatus
	assert.NoError(t, s.Scan("failed"))
	assert.Equal(t, ScheduledPostStatusFailed, s)

	assert.NoError(t, s.Scan([]byte("published")))
	assert.Equal(t, ScheduledPostStatusPublished, s)

	assert.NoError(t, s.Scan(nil))
	assert.Equal(t, ScheduledPostStatus(""), s)

	assert.Error(t, s.Scan(42))
}

func TestScheduledPostBeforeCreateDefaults(t *testing.T) {
	sp := &ScheduledPost{}
	assert.NoError(t, sp.BeforeCreate(nil))
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", sp.UUID.String())
	assert.Equal(t, ScheduledPostStatusPending, sp.Status)
	assert.False(t, sp.CreatedAt.IsZero())
}
