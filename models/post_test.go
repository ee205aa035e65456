package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostStatusValid(t *testing.T) {
	for _, s := range []PostStatus{PostStatusDraft, PostStatusApproved, PostStatusScheduled, PostStatusPublished} {
		assert.True(t, s.Valid(), "expected %s to be valid", s)
	}
	assert.False(t, PostStatus("deleted").Valid())
}

func TestPostCanTransitionTo(t *testing.T) {
	tests := []struct {
		from     PostStatus
		to       PostStatus
		expected bool
	}{
		{PostStatusDraft, PostStatusApproved, true},
		{PostStatusDraft, PostStatusScheduled, false},
		{PostStatusDraft, PostStatusPublished, false},
		{PostStatusApproved, PostStatusScheduled, true},
		{PostStatusApproved, PostStatusDraft, false},
		{PostStatusScheduled, PostStatusPublished, true},
		{PostStatusScheduled, PostStatusApproved, true},
		{PostStatusScheduled, PostStatusDraft, false},
		{PostStatusPublished, PostStatusDraft, false},
		{PostStatusPublished, PostStatusApproved, false},
	}
	for _, tt := range tests {
		p := &Post{Status: tt.from}
		assert.Equal(t, tt.expected, p.CanTransitionTo(tt.to), "transition %s -> %s", tt.from, tt.to)
	}
}

func TestPostIsEditable(t *testing.T) {
	assert.True(t, (&Post{Status: PostStatusDraft}).IsEditable())
	assert.False(t, (&Post{Status: PostStatusApproved}).IsEditable())
	assert.False(t, (&Post{Status: PostStatusScheduled}).IsEditable())
	assert.False(t, (&Post{Status: PostStatusPublished}).IsEditable())
}

func TestPostIsDeletable(t *testing.T) {
	assert.True(t, (&Post{Status: PostStatusDraft}).IsDeletable())
	assert.False(t, (&Post{Status: PostStatusScheduled}).IsDeletable())
}

func TestPostBeforeCreateDefaults(t *testing.T) {
	p := &Post{}
	assert.NoError(t, p.BeforeCreate(nil))
	assert.Equal(t, PostStatusDraft, p.Status)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestPlatformValid(t *testing.T) {
	assert.True(t, PlatformLinkedIn.Valid())
	assert.True(t, PlatformX.Valid())
	assert.False(t, Platform("facebook").Valid())
	assert.Len(t, AllPlatforms(), 2)
}
