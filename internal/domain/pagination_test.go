package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestLimit(t *testing.T) {
	assert.Equal(t, DefaultMaxResults, PageRequest{}.Limit())
	assert.Equal(t, DefaultMaxResults, PageRequest{MaxResults: -5}.Limit())
	assert.Equal(t, 25, PageRequest{MaxResults: 25}.Limit())
	assert.Equal(t, MaxMaxResults, PageRequest{MaxResults: 5000}.Limit())
}

func TestPageTokenRoundTrip(t *testing.T) {
	token := EncodePageToken(200)
	assert.NotEmpty(t, token)
	assert.Equal(t, 200, PageRequest{PageToken: token}.Offset())

	assert.Empty(t, EncodePageToken(0))
	assert.Empty(t, EncodePageToken(-1))
}

func TestPageRequestOffsetInvalidToken(t *testing.T) {
	assert.Zero(t, PageRequest{}.Offset())
	assert.Zero(t, PageRequest{PageToken: "!!not-base64!!"}.Offset())
	assert.Zero(t, PageRequest{PageToken: "bm90LWEtbnVtYmVy"}.Offset()) // "not-a-number"
}

func TestNextPageToken(t *testing.T) {
	// More results remain.
	token := NextPageToken(0, 100, 250)
	assert.Equal(t, 100, PageRequest{PageToken: token}.Offset())

	// Last page.
	assert.Empty(t, NextPageToken(200, 100, 250))
	assert.Empty(t, NextPageToken(0, 100, 100))
	assert.Empty(t, NextPageToken(0, 100, 0))
}

func TestReferenceIDFormat(t *testing.T) {
	ref := ActivityReference{
		PipelineName: "orders_daily",
		ActivityName: "CopyOrders",
		Location:     LocationSource,
		Index:        2,
	}
	assert.Equal(t, "orders_daily/CopyOrders/source/2", ref.ID())
	assert.Equal(t, ref.ID(), ReferenceID("orders_daily", "CopyOrders", LocationSource, 2))
}
